package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"
)

const parquetReadBatch = 256

// ParquetSource reads a flat parquet file, one table column per leaf column.
// TIMESTAMP columns are rendered as "2006-01-02 15:04:05" strings (with "+00:00"
// when UTC-adjusted), matching how the catalog pipeline prints them.
type ParquetSource struct {
	path string
}

// NewParquetSource returns a source reading path.
func NewParquetSource(path string) *ParquetSource {
	return &ParquetSource{path: path}
}

// Read loads every row of the file.
func (s *ParquetSource) Read(ctx context.Context) (*Table, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat parquet: %w", err)
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("read parquet metadata: %w", err)
	}

	schema := pf.Schema()
	fields := schema.Fields()
	if len(schema.Columns()) != len(fields) {
		return nil, fmt.Errorf("nested parquet schemas are not supported")
	}
	table := &Table{Columns: make([]string, len(fields))}
	decoders := make([]func(parquet.Value) any, len(fields))
	for i, field := range fields {
		table.Columns[i] = field.Name()
		decoders[i] = parquetDecoder(field)
	}

	reader := parquet.NewReader(pf)
	defer reader.Close()
	buf := make([]parquet.Row, parquetReadBatch)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := reader.ReadRows(buf)
		for _, row := range buf[:n] {
			cells := make([]any, len(fields))
			for _, v := range row {
				c := v.Column()
				if c < 0 || c >= len(cells) || v.IsNull() {
					continue
				}
				cells[c] = decoders[c](v)
			}
			table.Rows = append(table.Rows, cells)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet rows: %w", err)
		}
	}
	return table, nil
}

// Path returns the parquet file path.
func (s *ParquetSource) Path() string { return s.path }

// Format returns FormatParquet.
func (s *ParquetSource) Format() Format { return FormatParquet }

func parquetDecoder(field parquet.Field) func(parquet.Value) any {
	if lt := field.Type().LogicalType(); lt != nil && lt.Timestamp != nil {
		unit := timestampUnit(lt.Timestamp.Unit)
		utc := lt.Timestamp.IsAdjustedToUTC
		return func(v parquet.Value) any {
			return formatTimestamp(time.Unix(0, v.Int64()*int64(unit)).UTC(), utc)
		}
	}
	return parquetValue
}

func parquetValue(v parquet.Value) any {
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}

func timestampUnit(u format.TimeUnit) time.Duration {
	switch {
	case u.Millis != nil:
		return time.Millisecond
	case u.Micros != nil:
		return time.Microsecond
	default:
		return time.Nanosecond
	}
}

func formatTimestamp(t time.Time, utc bool) string {
	s := t.Format("2006-01-02 15:04:05")
	if us := t.Nanosecond() / 1000; us != 0 {
		s += fmt.Sprintf(".%06d", us)
	}
	if utc {
		s += "+00:00"
	}
	return s
}
