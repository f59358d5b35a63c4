package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// CSVSource reads a comma-separated catalog with a header record.
// All cells are strings; rows may be shorter than the header.
type CSVSource struct {
	path string
}

// NewCSVSource returns a source reading path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Read parses the whole file.
func (s *CSVSource) Read(ctx context.Context) (*Table, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	table := &Table{Columns: append([]string(nil), header...)}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		cells := make([]any, len(rec))
		for i, v := range rec {
			cells[i] = v
		}
		table.Rows = append(table.Rows, cells)
	}
	return table, nil
}

// Path returns the CSV file path.
func (s *CSVSource) Path() string { return s.path }

// Format returns FormatCSV.
func (s *CSVSource) Format() Format { return FormatCSV }
