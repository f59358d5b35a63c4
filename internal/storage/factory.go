package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a catalog file format.
type Format string

const (
	// FormatParquet is the columnar format the catalog build pipeline produces.
	FormatParquet Format = "parquet"
	// FormatSQLite reads one table from a SQLite database.
	FormatSQLite Format = "sqlite"
	// FormatXLSX reads one sheet of an Excel workbook; the first row is the header.
	FormatXLSX Format = "xlsx"
	// FormatCSV reads a comma-separated file; the first record is the header.
	FormatCSV Format = "csv"
	// FormatMemory is an in-process table, used by tests and tooling.
	FormatMemory Format = "memory"
)

// Options carries format-specific settings.
type Options struct {
	// Table is the SQLite table to read.
	Table string
	// Sheet is the workbook sheet to read; empty means the first sheet.
	Sheet string
}

// NewSource creates a source for path in the given format.
// An empty format is inferred from the file extension.
func NewSource(format, path string, opts Options) (Source, error) {
	f := Format(strings.ToLower(format))
	if f == "" {
		f = FormatFromPath(path)
	}
	switch f {
	case FormatParquet:
		return NewParquetSource(path), nil
	case FormatSQLite:
		return NewSQLiteSource(path, opts.Table), nil
	case FormatXLSX:
		return NewXLSXSource(path, opts.Sheet), nil
	case FormatCSV:
		return NewCSVSource(path), nil
	default:
		return nil, fmt.Errorf("unknown catalog format: %q (supported: parquet, sqlite, xlsx, csv)", format)
	}
}

// FormatFromPath infers the format from the file extension, or returns "".
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return FormatParquet
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	case ".xlsx":
		return FormatXLSX
	case ".csv":
		return FormatCSV
	default:
		return ""
	}
}
