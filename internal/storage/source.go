// Package storage reads pre-built catalog files into a rectangular, column-named table.
package storage

import "context"

// Table is the tabular contents of a catalog file. Cells hold string, int64,
// float64, bool, time.Time or nil, depending on what the underlying format stores.
type Table struct {
	Columns []string
	Rows    [][]any
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns row r, column c, or nil when the row is shorter than the header.
func (t *Table) Cell(r, c int) any {
	row := t.Rows[r]
	if c < 0 || c >= len(row) {
		return nil
	}
	return row[c]
}

// Source reads a whole catalog table. Implementations perform file I/O only inside Read.
type Source interface {
	Read(ctx context.Context) (*Table, error)
	// Path is the file backing the source, or "" for in-memory sources.
	Path() string
	Format() Format
}
