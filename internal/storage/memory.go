package storage

import "context"

// MemorySource serves a fixed table without I/O.
type MemorySource struct {
	table *Table
	err   error
}

// NewMemorySource returns a source whose Read yields table.
func NewMemorySource(table *Table) *MemorySource {
	return &MemorySource{table: table}
}

// NewFailingSource returns a source whose Read always fails with err.
func NewFailingSource(err error) *MemorySource {
	return &MemorySource{err: err}
}

// Read returns the table, or the configured error.
func (s *MemorySource) Read(ctx context.Context) (*Table, error) {
	if s.err != nil {
		return nil, s.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.table, nil
}

// Path returns "".
func (s *MemorySource) Path() string { return "" }

// Format returns FormatMemory.
func (s *MemorySource) Format() Format { return FormatMemory }
