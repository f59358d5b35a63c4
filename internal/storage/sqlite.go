package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteSource reads every row of one table from a SQLite database, in rowid order.
type SQLiteSource struct {
	path  string
	table string
}

// NewSQLiteSource returns a source reading table from the database at path.
func NewSQLiteSource(path, table string) *SQLiteSource {
	return &SQLiteSource{path: path, table: table}
}

// Read opens the database read-only and scans the table.
func (s *SQLiteSource) Read(ctx context.Context) (*Table, error) {
	if s.table == "" {
		return nil, fmt.Errorf("sqlite source: table name is required")
	}
	// sql.Open does not touch the file; stat first so a missing catalog is reported as such.
	if _, err := os.Stat(s.path); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+s.path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(s.table)+" ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("query table %q: %w", s.table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	table := &Table{Columns: columns}
	for rows.Next() {
		cells := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, c := range cells {
			if b, ok := c.([]byte); ok {
				cells[i] = string(b)
			}
		}
		table.Rows = append(table.Rows, cells)
	}
	return table, rows.Err()
}

// Path returns the database path.
func (s *SQLiteSource) Path() string { return s.path }

// Format returns FormatSQLite.
func (s *SQLiteSource) Format() Format { return FormatSQLite }

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
