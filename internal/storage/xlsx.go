package storage

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXSource reads one sheet of an Excel workbook. The first row is the header;
// cells come back as the formatted strings Excel displays.
type XLSXSource struct {
	path  string
	sheet string
}

// NewXLSXSource returns a source reading sheet from path; an empty sheet means the first one.
func NewXLSXSource(path, sheet string) *XLSXSource {
	return &XLSXSource{path: path, sheet: sheet}
}

// Read loads the sheet.
func (s *XLSXSource) Read(ctx context.Context) (*Table, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return &Table{}, nil
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}
	table := &Table{Columns: rows[0]}
	for _, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}
		cells := make([]any, len(row))
		for i, v := range row {
			if v == "" {
				continue
			}
			cells[i] = v
		}
		table.Rows = append(table.Rows, cells)
	}
	return table, nil
}

// Path returns the workbook path.
func (s *XLSXSource) Path() string { return s.path }

// Format returns FormatXLSX.
func (s *XLSXSource) Format() Format { return FormatXLSX }
