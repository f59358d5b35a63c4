package e2e

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/querytube/internal/storage"
)

// SQLiteTable is the table name used by WriteCatalog for SQLite fixtures.
const SQLiteTable = "videos"

// CatalogFormats lists the formats WriteCatalog can produce.
var CatalogFormats = []storage.Format{
	storage.FormatCSV,
	storage.FormatXLSX,
	storage.FormatSQLite,
	storage.FormatParquet,
}

var formatExt = map[storage.Format]string{
	storage.FormatCSV:     ".csv",
	storage.FormatXLSX:    ".xlsx",
	storage.FormatSQLite:  ".sqlite",
	storage.FormatParquet: ".parquet",
}

// WriteCatalog writes c to dir in the given format and returns the file path.
func WriteCatalog(dir string, format storage.Format, c *Corpus) (string, error) {
	ext, ok := formatExt[format]
	if !ok {
		return "", fmt.Errorf("no fixture writer for %s", format)
	}
	path := filepath.Join(dir, "catalog"+ext)
	var err error
	switch format {
	case storage.FormatCSV:
		err = writeCSV(path, c)
	case storage.FormatXLSX:
		err = writeXLSX(path, c)
	case storage.FormatSQLite:
		err = writeSQLite(path, c)
	case storage.FormatParquet:
		err = writeParquet(path, c)
	}
	if err != nil {
		return "", fmt.Errorf("write %s fixture: %w", format, err)
	}
	return path, nil
}

func (v *Video) cells() []string {
	out := []string{v.ID, v.Title, v.PublishedAt, v.Transcript}
	for _, x := range v.Embedding {
		out = append(out, strconv.FormatFloat(float64(x), 'g', -1, 32))
	}
	return out
}

func writeCSV(path string, c *Corpus) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(c.Header()); err != nil {
		return err
	}
	for i := range c.Videos {
		if err := w.Write(c.Videos[i].cells()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeXLSX(path string, c *Corpus) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	header := make([]interface{}, 0, len(c.Header()))
	for _, h := range c.Header() {
		header = append(header, h)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i := range c.Videos {
		v := &c.Videos[i]
		row := []interface{}{v.ID, v.Title, v.PublishedAt, v.Transcript}
		for _, x := range v.Embedding {
			row = append(row, float64(x))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func writeSQLite(path string, c *Corpus) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer db.Close()

	header := c.Header()
	defs := make([]string, len(header))
	marks := make([]string, len(header))
	for i, h := range header {
		typ := "TEXT"
		if i >= 4 {
			typ = "REAL"
		}
		defs[i] = h + " " + typ
		marks[i] = "?"
	}
	if _, err := db.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", SQLiteTable, strings.Join(defs, ", "))); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s VALUES (%s)", SQLiteTable, strings.Join(marks, ", ")))
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for i := range c.Videos {
		v := &c.Videos[i]
		args := []interface{}{v.ID, v.Title, v.PublishedAt, v.Transcript}
		for _, x := range v.Embedding {
			args = append(args, float64(x))
		}
		if _, err := stmt.Exec(args...); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// writeParquet builds the schema at runtime since the embedding width varies.
// Group fields are laid out in name order, so rows are assembled by field name.
func writeParquet(path string, c *Corpus) error {
	group := parquet.Group{
		"video_id":   parquet.String(),
		"title":      parquet.String(),
		"datetime":   parquet.String(),
		"transcript": parquet.String(),
	}
	for j := 0; j < c.Dimensions; j++ {
		group[EmbeddingColumn(j)] = parquet.Leaf(parquet.FloatType)
	}
	schema := parquet.NewSchema("video", group)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := parquet.NewWriter(f, schema)

	fields := schema.Fields()
	rows := make([]parquet.Row, 0, len(c.Videos))
	for i := range c.Videos {
		v := &c.Videos[i]
		values := map[string]interface{}{
			"video_id":   v.ID,
			"title":      v.Title,
			"datetime":   v.PublishedAt,
			"transcript": v.Transcript,
		}
		for j, x := range v.Embedding {
			values[EmbeddingColumn(j)] = x
		}
		row := make(parquet.Row, len(fields))
		for col, field := range fields {
			row[col] = parquet.ValueOf(values[field.Name()]).Level(0, 0, col)
		}
		rows = append(rows, row)
	}
	if _, err := w.WriteRows(rows); err != nil {
		return err
	}
	return w.Close()
}
