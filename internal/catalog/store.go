// Package catalog holds the immutable snapshot of searchable videos and their
// normalized embedding matrix, and swaps snapshots atomically on reload.
package catalog

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hyperjump/querytube/internal/models"
	"github.com/hyperjump/querytube/internal/storage"
	"github.com/hyperjump/querytube/internal/vector"
)

// Columns names the metadata columns of a catalog table and the prefix that
// marks embedding columns.
type Columns struct {
	EmbeddingPrefix string
	ID              string
	Title           string
	PublishedAt     string
	Transcript      string
}

// DefaultColumns returns the column layout written by the catalog build pipeline.
func DefaultColumns() Columns {
	return Columns{
		EmbeddingPrefix: "emb_",
		ID:              "video_id",
		Title:           "title",
		PublishedAt:     "datetime",
		Transcript:      "transcript",
	}
}

// Store is an immutable catalog snapshot: records and the row-normalized matrix,
// aligned so that Matrix().Row(i) belongs to RecordAt(i).
// All methods are safe on a nil *Store, which reports not ready.
type Store struct {
	records  []models.CatalogRecord
	matrix   *vector.Matrix
	byID     map[string]int
	version  string
	loadedAt time.Time
}

// NewStore builds a store from decoded records. dims is the embedding length D;
// every record must carry exactly dims values.
func NewStore(dims int, records []models.CatalogRecord) (*Store, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("%w: no embedding dimensions", ErrSchema)
	}
	vectors := make([][]float32, len(records))
	byID := make(map[string]int, len(records))
	for i := range records {
		if len(records[i].Embedding) != dims {
			return nil, fmt.Errorf("%w: record %d (%q) has %d embedding values, expected %d",
				ErrSchema, i, records[i].ID, len(records[i].Embedding), dims)
		}
		vectors[i] = records[i].Embedding
		if _, dup := byID[records[i].ID]; !dup {
			byID[records[i].ID] = i
		}
	}
	matrix, err := vector.NewNormalizedMatrix(dims, vectors)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return &Store{
		records:  records,
		matrix:   matrix,
		byID:     byID,
		version:  uuid.NewString(),
		loadedAt: time.Now(),
	}, nil
}

// Load reads src and builds a store. Embedding columns are the columns whose
// name starts with cols.EmbeddingPrefix, taken in source order. Load is
// all-or-nothing: on error no store is returned.
func Load(ctx context.Context, src storage.Source, cols Columns) (*Store, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no source configured", ErrSourceUnavailable)
	}
	table, err := src.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	records, dims, err := decodeTable(table, cols)
	if err != nil {
		return nil, err
	}
	return NewStore(dims, records)
}

func decodeTable(table *storage.Table, cols Columns) ([]models.CatalogRecord, int, error) {
	var embCols []int
	for i, name := range table.Columns {
		if strings.HasPrefix(name, cols.EmbeddingPrefix) {
			embCols = append(embCols, i)
		}
	}
	if len(embCols) == 0 {
		return nil, 0, fmt.Errorf("%w: no columns with prefix %q", ErrSchema, cols.EmbeddingPrefix)
	}

	idCol := table.ColumnIndex(cols.ID)
	if idCol < 0 {
		return nil, 0, fmt.Errorf("%w: missing id column %q", ErrSchema, cols.ID)
	}
	// Title, date and transcript are presentation-only; absent columns decode as "".
	titleCol := table.ColumnIndex(cols.Title)
	dateCol := table.ColumnIndex(cols.PublishedAt)
	transcriptCol := table.ColumnIndex(cols.Transcript)

	records := make([]models.CatalogRecord, len(table.Rows))
	for r := range table.Rows {
		emb := make([]float32, len(embCols))
		for j, c := range embCols {
			v, ok := cellFloat(table.Cell(r, c))
			if !ok {
				return nil, 0, fmt.Errorf("%w: row %d has no numeric value for %q",
					ErrSchema, r, table.Columns[c])
			}
			emb[j] = v
		}
		records[r] = models.CatalogRecord{
			ID:          cellString(table.Cell(r, idCol)),
			Title:       optionalString(table, r, titleCol),
			PublishedAt: optionalString(table, r, dateCol),
			Transcript:  optionalString(table, r, transcriptCol),
			Embedding:   emb,
		}
	}
	return records, len(embCols), nil
}

func optionalString(table *storage.Table, r, c int) string {
	if c < 0 {
		return ""
	}
	return cellString(table.Cell(r, c))
}

// cellFloat converts an embedding cell. Missing, non-numeric and non-finite
// values (including float64 values that overflow float32) are rejected.
func cellFloat(v any) (float32, bool) {
	var f float64
	switch x := v.(type) {
	case float32:
		f = float64(x)
	case float64:
		f = x
	case int64:
		f = float64(x)
	case int:
		f = float64(x)
	case string:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(x), 32); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	out := float32(f)
	if math.IsNaN(float64(out)) || math.IsInf(float64(out), 0) {
		return 0, false
	}
	return out, true
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(x)
	}
}

// IsReady reports whether s came from a successful load.
func (s *Store) IsReady() bool {
	return s != nil && s.matrix != nil
}

// Size returns the number of records, or 0 when not ready.
func (s *Store) Size() int {
	if !s.IsReady() {
		return 0
	}
	return len(s.records)
}

// Dimensions returns D, or 0 when not ready.
func (s *Store) Dimensions() int {
	if !s.IsReady() {
		return 0
	}
	return s.matrix.Cols()
}

// Matrix returns the normalized embedding matrix.
func (s *Store) Matrix() *vector.Matrix {
	if s == nil {
		return nil
	}
	return s.matrix
}

// RecordAt returns record i. i must be in [0, Size()); callers pass only indices
// they obtained from this store.
func (s *Store) RecordAt(i int) *models.CatalogRecord {
	return &s.records[i]
}

// IndexOf returns the row of the first record with the given id.
func (s *Store) IndexOf(id string) (int, bool) {
	if !s.IsReady() {
		return 0, false
	}
	i, ok := s.byID[id]
	return i, ok
}

// Version is a unique identifier assigned when the store was built.
func (s *Store) Version() string {
	if s == nil {
		return ""
	}
	return s.version
}

// LoadedAt is when the store was built.
func (s *Store) LoadedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.loadedAt
}
