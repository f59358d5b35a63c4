// Package ranking selects the catalog rows most similar to a query vector.
package ranking

import (
	"container/heap"
	"errors"
	"fmt"

	"github.com/hyperjump/querytube/internal/models"
	"github.com/hyperjump/querytube/internal/vector"
)

var (
	// ErrNotReady is returned when the catalog has not been loaded.
	ErrNotReady = errors.New("catalog not ready")
	// ErrDimensionMismatch is returned when the query length differs from the catalog's D.
	ErrDimensionMismatch = errors.New("query dimension mismatch")
	// ErrInvalidArgument is returned for a negative top-k.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Catalog is the read-only view of a catalog snapshot the ranker needs.
// *catalog.Store implements it.
type Catalog interface {
	IsReady() bool
	Size() int
	Dimensions() int
	Matrix() *vector.Matrix
	RecordAt(i int) *models.CatalogRecord
}

// Rank scores every catalog row against query by inner product and returns the
// topK best rows in descending score order. Rows with exactly equal scores keep
// catalog order (lower row index first). query is expected to be unit length;
// it is not re-normalized. Rank does not mutate c and is safe for concurrent use.
func Rank(c Catalog, query []float32, topK int) ([]models.ScoredResult, error) {
	if c == nil || !c.IsReady() {
		return nil, ErrNotReady
	}
	if topK < 0 {
		return nil, fmt.Errorf("%w: top_k must be >= 0, got %d", ErrInvalidArgument, topK)
	}
	if len(query) != c.Dimensions() {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(query), c.Dimensions())
	}

	indices, scores := TopK(c.Matrix(), query, topK)
	results := make([]models.ScoredResult, len(indices))
	for rank, i := range indices {
		results[rank] = models.ScoredResult{
			Record: c.RecordAt(i),
			Score:  scores[rank],
			Rank:   rank,
		}
	}
	return results, nil
}

// TopK returns the row indices of m with the k largest inner products against q,
// best first, together with their scores. Ties are broken by lower row index.
// It keeps a bounded min-heap of size k, so selection costs O(N log k).
func TopK(m *vector.Matrix, q []float32, k int) ([]int, []float32) {
	n := m.Rows()
	if k > n {
		k = n
	}
	if k <= 0 {
		return []int{}, []float32{}
	}

	rowScores := m.Scores(q, nil)
	h := make(candidateHeap, 0, k)
	for i, score := range rowScores {
		c := candidate{index: i, score: score}
		if len(h) < k {
			heap.Push(&h, c)
			continue
		}
		// h[0] is the worst kept candidate; a later row only displaces it by scoring strictly better.
		if h[0].worseThan(c) {
			h[0] = c
			heap.Fix(&h, 0)
		}
	}

	indices := make([]int, len(h))
	scores := make([]float32, len(h))
	for pos := len(h) - 1; pos >= 0; pos-- {
		c := heap.Pop(&h).(candidate)
		indices[pos] = c.index
		scores[pos] = c.score
	}
	return indices, scores
}
