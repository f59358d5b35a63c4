// Package vector provides the dense, row-normalized embedding matrix that the ranker scores.
package vector

import (
	"fmt"
	"math"
)

// NormEpsilon guards row normalization against division by zero.
// It is part of the scoring contract and must not be tuned.
const NormEpsilon = 1e-10

// Matrix is a dense row-major table of float32 with a fixed number of columns.
// After construction it is never mutated, so concurrent readers need no locking.
type Matrix struct {
	rows int
	cols int
	data []float32
}

// NewNormalizedMatrix stacks vectors into a rows x cols matrix and L2-normalizes
// each row as row / (||row|| + NormEpsilon). Every vector must have length cols.
// The input vectors are copied, not retained.
func NewNormalizedMatrix(cols int, vectors [][]float32) (*Matrix, error) {
	if cols <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	m := &Matrix{
		rows: len(vectors),
		cols: cols,
		data: make([]float32, len(vectors)*cols),
	}
	for i, vec := range vectors {
		if len(vec) != cols {
			return nil, fmt.Errorf("row %d: vector dimension mismatch: got %d, expected %d", i, len(vec), cols)
		}
		row := m.data[i*cols : (i+1)*cols]
		copy(row, vec)
		normalizeRow(row)
	}
	return m, nil
}

func normalizeRow(row []float32) {
	var sum float64
	for _, v := range row {
		sum += float64(v) * float64(v)
	}
	denom := math.Sqrt(sum) + NormEpsilon
	for j := range row {
		row[j] = float32(float64(row[j]) / denom)
	}
}

// Rows returns N.
func (m *Matrix) Rows() int {
	if m == nil {
		return 0
	}
	return m.rows
}

// Cols returns D.
func (m *Matrix) Cols() int {
	if m == nil {
		return 0
	}
	return m.cols
}

// Row returns row i. The returned slice aliases the matrix and must not be modified.
func (m *Matrix) Row(i int) []float32 {
	return m.data[i*m.cols : (i+1)*m.cols]
}

// DotRow returns the inner product of row i and q. len(q) must equal Cols.
func (m *Matrix) DotRow(i int, q []float32) float32 {
	return Dot(m.Row(i), q)
}

// Scores writes the inner product of every row with q into dst (grown as needed) and returns it.
func (m *Matrix) Scores(q []float32, dst []float32) []float32 {
	if cap(dst) < m.rows {
		dst = make([]float32, m.rows)
	}
	dst = dst[:m.rows]
	for i := 0; i < m.rows; i++ {
		dst[i] = m.DotRow(i, q)
	}
	return dst
}

// Dot returns the inner product of a and b, accumulated in float64.
// The vectors must have equal length.
func Dot(a, b []float32) float32 {
	var dot float64
	for j := range a {
		dot += float64(a[j]) * float64(b[j])
	}
	return float32(dot)
}
