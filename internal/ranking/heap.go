package ranking

import "math"

type candidate struct {
	index int
	score float32
}

// worseThan orders candidates for selection: lower score is worse, NaN is worst,
// and among equal scores the higher row index is worse.
func (c candidate) worseThan(o candidate) bool {
	cs, ocs := sortKey(c.score), sortKey(o.score)
	if cs != ocs {
		return cs < ocs
	}
	return c.index > o.index
}

func sortKey(s float32) float64 {
	if math.IsNaN(float64(s)) {
		return math.Inf(-1)
	}
	return float64(s)
}

// candidateHeap is a min-heap on worseThan: the root is the candidate to evict next.
type candidateHeap []candidate

func (h candidateHeap) Len() int           { return len(h) }
func (h candidateHeap) Less(i, j int) bool { return h[i].worseThan(h[j]) }
func (h candidateHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x any) { *h = append(*h, x.(candidate)) }

func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}
