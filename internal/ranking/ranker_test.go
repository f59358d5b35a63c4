package ranking

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"sync"
	"testing"

	"github.com/hyperjump/querytube/internal/catalog"
	"github.com/hyperjump/querytube/internal/models"
)

func newStore(t testing.TB, dims int, vecs ...[]float32) *catalog.Store {
	t.Helper()
	records := make([]models.CatalogRecord, len(vecs))
	for i, v := range vecs {
		records[i] = models.CatalogRecord{ID: string(rune('a' + i%26)), Embedding: v}
	}
	store, err := catalog.NewStore(dims, records)
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func rowOf(t *testing.T, store *catalog.Store, r models.ScoredResult) int {
	t.Helper()
	for i := 0; i < store.Size(); i++ {
		if store.RecordAt(i) == r.Record {
			return i
		}
	}
	t.Fatalf("result record %p not in store", r.Record)
	return -1
}

func TestRank_Example(t *testing.T) {
	store := newStore(t, 2, []float32{1, 0}, []float32{0, 1}, []float32{0.707, 0.707})
	results, err := Rank(store, []float32{1, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if rowOf(t, store, results[0]) != 0 || math.Abs(float64(results[0].Score)-1) > 1e-6 {
		t.Errorf("first = row %d score %v, want row 0 score 1", rowOf(t, store, results[0]), results[0].Score)
	}
	if rowOf(t, store, results[1]) != 2 || math.Abs(float64(results[1].Score)-0.7071) > 1e-3 {
		t.Errorf("second = row %d score %v, want row 2 score ~0.707", rowOf(t, store, results[1]), results[1].Score)
	}
	for i, r := range results {
		if r.Rank != i {
			t.Errorf("results[%d].Rank = %d", i, r.Rank)
		}
	}
}

func TestRank_EdgeCases(t *testing.T) {
	store := newStore(t, 2, []float32{1, 0}, []float32{0, 1}, []float32{1, 1})
	empty := newStore(t, 2)

	tests := []struct {
		name    string
		store   *catalog.Store
		query   []float32
		topK    int
		wantLen int
		wantErr error
	}{
		{"zero top_k", store, []float32{1, 0}, 0, 0, nil},
		{"top_k above N returns all", store, []float32{1, 0}, 10, 3, nil},
		{"top_k equals N", store, []float32{1, 0}, 3, 3, nil},
		{"empty catalog", empty, []float32{1, 0}, 5, 0, nil},
		{"empty catalog zero top_k", empty, []float32{1, 0}, 0, 0, nil},
		{"negative top_k", store, []float32{1, 0}, -1, 0, ErrInvalidArgument},
		{"query too short", store, []float32{1}, 2, 0, ErrDimensionMismatch},
		{"query too long", store, []float32{1, 0, 0}, 2, 0, ErrDimensionMismatch},
		{"not ready", nil, []float32{1, 0}, 2, 0, ErrNotReady},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := Rank(tt.store, tt.query, tt.topK)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Rank() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				if results != nil {
					t.Error("results should be nil on error")
				}
				return
			}
			if len(results) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(results), tt.wantLen)
			}
		})
	}
}

func TestRank_NilInterfaceNotReady(t *testing.T) {
	if _, err := Rank(nil, []float32{1}, 1); !errors.Is(err, ErrNotReady) {
		t.Errorf("error = %v, want ErrNotReady", err)
	}
}

func TestRank_TieBreakKeepsCatalogOrder(t *testing.T) {
	store := newStore(t, 2,
		[]float32{0, 1},
		[]float32{1, 0},
		[]float32{0, 1},
		[]float32{1, 0},
		[]float32{1, 0},
	)
	results, err := Rank(store, []float32{1, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got := []int{rowOf(t, store, results[0]), rowOf(t, store, results[1])}; got[0] != 1 || got[1] != 3 {
		t.Errorf("rows = %v, want [1 3]", got)
	}

	results, err = Rank(store, []float32{1, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 3, 4, 0, 2}
	for i, r := range results {
		if got := rowOf(t, store, r); got != want[i] {
			t.Errorf("position %d = row %d, want %d", i, got, want[i])
		}
	}
}

func TestRank_SelfSimilarity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	vecs := make([][]float32, 50)
	for i := range vecs {
		vecs[i] = make([]float32, 16)
		for j := range vecs[i] {
			vecs[i][j] = float32(rng.NormFloat64())
		}
	}
	store := newStore(t, 16, vecs...)
	for _, i := range []int{0, 17, 49} {
		q := append([]float32(nil), store.Matrix().Row(i)...)
		results, err := Rank(store, q, 1)
		if err != nil {
			t.Fatal(err)
		}
		if got := rowOf(t, store, results[0]); got != i {
			t.Errorf("query row %d: top result row %d", i, got)
		}
		if math.Abs(float64(results[0].Score)-1) > 1e-5 {
			t.Errorf("query row %d: self score %v, want ~1", i, results[0].Score)
		}
	}
}

func TestRank_ScoresAreRawDotProducts(t *testing.T) {
	store := newStore(t, 2, []float32{1, 0}, []float32{-1, 0})
	results, err := Rank(store, []float32{2, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(float64(results[0].Score)-2) > 1e-6 {
		t.Errorf("non-unit query score = %v, want 2 (not clamped)", results[0].Score)
	}
	if math.Abs(float64(results[1].Score)+2) > 1e-6 {
		t.Errorf("opposite score = %v, want -2", results[1].Score)
	}
}

func TestRank_ZeroRowScoresZero(t *testing.T) {
	store := newStore(t, 2, []float32{0, 0}, []float32{-1, 0})
	results, err := Rank(store, []float32{1, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if rowOf(t, store, results[0]) != 0 || results[0].Score != 0 {
		t.Errorf("zero row should score 0 and outrank a negative row, got %+v", results[0])
	}
}

// TestTopK_MatchesStableSort checks the heap selection against a full stable sort.
func TestTopK_MatchesStableSort(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(40)
		dims := 1 + rng.Intn(4)
		vecs := make([][]float32, n)
		for i := range vecs {
			vecs[i] = make([]float32, dims)
			for j := range vecs[i] {
				// few distinct values so exact ties are common
				vecs[i][j] = float32(rng.Intn(3) - 1)
			}
		}
		store := newStore(t, dims, vecs...)
		q := make([]float32, dims)
		for j := range q {
			q[j] = float32(rng.Intn(3) - 1)
		}
		k := rng.Intn(n + 3)

		m := store.Matrix()
		order := make([]int, n)
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return m.DotRow(order[a], q) > m.DotRow(order[b], q)
		})
		want := order
		if k < n {
			want = order[:k]
		}

		got, scores := TopK(m, q, k)
		if len(got) != len(want) {
			t.Fatalf("trial %d: len = %d, want %d", trial, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("trial %d (n=%d k=%d): got %v, want %v", trial, n, k, got, want)
			}
			if i > 0 && scores[i] > scores[i-1] {
				t.Fatalf("trial %d: scores not non-increasing: %v", trial, scores)
			}
		}
	}
}

func TestCandidate_NaNRanksLast(t *testing.T) {
	nan := candidate{index: 0, score: float32(math.NaN())}
	neg := candidate{index: 1, score: -1}
	if !nan.worseThan(neg) {
		t.Error("NaN should be worse than any number")
	}
	if neg.worseThan(nan) {
		t.Error("a number should not be worse than NaN")
	}
}

func TestRank_Concurrent(t *testing.T) {
	store := newStore(t, 2, []float32{1, 0}, []float32{0, 1}, []float32{1, 1})
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				results, err := Rank(store, []float32{0, 1}, 2)
				if err != nil || len(results) != 2 || results[0].Record.ID != "b" {
					t.Errorf("concurrent rank: %v %v", results, err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
