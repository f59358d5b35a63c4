package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

const testDebounce = 50 * time.Millisecond

func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func startWatcher(t *testing.T, path string, calls *int32) *Watcher {
	t.Helper()
	w := NewWatcher(path, func() { atomic.AddInt32(calls, 1) }, WithDebounce(testDebounce))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)
	return w
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "videos.csv")
	if err := os.WriteFile(path, []byte("v0"), 0600); err != nil {
		t.Fatal(err)
	}

	var calls int32
	startWatcher(t, path, &calls)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("v"+string(rune('1'+i))), 0600); err != nil {
			t.Fatal(err)
		}
	}
	if !waitFor(t, func() bool { return atomic.LoadInt32(&calls) >= 1 }) {
		t.Fatal("onChange was not called")
	}
	time.Sleep(4 * testDebounce)
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("onChange called %d times for one burst, want 1", got)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "videos.csv")
	if err := os.WriteFile(path, []byte("v0"), 0600); err != nil {
		t.Fatal(err)
	}

	var calls int32
	startWatcher(t, path, &calls)

	if err := os.WriteFile(filepath.Join(dir, "other.csv"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(6 * testDebounce)
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("onChange called %d times for an unrelated file", got)
	}
}

func TestWatcher_SeesReplaceByRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "videos.parquet")
	if err := os.WriteFile(path, []byte("old"), 0600); err != nil {
		t.Fatal(err)
	}

	var calls int32
	startWatcher(t, path, &calls)

	tmp := filepath.Join(dir, "videos.parquet.tmp")
	if err := os.WriteFile(tmp, []byte("new"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, func() bool { return atomic.LoadInt32(&calls) >= 1 }) {
		t.Error("onChange was not called after rename over the watched file")
	}
}

func TestWatcher_StartErrors(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "missing", "videos.csv"), nil)
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Error("expected error when the parent directory does not exist")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "videos.csv")
	var calls int32
	w := startWatcher(t, path, &calls)
	if w.Path() != path {
		t.Errorf("Path() = %s, want %s", w.Path(), path)
	}
	w.Stop()
	w.Stop()

	if err := os.WriteFile(path, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(4 * testDebounce)
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("stopped watcher fired %d times", got)
	}
}

func TestWatcher_ContextCancelStops(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "videos.csv")
	var calls int32
	w := NewWatcher(path, func() { atomic.AddInt32(&calls, 1) }, WithDebounce(testDebounce))
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	if !waitFor(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return !w.started
	}) {
		t.Fatal("watcher did not stop after context cancel")
	}
}
