package catalog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/querytube/internal/storage"
	"github.com/hyperjump/querytube/pkg/utils"
)

// Manager owns the current catalog snapshot. Readers take a lock-free snapshot
// with Current; Load replaces the snapshot as a whole, so a reader never sees
// records from one load paired with a matrix from another.
type Manager struct {
	source     storage.Source
	columns    Columns
	logger     *zap.Logger
	dimensions int

	current atomic.Pointer[Store]

	loadMu  sync.Mutex // serializes loads
	errMu   sync.RWMutex
	lastErr error
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithDimensions makes Load reject a catalog whose embedding width is not d.
// d <= 0 accepts any width.
func WithDimensions(d int) ManagerOption {
	return func(m *Manager) { m.dimensions = d }
}

// NewManager creates a manager for src. No data is read until Load is called.
func NewManager(src storage.Source, cols Columns, logger *zap.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		source:  src,
		columns: cols,
		logger:  utils.OrNop(logger),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load reads the source and, on success, swaps the new store in. A catalog of
// the wrong width counts as a failed load. On failure the previous store
// (ready or not) keeps serving and the error is returned and remembered for
// LastError.
func (m *Manager) Load(ctx context.Context) error {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	start := time.Now()
	store, err := Load(ctx, m.source, m.columns)
	if err == nil && m.dimensions > 0 && store.Dimensions() != m.dimensions {
		err = fmt.Errorf("%w: catalog has %d embedding columns, encoder produces %d",
			ErrDimensions, store.Dimensions(), m.dimensions)
		store = nil
	}
	m.errMu.Lock()
	m.lastErr = err
	m.errMu.Unlock()
	if err != nil {
		m.logger.Error("catalog load failed",
			zap.String("path", m.sourcePath()),
			zap.Bool("serving_previous", m.Ready()),
			zap.Error(err))
		return err
	}
	prev := m.current.Swap(store)
	m.logger.Info("catalog loaded",
		zap.String("path", m.sourcePath()),
		zap.String("version", store.Version()),
		zap.String("previous_version", prev.Version()),
		zap.Int("rows", store.Size()),
		zap.Int("dimensions", store.Dimensions()),
		zap.Duration("took", time.Since(start)))
	return nil
}

// Current returns the current snapshot, or nil if no load has succeeded.
func (m *Manager) Current() *Store {
	return m.current.Load()
}

// Ready reports whether a store is being served.
func (m *Manager) Ready() bool {
	return m.Current().IsReady()
}

// LastError returns the error of the most recent Load, or nil if it succeeded.
func (m *Manager) LastError() error {
	m.errMu.RLock()
	defer m.errMu.RUnlock()
	return m.lastErr
}

// Source returns the source the manager loads from.
func (m *Manager) Source() storage.Source {
	return m.source
}

func (m *Manager) sourcePath() string {
	if m.source == nil {
		return ""
	}
	return m.source.Path()
}
