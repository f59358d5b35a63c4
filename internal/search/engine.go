// Package search encodes a query, ranks it against the current catalog and
// projects the matches for presentation.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/querytube/internal/catalog"
	"github.com/hyperjump/querytube/internal/config"
	"github.com/hyperjump/querytube/internal/embedding"
	"github.com/hyperjump/querytube/internal/models"
	"github.com/hyperjump/querytube/internal/ranking"
	"github.com/hyperjump/querytube/pkg/utils"
)

// ErrNotFound is returned by Lookup for an unknown video id.
var ErrNotFound = errors.New("video not found")

// CatalogProvider hands out the current catalog snapshot. *catalog.Manager implements it.
type CatalogProvider interface {
	Current() *catalog.Store
}

// Engine runs semantic search over the catalog.
type Engine struct {
	catalog  CatalogProvider
	embedder embedding.Embedder
	config   *config.SearchConfig
	logger   *zap.Logger
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(
	catalog CatalogProvider,
	embedder embedding.Embedder,
	cfg *config.SearchConfig,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		catalog:  catalog,
		embedder: embedder,
		config:   cfg,
		logger:   utils.OrNop(logger),
	}
}

// Search validates query, encodes its text and returns the top-k catalog matches.
// Errors are models.ErrEmptyQuery, the ranking sentinels, or embedding.ErrEncode.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := ProcessQuery(query, e.config); err != nil {
		return nil, err
	}

	// One snapshot per request: a concurrent reload cannot mix catalogs.
	store := e.catalog.Current()
	if !store.IsReady() {
		return nil, ranking.ErrNotReady
	}

	vec, err := e.embedder.Embed(ctx, query.Text)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !errors.Is(err, embedding.ErrEncode) {
			err = fmt.Errorf("%w: %v", embedding.ErrEncode, err)
		}
		e.logger.Error("query encoding failed", zap.Error(err))
		return nil, err
	}

	scored, err := ranking.Rank(store, vec, query.Limit())
	if err != nil {
		return nil, err
	}

	response := &models.SearchResponse{
		Query:          query.Text,
		Results:        make([]*models.VideoResult, 0, len(scored)),
		CatalogVersion: store.Version(),
	}
	for _, r := range scored {
		response.Results = append(response.Results, ToView(r))
	}
	response.QueryTime = time.Since(startTime).Milliseconds()

	e.logger.Debug("search",
		zap.Int("top_k", query.Limit()),
		zap.Int("results", len(response.Results)),
		zap.Int64("query_time_ms", response.QueryTime))
	return response, nil
}

// Lookup returns the projection of the record with the given video id. The score
// of a looked-up record is zero.
func (e *Engine) Lookup(id string) (*models.VideoResult, error) {
	store := e.catalog.Current()
	if !store.IsReady() {
		return nil, ranking.ErrNotReady
	}
	i, ok := store.IndexOf(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return ToView(models.ScoredResult{Record: store.RecordAt(i), Rank: 0}), nil
}

// ProcessQuery validates and applies defaults to the search query.
func ProcessQuery(query *models.SearchQuery, cfg *config.SearchConfig) error {
	if query == nil {
		return models.ErrEmptyQuery
	}
	defaultTopK, maxTopK := 5, 100
	if cfg != nil {
		defaultTopK, maxTopK = cfg.DefaultTopK, cfg.MaxTopK
	}
	return query.Validate(defaultTopK, maxTopK)
}

// EncoderDimensions returns the length of the vectors the query encoder produces.
func (e *Engine) EncoderDimensions() int {
	return e.embedder.Dimensions()
}
