package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/querytube/internal/models"
	"github.com/hyperjump/querytube/internal/ranking"
	"github.com/hyperjump/querytube/internal/search"
	"github.com/hyperjump/querytube/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	OK    bool   `json:"ok"`
	Rows  int    `json:"rows"`
	Error string `json:"error,omitempty"`
}

type reloadResponse struct {
	Status         string `json:"status"`
	Rows           int    `json:"rows"`
	Dimensions     int    `json:"dimensions"`
	CatalogVersion string `json:"catalog_version"`
}

type statusResponse struct {
	Ready             bool                   `json:"ready"`
	CatalogVersion    string                 `json:"catalog_version,omitempty"`
	Rows              int                    `json:"rows"`
	Dimensions        int                    `json:"dimensions"`
	LoadedAt          *time.Time             `json:"loaded_at,omitempty"`
	EncoderDimensions int                    `json:"encoder_dimensions"`
	Source            *storage.FileInfo      `json:"source,omitempty"`
	DiskUsageBytes    int64                  `json:"disk_usage_bytes"`
	LastError         string                 `json:"last_error,omitempty"`
	Config            map[string]interface{} `json:"config"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("text", query.Text), zap.Int("top_k", query.Limit()))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		status := searchErrorStatus(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("search failed", zap.Int("status", status), zap.Error(err))
		}
		respondError(w, status, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, response)
}

// searchErrorStatus maps engine errors to HTTP status codes.
func searchErrorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrEmptyQuery),
		errors.Is(err, ranking.ErrInvalidArgument),
		errors.Is(err, ranking.ErrDimensionMismatch):
		return http.StatusBadRequest
	case errors.Is(err, ranking.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, search.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	store := s.catalog.Current()
	if !store.IsReady() {
		msg := "catalog not loaded"
		if err := s.catalog.LastError(); err != nil {
			msg = err.Error()
		}
		respondJSON(w, http.StatusServiceUnavailable, healthResponse{OK: false, Error: msg})
		return
	}
	respondJSON(w, http.StatusOK, healthResponse{OK: true, Rows: store.Size()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	store := s.catalog.Current()
	resp := statusResponse{
		Ready:             store.IsReady(),
		CatalogVersion:    store.Version(),
		Rows:              store.Size(),
		Dimensions:        store.Dimensions(),
		EncoderDimensions: s.engine.EncoderDimensions(),
	}
	if store.IsReady() {
		loadedAt := store.LoadedAt()
		resp.LoadedAt = &loadedAt
	}
	if err := s.catalog.LastError(); err != nil {
		resp.LastError = err.Error()
	}

	src := s.catalog.Source()
	if info, err := storage.StatSource(src); err != nil {
		s.logger.Warn("status: stat catalog source failed", zap.Error(err))
	} else {
		resp.Source = info
	}

	configInfo := map[string]interface{}{
		"embedding_provider":   s.cfg.Embedding.Provider,
		"embedding_dimensions": s.cfg.Embedding.Dimensions,
		"model_path":           s.cfg.Embedding.ModelPath,
		"default_top_k":        s.cfg.Search.DefaultTopK,
		"max_top_k":            s.cfg.Search.MaxTopK,
		"catalog_watch":        s.cfg.Catalog.Watch,
	}
	if src != nil {
		configInfo["catalog_path"] = src.Path()
		configInfo["catalog_format"] = string(src.Format())
	}
	resp.Config = configInfo

	var sourcePath string
	if src != nil {
		sourcePath = src.Path()
	}
	if diskBytes, err := storage.DiskUsageBytes(sourcePath, s.cfg.Embedding.ModelPath, s.cfg.Embedding.VocabPath); err == nil {
		resp.DiskUsageBytes = diskBytes
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("catalog reload requested")
	if err := s.catalog.Load(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	store := s.catalog.Current()
	respondJSON(w, http.StatusOK, reloadResponse{
		Status:         "reloaded",
		Rows:           store.Size(),
		Dimensions:     store.Dimensions(),
		CatalogVersion: store.Version(),
	})
}

func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	video, err := s.engine.Lookup(id)
	if err != nil {
		respondError(w, searchErrorStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, video)
}

// respondJSON encodes data before writing the header, so a value that cannot be
// encoded becomes a 500 instead of an empty success.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(errorResponse{Error: "encode response: " + err.Error()})
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
