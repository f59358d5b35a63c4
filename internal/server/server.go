// Package server provides the HTTP API for QueryTube.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hyperjump/querytube/internal/catalog"
	"github.com/hyperjump/querytube/internal/config"
	"github.com/hyperjump/querytube/internal/search"
	"github.com/hyperjump/querytube/pkg/utils"
)

const serviceName = "querytube"

// Server is the HTTP server for the QueryTube API.
type Server struct {
	engine  *search.Engine
	catalog *catalog.Manager
	cfg     *config.Config
	logger  *zap.Logger
	limiter *rate.Limiter
	server  *http.Server
}

// NewServer creates a server with the given dependencies. cfg.Server drives
// the listener and middleware; the rest of cfg is reported by /api/v1/status.
func NewServer(
	engine *search.Engine,
	manager *catalog.Manager,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	s := &Server{
		engine:  engine,
		catalog: manager,
		cfg:     cfg,
		logger:  utils.OrNop(logger),
	}
	if cfg.Server.RateLimit > 0 {
		burst := cfg.Server.RateBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), burst)
	}
	return s
}

// Handler builds the router with all middleware applied.
func (s *Server) Handler() http.Handler {
	timeout := s.cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors(s.cfg.Server.AllowedOrigins))
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))

	r.Group(func(r chi.Router) {
		r.Use(rateLimit(s.limiter))
		r.Post("/search", s.handleSearch)
		r.Post("/api/v1/search", s.handleSearch)
	})
	r.Get("/health", s.handleHealth)
	r.Get("/api/v1/status", s.handleStatus)
	r.Post("/api/v1/catalog/reload", s.handleReload)
	r.Get("/api/v1/videos/{id}", s.handleGetVideo)

	return otelhttp.NewHandler(r, serviceName)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
