// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/finwindow/internal/api/middleware"
	"github.com/newthinker/finwindow/internal/indicator"
	"github.com/newthinker/finwindow/internal/metrics"
	"github.com/newthinker/finwindow/internal/series"
	"github.com/newthinker/finwindow/internal/window"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP server for finwindow
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	handler    *Handler
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MetricsPath string
}

// Dependencies are the components served over HTTP. Loader may be nil, in
// which case the flat-file routes are not registered.
type Dependencies struct {
	Driver     *window.Driver
	Loader     *series.Loader
	Metrics    *metrics.Registry
	Indicators []indicator.Spec
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Driver == nil {
		return nil, fmt.Errorf("driver is required")
	}

	mux := http.NewServeMux()

	var root http.Handler = mux
	if deps.Metrics != nil {
		root = metrics.HTTPMiddleware(deps.Metrics)(root)
	}
	root = metrics.LoggingMiddleware(logger)(root)

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      root,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:  logger,
		mux:     mux,
		handler: NewHandler(deps, logger),
	}

	s.setupRoutes(cfg, deps)
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	auth := middleware.APIKeyAuth(cfg.APIKey)

	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.Handle("POST /api/v1/compute", auth(http.HandlerFunc(s.handler.Compute)))
	s.mux.Handle("GET /api/v1/indicators", auth(http.HandlerFunc(s.handler.Indicators)))

	if deps.Loader != nil {
		s.mux.Handle("GET /api/v1/files", auth(http.HandlerFunc(s.handler.Files)))
		s.mux.Handle("GET /api/v1/series", auth(http.HandlerFunc(s.handler.Series)))
	}

	if deps.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle("GET "+path, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{Registry: deps.Metrics}))
	}
}

// Handler returns the root handler including middleware.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
