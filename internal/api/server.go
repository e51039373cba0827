package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"reading-effort/internal/common/config"
	"reading-effort/internal/common/logger"
	"reading-effort/internal/common/validation"
	"reading-effort/internal/correlation"
)

// ReadinessCheck reports whether a dependency can serve requests.
type ReadinessCheck func(ctx context.Context) error

// Server exposes the analysis operations over HTTP.
type Server struct {
	router    *http.ServeMux
	server    *http.Server
	addr      string
	version   string
	logger    logger.Logger
	service   *correlation.Service
	validator *validation.Validator
	checks    map[string]ReadinessCheck
}

type Option func(*Server)

// WithReadinessCheck adds a named check to GET /ready.
func WithReadinessCheck(name string, check ReadinessCheck) Option {
	return func(s *Server) { s.checks[name] = check }
}

func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

func NewServer(cfg config.ServerConfig, service *correlation.Service, validator *validation.Validator, log logger.Logger, opts ...Option) *Server {
	s := &Server{
		router:    http.NewServeMux(),
		addr:      cfg.Address,
		version:   "dev",
		logger:    log.WithFields(map[string]interface{}{"component": "api"}),
		service:   service,
		validator: validator,
		checks:    make(map[string]ReadinessCheck),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.applyMiddleware(s.router),
		ReadTimeout:  millis(cfg.ReadTimeout, 15*time.Second),
		WriteTimeout: millis(cfg.WriteTimeout, 60*time.Second),
		IdleTimeout:  millis(cfg.IdleTimeout, 120*time.Second),
	}
	return s
}

func millis(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// Start blocks serving requests until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", map[string]interface{}{"addr": s.addr})

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server", nil)

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.Handler.ServeHTTP(w, r)
}

// applyMiddleware wraps handler; the last wrapper runs first.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	handler = RecoveryMiddleware(s.logger)(handler)
	handler = LoggingMiddleware(s.logger)(handler)
	handler = RequestIDMiddleware()(handler)
	handler = CORSMiddleware()(handler)
	return handler
}
