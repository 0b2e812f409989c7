package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/custodia-labs/trendcore/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	handler    http.Handler
	version    string
	logger     *slog.Logger

	// Services
	newsService driving.NewsService
	authService driving.AuthService

	// Infrastructure
	checks  map[string]Pinger // readiness checks by backend name
	metrics http.Handler
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string

	// Metrics serves /metrics when set
	Metrics http.Handler
	// Observer receives one observation per request (optional)
	Observer RequestObserver

	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server. authService may be nil, in which case
// tool routes are public.
func NewServer(
	cfg Config,
	newsService driving.NewsService,
	authService driving.AuthService,
	checks map[string]Pinger,
) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		router:      http.NewServeMux(),
		version:     version,
		logger:      logger,
		newsService: newsService,
		authService: authService,
		checks:      checks,
		metrics:     cfg.Metrics,
	}

	s.setupRoutes()

	var h http.Handler = s.router
	h = NewLoggingMiddleware(logger, cfg.Observer).Handler(h)
	if len(cfg.AllowedOrigins) > 0 {
		h = NewCORSMiddleware(cfg.AllowedOrigins).Handler(h)
	}
	h = NewRecoveryMiddleware(logger).Handler(h)
	s.handler = h

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authService)
	protect := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(h)
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /swagger/doc.json", s.handleSwaggerDoc)
	if s.metrics != nil {
		s.router.Handle("GET /metrics", s.metrics)
	}

	// Auth endpoints (public)
	s.router.HandleFunc("POST /api/v1/auth/token", s.handleToken)

	// Tool endpoints
	s.router.Handle("POST /api/v1/tools/get_latest_news", protect(s.handleLatestNews))
	s.router.Handle("POST /api/v1/tools/get_news_by_date", protect(s.handleNewsByDate))
	s.router.Handle("POST /api/v1/tools/search_news", protect(s.handleSearchNews))
	s.router.Handle("POST /api/v1/tools/get_trending_topics", protect(s.handleTrendingTopics))
	s.router.Handle("POST /api/v1/tools/get_new_titles", protect(s.handleNewTitles))
	s.router.Handle("POST /api/v1/tools/get_system_status", protect(s.handleSystemStatus))
	s.router.Handle("POST /api/v1/tools/resolve_date", protect(s.handleResolveDate))
	s.router.Handle("POST /api/v1/tools/{tool}", protect(s.handleUnknownTool))
}

// Handler returns the root handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
