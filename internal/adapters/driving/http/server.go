package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/custodia-labs/streamlink/internal/core/ports/driving"
	"github.com/custodia-labs/streamlink/internal/metrics"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer      *http.Server
	router          *http.ServeMux
	handler         http.Handler
	version         string
	shutdownTimeout time.Duration
	logger          *slog.Logger

	// Services
	authService    driving.AuthService
	oauthService   driving.OAuthService
	accountService driving.AccountService

	// Infrastructure
	db          Pinger // PostgreSQL health check
	redisClient Pinger // Redis health check (optional)
}

// Config holds server configuration
type Config struct {
	Host            string
	Port            int
	Version         string
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		Version:         "dev",
		ShutdownTimeout: 30 * time.Second,
	}
}

// Services groups the driving ports the server exposes.
type Services struct {
	Auth     driving.AuthService
	OAuth    driving.OAuthService
	Accounts driving.AccountService
}

// NewServer creates a new HTTP server. db and redisClient may be nil.
func NewServer(cfg Config, logger *slog.Logger, services Services, db, redisClient Pinger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultConfig().ShutdownTimeout
	}

	s := &Server{
		router:          http.NewServeMux(),
		version:         cfg.Version,
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
		authService:     services.Auth,
		oauthService:    services.OAuth,
		accountService:  services.Accounts,
		db:              db,
		redisClient:     redisClient,
	}

	s.setupRoutes()

	// metrics.Middleware reads the matched pattern, so it sits directly on the mux.
	s.handler = NewRecoveryMiddleware(logger).Handler(
		NewLoggingMiddleware(logger).Handler(
			metrics.Middleware(s.router)))

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

func (s *Server) setupRoutes() {
	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Operational endpoints (no auth)
	s.router.Handle("GET /metrics", promhttp.Handler())
	s.router.Handle("GET /swagger/", httpSwagger.WrapHandler)

	authMiddleware := NewAuthMiddleware(s.authService)

	// Authorization flow
	s.router.Handle("GET /platforms/{platform}/oauth/initiate",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleInitiate)))
	s.router.Handle("GET /platforms/{platform}/oauth/callback",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleCallback)))

	// Linked accounts
	s.router.Handle("GET /platforms/accounts",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListAccounts)))
	s.router.Handle("DELETE /platforms/accounts/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleDisconnect)))
	s.router.Handle("POST /platforms/{platform}/refresh",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleRefresh)))
	s.router.Handle("POST /platforms/{platform}/profile/sync",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSyncProfile)))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("http server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
