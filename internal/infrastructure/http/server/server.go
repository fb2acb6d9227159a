package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"3tcapital/ms_ecf_core/internal/infrastructure/config"
	"3tcapital/ms_ecf_core/internal/infrastructure/http/middleware"
)

// Server wraps the HTTP server and its authenticator.
type Server struct {
	cfg        config.AppConfig
	log        *slog.Logger
	httpServer *http.Server
	auth       *middleware.JWTAuthenticator
}

// Options groups the handlers mounted by New. Only HealthHandler is
// required; nil handlers leave their route unmounted.
type Options struct {
	Config             config.AppConfig
	Logger             *slog.Logger
	HealthHandler      http.Handler
	MetricsHandler     http.Handler
	GenerateHandler    http.Handler
	BatchHandler       http.Handler
	GenerationsHandler http.Handler
	SeedHandler        http.Handler
}

// New builds the router and HTTP server.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.HealthHandler == nil {
		return nil, errors.New("health handler is required")
	}

	cfg := opts.Config
	auth, err := middleware.NewJWTAuthenticator(cfg.Auth, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("create authenticator: %w", err)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)

	r.Method(http.MethodGet, "/health", opts.HealthHandler)

	if opts.MetricsHandler != nil {
		metricsPath := cfg.Metrics.Path
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		r.Method(http.MethodGet, metricsPath, opts.MetricsHandler)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(auth.Middleware)
		api.Use(middleware.RequestTimeout(cfg.HTTP.RequestTimeout))

		if opts.GenerateHandler != nil {
			api.Method(http.MethodPost, "/ecf", opts.GenerateHandler)
		}
		if opts.BatchHandler != nil {
			api.Method(http.MethodPost, "/ecf/batch", opts.BatchHandler)
		}
		if opts.GenerationsHandler != nil {
			api.Method(http.MethodGet, "/ecf/generaciones", opts.GenerationsHandler)
		}
		if opts.SeedHandler != nil {
			api.Method(http.MethodGet, "/auth/semilla", opts.SeedHandler)
			api.Method(http.MethodPost, "/auth/semilla", opts.SeedHandler)
		}
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Address(),
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &Server{cfg: cfg, log: opts.Logger, httpServer: srv, auth: auth}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is canceled, then shuts down within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server started", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		timeout := s.cfg.HTTP.ShutdownTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		s.log.Info("HTTP server shutting down", "timeout", timeout.String())
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases the authenticator's background refreshers.
func (s *Server) Close() {
	if s.auth != nil {
		s.auth.Close()
	}
}
