// ABOUTME: Dashboard server: wires the store, REST API, web admin, and metrics onto one HTTP server
// ABOUTME: Runs until its context is cancelled, sweeping expired admin sessions in the background

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/2389/shop-admin/internal/api"
	"github.com/2389/shop-admin/internal/auth"
	"github.com/2389/shop-admin/internal/config"
	"github.com/2389/shop-admin/internal/metrics"
	"github.com/2389/shop-admin/internal/store"
	"github.com/2389/shop-admin/internal/webadmin"
)

// SessionSweepInterval is how often expired web admin sessions are deleted.
const SessionSweepInterval = 10 * time.Minute

// Server orchestrates the shop-admin server components.
type Server struct {
	config     *config.Config
	store      store.Store
	metrics    *metrics.Registry
	admin      *webadmin.Admin
	httpServer *http.Server
	logger     *slog.Logger

	sweepInterval time.Duration
}

// determineBaseURL resolves the web admin base URL from config or environment.
func determineBaseURL(cfg *config.Config) string {
	if cfg.WebAdmin.BaseURL != "" {
		return cfg.WebAdmin.BaseURL
	}
	if envURL := os.Getenv("SHOP_ADMIN_URL"); envURL != "" {
		return envURL
	}
	return "http://" + cfg.Server.HTTPAddr
}

// OpenStore opens the SQLite store named by config or SHOP_ADMIN_DB_PATH.
func OpenStore(cfg *config.Config) (*store.SQLiteStore, error) {
	dbPath := cfg.Database.Path
	if envPath := os.Getenv("SHOP_ADMIN_DB_PATH"); envPath != "" {
		dbPath = envPath
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// New creates a Server from cfg, opening its database.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	srv, err := NewWithStore(cfg, s, logger)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return srv, nil
}

// NewWithStore creates a Server around an already open store. The Server
// takes ownership of s and closes it on Shutdown.
func NewWithStore(cfg *config.Config, s store.Store, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("creating token verifier: %w", err)
	}

	srv := &Server{
		config:        cfg,
		store:         s,
		metrics:       metrics.NewRegistry(),
		logger:        logger.With("component", "server"),
		sweepInterval: SessionSweepInterval,
	}

	mux := http.NewServeMux()

	// Health endpoints - no auth required
	mux.HandleFunc("GET /health", srv.handleHealth)
	mux.HandleFunc("GET /health/ready", srv.handleReady)

	api.New(api.Config{
		Store:    s,
		Verifier: verifier,
		TokenTTL: cfg.Auth.TokenTTL,
		Logger:   logger,
		Observer: srv.metrics,
	}).RegisterRoutes(mux)

	// The admin UI has its own cookie-based sessions, separate from API tokens
	baseURL := determineBaseURL(cfg)
	srv.admin = webadmin.New(s, webadmin.Config{
		BaseURL:         baseURL,
		SessionDuration: cfg.WebAdmin.SessionTTL,
		Logger:          logger,
		Observer:        srv.metrics,
	})
	srv.admin.RegisterRoutes(mux)
	srv.logger.Info("admin web UI enabled at /admin/", "base_url", baseURL)

	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, srv.metrics.Handler())
		srv.logger.Info("metrics enabled", "path", cfg.Metrics.Path)
	}

	srv.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv, nil
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves HTTP and blocks until ctx is cancelled or the server fails.
// Returns nil on graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	sweepCtx, stopSweep := context.WithCancel(ctx)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		s.sweepSessions(sweepCtx)
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	stopSweep()
	<-sweepDone

	shutdownErr := s.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// sweepSessions deletes expired admin sessions, and the dialogs they left
// open, until ctx ends.
func (s *Server) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Server) sweepOnce(ctx context.Context) {
	if err := s.store.DeleteExpiredAdminSessions(ctx); err != nil && ctx.Err() == nil {
		s.logger.Warn("failed to delete expired sessions", "error", err)
	}
	if _, err := s.admin.PruneDialogs(ctx); err != nil && ctx.Err() == nil {
		s.logger.Warn("failed to prune confirmation dialogs", "error", err)
	}
}

// gracefulShutdown uses a fresh context since the caller's is already cancelled.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown stops the HTTP server and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", s.httpServer.Shutdown(ctx))
	errs = appendCloseError(errs, "store close", s.store.Close())
	return errors.Join(errs...)
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK once the database answers and someone can log in.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.CountAdminUsers(r.Context())
	if err != nil {
		s.logger.Error("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("database unavailable"))
		return
	}
	if n == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("no admin users; run shop-admin create-admin"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "ready (%d admins)", n)
}
