package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leadrail/leadrail/internal/handler"
	"github.com/leadrail/leadrail/internal/mail"
	"github.com/leadrail/leadrail/internal/server/middleware"
	"github.com/leadrail/leadrail/internal/service"
	"github.com/leadrail/leadrail/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	// SubmitRateLimit caps unauthenticated intake submissions per IP per
	// minute. LoginRateLimit does the same for login attempts.
	SubmitRateLimit int
	LoginRateLimit  int
	// NotifyAddr receives an email for each public submission. Empty
	// disables notification.
	NotifyAddr string
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		SubmitRateLimit: 10,
		LoginRateLimit:  20,
	}
}

// Server is the top-level HTTP server. It owns the Chi router, the store,
// the policy evaluator, and the audit recorder.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *store.Store
	authSvc    *service.AuthService
	policy     *service.Policy
	recorder   *service.Recorder
	mailer     *mail.Sender
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, st *store.Store, authSvc *service.AuthService, policy *service.Policy, recorder *service.Recorder, mailer *mail.Sender, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		store:    st,
		authSvc:  authSvc,
		policy:   policy,
		recorder: recorder,
		mailer:   mailer,
		logger:   logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))

	// --- Health checks and metrics (no auth required) ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Handle("/metrics", promhttp.Handler())

	authHandler := handler.NewAuthHandler(s.authSvc, s.logger)
	publicHandler := handler.NewPublicHandler(s.store, s.mailer, s.cfg.NotifyAddr, s.logger)
	leadHandler := handler.NewLeadHandler(s.store, s.policy, s.recorder, s.logger)
	adminHandler := handler.NewAdminHandler(s.store, s.policy, s.recorder, s.logger)
	permHandler := handler.NewPermissionHandler(s.store, s.recorder, s.logger)
	settingHandler := handler.NewSettingHandler(s.store, s.recorder, s.logger)
	logHandler := handler.NewLogHandler(s.store, s.policy, s.recorder, s.logger)
	analyticsHandler := handler.NewAnalyticsHandler(s.store, s.policy, s.logger)

	// --- API routes ---
	r.Route("/api/v1", func(r chi.Router) {

		// Unauthenticated endpoints, rate limited per IP
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(s.cfg.SubmitRateLimit))
			r.Post("/submit", publicHandler.Submit)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(s.cfg.LoginRateLimit))
			r.Post("/auth/login", authHandler.Login)
		})

		// Everything else requires a valid bearer token and an active
		// account
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(s.authSvc, s.store))

			// Lead management
			r.Get("/leads", leadHandler.List)
			r.Post("/leads", leadHandler.Create)
			r.Post("/leads/bulk-update", leadHandler.BulkUpdate)
			r.Post("/leads/bulk-delete", leadHandler.BulkDelete)
			r.Get("/leads/{leadID}", leadHandler.Get)
			r.Put("/leads/{leadID}", leadHandler.Update)
			r.Patch("/leads/{leadID}", leadHandler.Patch)
			r.Delete("/leads/{leadID}", leadHandler.Delete)

			// Admin account management
			r.Get("/admins", adminHandler.List)
			r.Post("/admins", adminHandler.Create)
			r.Put("/admins/{adminID}", adminHandler.Update)
			r.Delete("/admins/{adminID}", adminHandler.Delete)

			// Permission grids
			r.Get("/permissions", permHandler.List)
			r.Put("/permissions/{role}", permHandler.Set)

			// Settings
			r.Get("/settings", settingHandler.Get)
			r.Put("/settings", settingHandler.Update)

			// Logs
			r.Get("/audit-logs", logHandler.AuditLogs)
			r.Get("/activity-logs", logHandler.ActivityLogs)
			r.Get("/login-history", logHandler.LoginHistory)
			r.Post("/activity", logHandler.RecordActivity)

			// Analytics
			r.Get("/analytics/summary", analyticsHandler.Summary)
		})
	})

	s.router = r
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the store is
// reachable, 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.store.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"degraded","checks":{"store":"error"}}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok","checks":{"store":"ok"}}`))
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests and pending log writes before closing the store.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// Let queued audit and activity writes land before the store closes.
	s.recorder.Wait()

	if err := s.store.Close(); err != nil {
		s.logger.Error("store close", "error", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
