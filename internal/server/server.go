// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer - it connects handlers, middleware, and routes.
// It decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes (auth, login throttle)
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// main.go opens the outside world and passes it in as Deps:
//
//	config.Load → backend.Open (store), upload.OpenStore (blobs), limiter
//	server.New(cfg, deps) creates: Clock → services → handlers → routes
//
// Everything that talks to a network or a disk is created by the caller, so a
// test can hand New an in-memory SQLite store, a temp upload directory and a
// memory limiter and drive the real router with httptest.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sakif/medassoc/internal/auth"
	"github.com/sakif/medassoc/internal/config"
	"github.com/sakif/medassoc/internal/handler"
	"github.com/sakif/medassoc/internal/metrics"
	"github.com/sakif/medassoc/internal/middleware"
	"github.com/sakif/medassoc/internal/repository"
	"github.com/sakif/medassoc/internal/service"
	"github.com/sakif/medassoc/internal/upload"
)

// Deps are the resources the server uses but does not create.
//
// Store is owned by the server once New succeeds: Start closes it on the way
// out. Passwords and Registry are optional.
type Deps struct {
	Store   repository.Store
	Blobs   upload.BlobStore
	Limiter middleware.Limiter

	// Passwords defaults to bcrypt at the production cost.
	Passwords *auth.PasswordService
	// Registry defaults to a fresh registry with the Go and process collectors.
	Registry *prometheus.Registry
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store connection. When the server shuts down, the
// store is closed after in-flight requests finish, so no request sees a
// closed connection.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	store   repository.Store
	auth    *service.AuthService
	metrics *metrics.Metrics
}

// New creates a new Server with the given config and dependencies.
//
// DEPENDENCY INJECTION & WIRING:
// This is where the entire dependency chain is assembled:
//  1. Token signing (auth.NewTokenService) and password hashing
//  2. The service layer, sharing one Clock so created_at never goes backwards
//  3. The handlers, each receiving only the service it needs
//  4. Middleware and routes
//
// Each layer only receives what it needs:
// - Services get repository interfaces (not the concrete store)
// - Handlers get services (not the repository)
func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Server, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("server: store is required")
	case deps.Blobs == nil:
		return nil, errors.New("server: blob store is required")
	case deps.Limiter == nil:
		return nil, errors.New("server: limiter is required")
	}

	tokens, err := auth.NewTokenService(cfg.Auth.SecretKey, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("server: creating token service: %w", err)
	}

	passwords := deps.Passwords
	if passwords == nil {
		passwords = auth.NewPasswordService()
	}

	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   deps.Store,
		auth:    service.NewAuthService(deps.Store.Credentials(), tokens, passwords, logger),
		metrics: metrics.New(reg),
	}
	s.setupRoutes(deps)

	return s, nil
}

// Bootstrap makes sure the admin credential exists. main calls it once,
// before Start, so the first login never races the seed.
func (s *Server) Bootstrap(ctx context.Context) error {
	created, err := s.auth.EnsureAdmin(ctx, service.AdminSeed{
		Username: s.config.Admin.Username,
		Password: s.config.Admin.Password,
		FullName: s.config.Admin.FullName,
	})
	if err != nil {
		return fmt.Errorf("server: ensuring admin: %w", err)
	}
	if !created {
		s.logger.Info("admin credential present", slog.String("username", s.config.Admin.Username))
	}
	return nil
}

// Handler exposes the router, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /metrics               → Prometheus exposition
// GET    /uploads/*             → Uploaded images
// GET    /api/health            → Store ping
// POST   /api/auth/login        → Token (throttled per client IP)
// GET    /api/auth/me           → Current admin               [bearer]
// GET    /api/doctors           → List doctors (city, specialty, skip, limit)
// GET    /api/doctors/{id}      → Single doctor
// POST   /api/doctors           → Create doctor               [bearer]
// PUT    /api/doctors/{id}      → Partial update              [bearer]
// DELETE /api/doctors/{id}      → Delete doctor               [bearer]
// ...    /api/events            → Same shape as doctors
// POST   /api/upload            → Image upload                [bearer]
// GET    /*                     → Single-page frontend
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID - assigns unique ID to each request (for tracing)
// 2. RealIP - only with TRUST_PROXY_HEADERS: takes the client IP (the
//    throttle key) from proxy headers. Without a proxy that overwrites them,
//    a client could pick its own key, so by default the key is the peer
//    address.
// 3. Recoverer - catches panics and returns 500 instead of crashing
// 4. Logger - logs each request and records its metrics
// 5. CORS - answers preflight requests before any auth check
func (s *Server) setupRoutes(deps Deps) {
	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	if s.config.Server.TrustProxy {
		s.router.Use(chimiddleware.RealIP)
	}
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger, s.metrics))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	clock := service.NewClock()
	doctorHandler := handler.NewDoctorHandler(service.NewDoctorService(deps.Store.Doctors(), clock, s.logger), s.logger)
	eventHandler := handler.NewEventHandler(service.NewEventService(deps.Store.Events(), clock, s.logger), s.logger)
	authHandler := handler.NewAuthHandler(s.auth, s.metrics, s.logger)
	healthHandler := handler.NewHealthHandler(deps.Store, s.logger)

	uploads := upload.NewService(deps.Blobs, s.config.Upload.MaxBytes, s.logger)
	uploadHandler := handler.NewUploadHandler(uploads, s.metrics, s.logger)

	// === Operational and asset routes ===
	s.router.Handle("/metrics", s.metrics.Handler())
	s.router.Handle(upload.URLPrefix+"*", http.StripPrefix("/uploads", uploads.Handler()))

	// === API Routes ===
	// Reads are public. Every mutation sits in the RequireAuth group, so an
	// unauthenticated request is answered 401 before a handler runs.
	s.router.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.StripSlashes)
		r.NotFound(handler.NotFoundJSON)
		r.MethodNotAllowed(handler.MethodNotAllowedJSON)

		r.Get("/health", healthHandler.HandleHealth)
		r.With(middleware.Throttle(deps.Limiter, s.metrics, s.logger)).
			Post("/auth/login", authHandler.HandleLogin)

		r.Get("/doctors", doctorHandler.HandleList)
		r.Get("/doctors/{id}", doctorHandler.HandleGet)
		r.Get("/events", eventHandler.HandleList)
		r.Get("/events/{id}", eventHandler.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(s.auth))

			r.Get("/auth/me", authHandler.HandleMe)

			r.Post("/doctors", doctorHandler.HandleCreate)
			r.Put("/doctors/{id}", doctorHandler.HandleUpdate)
			r.Delete("/doctors/{id}", doctorHandler.HandleDelete)

			r.Post("/events", eventHandler.HandleCreate)
			r.Put("/events/{id}", eventHandler.HandleUpdate)
			r.Delete("/events/{id}", eventHandler.HandleDelete)

			r.Post("/upload", uploadHandler.HandleUpload)
		})
	})

	// === Frontend ===
	// Registered last and as a wildcard: chi prefers the more specific
	// patterns above, so only paths nothing else claims reach the SPA.
	frontend := handler.NewFrontendHandler(s.config.Server.FrontendDir, s.logger)
	s.router.Get("/*", frontend.ServeHTTP)
	s.router.Head("/*", frontend.ServeHTTP)
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (SHUTDOWN_TIMEOUT)
// 3. Close the store (flushes the SQLite WAL, drains Mongo/Postgres pools)
//
// The `defer s.store.Close()` ensures step 3 happens on every exit path.
func (s *Server) Start() error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to receive OS signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	// Channel to receive server errors
	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.String("frontend", s.config.Server.FrontendDir),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	// Block until we receive a signal or server error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
