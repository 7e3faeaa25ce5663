// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects the record store,
// services, handlers, pages and middleware, and decides:
//   - Which URL patterns map to which handler functions
//   - What middleware runs on every request
//   - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → OpenStore → repository.Store (sqlite or postgres)
//	Store → MessageService, AdminService → JSON handlers + web pages
//
// This is the "composition root": every dependency is wired here, in
// NewWithStore/setupRoutes, rather than scattered across the codebase.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/whispering-network/internal/auth"
	"github.com/sakif/whispering-network/internal/config"
	"github.com/sakif/whispering-network/internal/handler"
	"github.com/sakif/whispering-network/internal/middleware"
	"github.com/sakif/whispering-network/internal/repository"
	"github.com/sakif/whispering-network/internal/repository/postgres"
	sqliteRepo "github.com/sakif/whispering-network/internal/repository/sqlite"
	"github.com/sakif/whispering-network/internal/service"
	"github.com/sakif/whispering-network/internal/web"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the record store. Start closes it after the HTTP server
// has drained, so pending writes are flushed and the SQLite file lock (or
// the Postgres pool) is released.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	store  repository.Store
	tokens *auth.TokenService
}

// New opens the record store named by cfg.Database and builds the server
// around it.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	store, err := OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	s, err := NewWithStore(cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return s, nil
}

// OpenStore opens and migrates the configured record store.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		store, err := postgres.New(ctx, cfg.DSN, logger, postgresOptions(cfg)...)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return store, nil
	case config.DriverSQLite, "":
		db, err := sqliteRepo.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return db, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

func postgresOptions(cfg config.DatabaseConfig) []postgres.Option {
	var opts []postgres.Option
	if cfg.ConnectTimeout > 0 {
		opts = append(opts, postgres.ConnectionTimeout(cfg.ConnectTimeout))
	}
	if cfg.MaxConns > 0 {
		opts = append(opts, postgres.MaxConns(cfg.MaxConns))
	}
	return opts
}

// NewWithStore builds the server over an already opened store. Tests use
// it with an in-memory SQLite store.
func NewWithStore(cfg config.Config, store repository.Store, logger *slog.Logger) (*Server, error) {
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		var err error
		if secret, err = ephemeralSecret(); err != nil {
			return nil, err
		}
		logger.Warn("JWT_SECRET not set, using a random secret; admin sessions will not survive a restart")
	}

	tokens, err := auth.NewTokenService(secret, cfg.Auth.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
		tokens: tokens,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

func ephemeralSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /                               → splash or public feed (HTML)
//	POST   /enter                          → mark visited, redirect to /
//	GET    /admin                          → login form or dashboard (HTML)
//	GET    /static/*                       → embedded script and stylesheet
//	GET    /healthz                        → store ping
//	GET    /metrics                        → Prometheus exposition
//	GET    /api/messages/public            → public messages with replies
//	GET    /api/messages/private           → private messages with replies
//	GET    /api/messages/category/{category}
//	GET    /api/messages/recipient/{recipient}
//	GET    /api/messages/{id}/replies
//	POST   /api/messages                   → create message
//	PATCH  /api/messages/{id}              → change visibility
//	POST   /api/replies                    → create reply
//	GET    /api/recipients                 → active admin nicknames
//	GET    /api/categories                 → suggested categories
//	POST   /api/admins, GET /api/admins, PATCH /api/admins/{id}
//	POST   /api/auth/login, POST /api/auth/logout, GET /api/auth/me
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID  - assigns the id the logger and pgx logs carry
//  2. RealIP     - client IP from proxy headers
//  3. Logger     - one structured line per request
//  4. Metrics    - Prometheus request counters
//  5. Recoverer  - panics become 500s, still logged and counted above
//  6. CORS       - only when origins are configured
//  7. OptionalSession - admin id from the session cookie, if any
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics)
	s.router.Use(chimiddleware.Recoverer)
	if origins := s.config.Server.CORSOrigins; len(origins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	s.router.Use(auth.OptionalSession(s.tokens))

	// === Services ===
	// The store satisfies every repository interface; each service only
	// sees the ones it needs.
	passwords := auth.NewPasswordService(s.config.Auth.BcryptCost)
	messageService := service.NewMessageService(s.store, s.store, s.logger)
	adminService := service.NewAdminService(s.store, passwords, s.logger)

	// === Operational ===
	s.router.Get("/healthz", handler.HandleHealth(s.store))
	s.router.Handle("/metrics", promhttp.Handler())

	// === Pages ===
	pages, err := web.NewPages(messageService, adminService, s.tokens, s.logger)
	if err != nil {
		return fmt.Errorf("creating pages: %w", err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", web.Static()))
	s.router.Get("/", pages.HandleHome)
	s.router.Post("/enter", pages.HandleEnter)
	s.router.Get("/admin", pages.HandleAdmin)

	// === API ===
	// The API is open: the session only gates the admin page.
	messageHandler := handler.NewMessageHandler(messageService)
	adminHandler := handler.NewAdminHandler(adminService)
	authHandler := handler.NewAuthHandler(adminService, s.tokens)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/messages/public", messageHandler.HandleListPublic)
		r.Get("/messages/private", messageHandler.HandleListPrivate)
		r.Get("/messages/category/{category}", messageHandler.HandleListByCategory)
		r.Get("/messages/recipient/{recipient}", messageHandler.HandleListByRecipient)
		r.Get("/messages/{id}/replies", messageHandler.HandleListReplies)
		r.Post("/messages", messageHandler.HandleCreate)
		r.Patch("/messages/{id}", messageHandler.HandleUpdateVisibility)

		r.Post("/replies", messageHandler.HandleCreateReply)

		r.Get("/recipients", adminHandler.HandleRecipients)
		r.Get("/categories", handler.HandleListCategories)

		r.Post("/admins", adminHandler.HandleCreate)
		r.Get("/admins", adminHandler.HandleList)
		r.Patch("/admins/{id}", adminHandler.HandleUpdateStatus)

		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Get("/auth/me", authHandler.HandleMe)
	})

	return nil
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait up to server.shutdown_timeout for in-flight requests
//  3. Close the record store
func (s *Server) Start() error {
	defer s.store.Close()

	cfg := s.config.Server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", cfg.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", cfg.Port)),
			slog.String("database", s.config.Database.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
