// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the wiring layer. It decides which URL patterns map to
// which handlers, what middleware runs, and how the server stops.
//
// DEPENDENCY INJECTION FLOW:
// cmd/server opens the store and passes it in:
//
//	repository.Store → ProfileService, ExclusionService → handlers → routes
//
// The server never opens or closes the store itself; whoever opened it owns it.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/profile-dashboard/internal/config"
	"github.com/sakif/profile-dashboard/internal/handler"
	"github.com/sakif/profile-dashboard/internal/middleware"
	"github.com/sakif/profile-dashboard/internal/repository"
	"github.com/sakif/profile-dashboard/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and its router.
type Server struct {
	router *chi.Mux
	config config.Server
	logger *slog.Logger
}

// New builds the router over store.
//
// A missing or empty StaticDir is not fatal: the API still serves, and the
// dashboard UI is simply absent.
func New(cfg config.Server, store repository.Store, logger *slog.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}
	s.setupRoutes(store)
	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /api/users               → filtered, sorted, paginated profiles
// GET    /api/users/{id}          → one profile by user id
// GET    /api/stats               → chart aggregates
// GET    /api/filters             → dropdown values
// GET    /api/config/exclusion    → exclusion registry
// POST   /api/config/exclusion    → set an exclusion
// DELETE /api/config/exclusion    → remove an exclusion
// GET    /*                       → React dashboard (index.html fallback)
//
// MIDDLEWARE ORDER MATTERS: RequestID must run before Logger so the log line
// carries the id, and Recoverer must sit inside Logger so a panic is logged
// as the 500 it turns into.
func (s *Server) setupRoutes(store repository.Store) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(middleware.EchoRequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", chimiddleware.RequestIDHeader},
		ExposedHeaders: []string{chimiddleware.RequestIDHeader},
		MaxAge:         300,
	}))

	profileService := service.NewProfileService(store, store, s.logger)
	exclusionService := service.NewExclusionService(store, s.logger)
	profileHandler := handler.NewProfileHandler(profileService, s.logger)
	exclusionHandler := handler.NewExclusionHandler(exclusionService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/users", profileHandler.HandleList)
		r.Get("/users/{id}", profileHandler.HandleGet)
		r.Get("/stats", profileHandler.HandleStats)
		r.Get("/filters", profileHandler.HandleFilters)

		r.Get("/config/exclusion", exclusionHandler.HandleGet)
		r.Post("/config/exclusion", exclusionHandler.HandleAdd)
		r.Delete("/config/exclusion", exclusionHandler.HandleRemove)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			if err := store.Ping(r.Context()); err != nil {
				s.logger.Warn("health check failed", slog.String("error", err.Error()))
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	spa, err := handler.NewSPAHandler(s.config.StaticDir, s.logger)
	if err != nil {
		s.logger.Warn("dashboard UI not served", slog.String("error", err.Error()))
		return
	}
	s.router.Handle("/*", spa)
}

// Start listens on the configured port and blocks until SIGINT or SIGTERM,
// then shuts down gracefully.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", s.config.Port, err)
	}

	s.logger.Info("server starting",
		slog.Int("port", s.config.Port),
		slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
	)
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then gives in-flight
// requests up to 30 seconds to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		<-serverErrors
		s.logger.Info("server stopped gracefully")
		return nil
	}
}
