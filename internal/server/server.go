// Package server wires the application together: it owns the dependency
// graph (database → repositories → services → handlers), the route table,
// and the HTTP server lifecycle. main.go only loads config and calls in.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/miniblog/internal/auth"
	"github.com/sakif/miniblog/internal/config"
	"github.com/sakif/miniblog/internal/handler"
	"github.com/sakif/miniblog/internal/middleware"
	sqliteRepo "github.com/sakif/miniblog/internal/repository/sqlite"
	"github.com/sakif/miniblog/internal/service"
	"github.com/sakif/miniblog/internal/session"
)

// Server holds the HTTP router and the resources it must release on
// shutdown (currently just the database).
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New builds the full dependency graph and route table.
//
// Each layer receives only what it needs: services get repository
// interfaces (not *sqlite.DB), handlers get services (not repositories).
// Everything is wired here, in one place.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware, builds the services, and maps routes.
//
//	POST   /api/auth/register   create an account
//	POST   /api/auth/login      password login, sets session cookie
//	POST   /api/auth/logout     destroy session (idempotent)
//	GET    /api/me              current user (null when anonymous)
//	GET    /api/me/posts        caller's posts            (auth)
//	GET    /api/posts           feed, newest first
//	GET    /api/posts/search    substring search on title/author
//	GET    /api/posts/{id}      single post
//	POST   /api/posts           publish                   (auth)
//	PUT    /api/posts/{id}      edit own post             (auth)
//	DELETE /api/posts/{id}      delete own post           (auth)
//	GET    /auth/github/login   GitHub sign-in            (if configured)
//	GET    /auth/github/callback
//	GET    /metrics             Prometheus scrape endpoint
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics())

	tokens, err := auth.NewTokenService(s.config.SessionSecret, s.config.SessionTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	sessions := session.NewManager(tokens)
	passwords := auth.NewPasswordService()

	authService := service.NewAuthService(s.db.Users(), passwords, sessions, s.logger)
	postService := service.NewPostService(s.db, s.logger)

	var github *auth.GitHubProvider
	if s.config.GitHub.ClientID != "" {
		callback := s.config.GitHub.CallbackURL
		if callback == "" {
			callback = fmt.Sprintf("http://localhost:%d/auth/github/callback", s.config.Port)
		}
		github = auth.NewGitHubProvider(s.config.GitHub.ClientID, s.config.GitHub.ClientSecret, callback)
	}

	authHandler := handler.NewAuthHandler(authService, github, int(s.config.SessionTTL.Seconds()), s.logger)
	postHandler := handler.NewPostHandler(postService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Get("/me", authHandler.HandleMe)

		r.Get("/posts", postHandler.HandleList)
		r.Get("/posts/search", postHandler.HandleSearch)
		r.Get("/posts/{id}", postHandler.HandleGetByID)

		// State-changing post routes require a live session.
		r.Group(func(r chi.Router) {
			r.Use(session.RequireAuth(sessions))
			r.Get("/me/posts", postHandler.HandleMyPosts)
			r.Post("/posts", postHandler.HandleCreate)
			r.Put("/posts/{id}", postHandler.HandleUpdate)
			r.Delete("/posts/{id}", postHandler.HandleDelete)
		})
	})

	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	} else {
		s.logger.Info("GitHub sign-in disabled (GITHUB_CLIENT_ID not set)")
	}

	s.router.Handle("/metrics", promhttp.Handler())

	return nil
}

// Router exposes the configured router, mainly for httptest in tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30s,
// and close the database so the WAL is flushed and the file lock freed.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
