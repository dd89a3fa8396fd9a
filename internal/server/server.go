// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the wiring layer. It connects handlers, middleware, and
// routes, and decides which routes sit behind RequireAuth.
//
// DEPENDENCY INJECTION FLOW:
//
//	cmd/server opens the database and runs migrations, then calls New:
//	  sqlx.DB → sqlstore.BookmarkStore / sqlstore.UserStore
//	          → service.BookmarkService / UserService / AuthService
//	          → handler.BookmarkHandler / UserHandler / AuthHandler
//
// All dependencies are assembled in New (the composition root), not
// scattered across the codebase.
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
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/sakif/bookmark-api/internal/auth"
	"github.com/sakif/bookmark-api/internal/config"
	"github.com/sakif/bookmark-api/internal/handler"
	"github.com/sakif/bookmark-api/internal/middleware"
	"github.com/sakif/bookmark-api/internal/repository/sqlstore"
	"github.com/sakif/bookmark-api/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// The database handle is borrowed: whoever opened it closes it after Start
// returns.
type Server struct {
	router  *chi.Mux
	handler http.Handler
	config  *config.Config
	logger  *slog.Logger
	db      *sqlx.DB
}

// New wires the stores, services and handlers over an already-migrated db.
func New(cfg *config.Config, db *sqlx.DB, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(tokens, auth.NewPasswordService())

	s.handler = cors.New(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(s.router)

	return s, nil
}

// Handler returns the fully wrapped router. Tests drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz                → store reachability
//	GET    /metrics                → Prometheus exposition
//	POST   /auth/signup            → create account, returns token
//	POST   /auth/signin            → check credentials, returns token
//	GET    /auth/github/login      → redirect to GitHub (only when configured)
//	GET    /auth/github/callback   → finish GitHub login (only when configured)
//	GET    /users/me               → current user            [auth]
//	PATCH  /users                  → edit current user       [auth]
//	GET    /bookmark               → list own bookmarks      [auth]
//	POST   /bookmark               → create bookmark         [auth]
//	PATCH  /bookmark               → edit, id in the body    [auth]
//	GET    /bookmark/{id}          → get own bookmark        [auth]
//	PATCH  /bookmark/{id}          → edit own bookmark       [auth]
//	DELETE /bookmark/{id}          → delete own bookmark     [auth]
//
// MIDDLEWARE ORDER MATTERS:
// RequestID must run before Logger so the log line carries the id, and
// Recoverer sits inside Logger so a recovered panic is still logged as 500.
func (s *Server) setupRoutes(tokens *auth.TokenService, passwords *auth.PasswordService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics)
	s.router.Use(chimiddleware.Recoverer)

	bookmarkStore := sqlstore.NewBookmarkStore(s.db)
	userStore := sqlstore.NewUserStore(s.db)

	bookmarkService := service.NewBookmarkService(bookmarkStore, s.logger)
	userService := service.NewUserService(userStore, s.logger)
	authService := service.NewAuthService(userStore, tokens, passwords, s.logger)

	// A typed nil *GitHubProvider would make the interface non-nil, so the
	// provider is only assigned when configured.
	var github handler.OAuthProvider
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.config.GitHub.ClientID, s.config.GitHub.ClientSecret, s.config.GitHub.CallbackURL)
	}

	healthHandler := handler.NewHealthHandler(s.db, s.logger)
	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	bookmarkHandler := handler.NewBookmarkHandler(bookmarkService, s.logger)

	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignup)
		r.Post("/signin", authHandler.HandleSignin)
		if authHandler.GitHubEnabled() {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(auth.ValidatorFunc(authService.Authenticate)))

		r.Get("/users/me", userHandler.HandleMe)
		r.Patch("/users", userHandler.HandleEdit)

		r.Route("/bookmark", func(r chi.Router) {
			r.Get("/", bookmarkHandler.HandleList)
			r.Post("/", bookmarkHandler.HandleCreate)
			r.Patch("/", bookmarkHandler.HandleEdit)
			r.Get("/{id}", bookmarkHandler.HandleGet)
			r.Patch("/{id}", bookmarkHandler.HandleEdit)
			r.Delete("/{id}", bookmarkHandler.HandleDelete)
		})
	})

	if !authHandler.GitHubEnabled() {
		s.logger.Info("GitHub login disabled; set BOOKMARKS_GITHUB_CLIENT_ID to enable it")
	}
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// On SIGINT or SIGTERM (or when ctx is cancelled) the server stops accepting
// connections and waits up to the configured shutdown timeout for in-flight
// requests to finish.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.HTTP.Addr,
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", s.config.HTTP.Addr),
			slog.String("driver", s.config.DB.Driver),
			slog.Bool("github", s.config.GitHubEnabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
