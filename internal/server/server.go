// Package server is the local backend emulator: it serves the embedded
// SQLite backend over the same HTTP surface as the hosted service, so the
// CLI's HTTP backend can run against a laptop instead of the cloud.
//
// New is the composition root for the emulator: it opens the database,
// builds the account authority and wires handlers to routes.
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

	"github.com/sakif/reclaim/internal/auth"
	"github.com/sakif/reclaim/internal/handler"
	"github.com/sakif/reclaim/internal/middleware"
	sqliteRepo "github.com/sakif/reclaim/internal/repository/sqlite"
)

// Config holds server configuration.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
	// AnonKey is required in the apikey header of every API request.
	// Empty disables the check.
	AnonKey string
	// AutoConfirm issues a session at sign-up instead of waiting for the
	// account to be confirmed.
	AutoConfirm bool
	// BcryptCost overrides the password hashing cost; zero keeps the default.
	BcryptCost int
}

// Server owns the database and the router.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	users  *sqliteRepo.UserDB
	tokens *auth.TokenService
}

// New opens the database and wires the routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	passwords := auth.NewPasswordService()
	if cfg.BcryptCost > 0 {
		passwords = auth.NewPasswordServiceForTest(cfg.BcryptCost)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		users:  db.Users(passwords, tokens, cfg.AutoConfirm),
		tokens: tokens,
	}
	s.setupRoutes()
	return s, nil
}

// Handler returns the router, for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ConfirmEmail confirms a pending account, standing in for the emailed link.
func (s *Server) ConfirmEmail(ctx context.Context, email string) error {
	return s.users.ConfirmEmail(ctx, email)
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes mirrors the hosted layout:
//
//	GET    /health
//	POST   /auth/v1/signup
//	POST   /auth/v1/token?grant_type=password|refresh_token
//	POST   /auth/v1/logout                        (bearer)
//	GET    /auth/v1/user                          (bearer)
//	POST   /rest/v1/{table}                       (bearer)
//	GET    /rest/v1/{table}                       (bearer)
//	DELETE /rest/v1/{table}                       (bearer)
//	POST   /storage/v1/object/{bucket}/*          (bearer)
//	GET    /storage/v1/object/public/{bucket}/*   (public)
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	authHandler := handler.NewAuthHandler(s.users, s.logger)
	restHandler := handler.NewRestHandler(s.db.Rooms(), s.db.Members(), s.db.Items(), s.logger)
	storageHandler := handler.NewStorageHandler(s.db.Objects(""), s.logger)

	requireAuth := auth.RequireAuth(s.tokens)

	// Public object URLs are fetched by image loaders without any headers.
	s.router.Get("/storage/v1/object/public/{bucket}/*", storageHandler.HandlePublic)

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAPIKey(s.config.AnonKey))

		r.Route("/auth/v1", func(r chi.Router) {
			r.Post("/signup", authHandler.HandleSignUp)
			r.Post("/token", authHandler.HandleToken)
			r.With(requireAuth).Post("/logout", authHandler.HandleLogout)
			r.With(requireAuth).Get("/user", authHandler.HandleUser)
		})

		r.Route("/rest/v1", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/{table}", restHandler.HandleInsert)
			r.Get("/{table}", restHandler.HandleSelect)
			r.Delete("/{table}", restHandler.HandleDelete)
		})

		r.With(requireAuth).Post("/storage/v1/object/{bucket}/*", storageHandler.HandleUpload)
	})
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests and
// closes the database.
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
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.Bool("autoConfirm", s.config.AutoConfirm),
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

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
