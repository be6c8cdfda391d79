// Command server is the local backend emulator. It serves the auth, tables
// and storage APIs the reclaim client uses, backed by a SQLite file, so the
// HTTP client can be pointed at a laptop:
//
//	JWT_SECRET=$(openssl rand -hex 32) SUPABASE_ANON_KEY=local server
//	SUPABASE_URL=http://localhost:54321 SUPABASE_ANON_KEY=local reclaim signup ...
//
// With RECLAIM_AUTOCONFIRM=false, new accounts wait for confirmation:
//
//	server confirm a@x.com
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/reclaim/internal/config"
	"github.com/sakif/reclaim/internal/server"
)

func main() {
	// === 1. CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// === 2. LOGGING ===
	level, _ := cfg.LogLevel(slog.LevelInfo)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if cfg.UsingDevSecret() {
		logger.Warn("JWT_SECRET not set, using the development secret; do not expose this server")
	}
	if cfg.SupabaseAnonKey == "" {
		logger.Warn("SUPABASE_ANON_KEY not set, the apikey header is not checked")
	}

	// === 3. DATABASE PATH ===
	if cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 4. CREATE THE SERVER ===
	srv, err := server.New(server.Config{
		Port:        cfg.Port,
		DBPath:      cfg.DBPath,
		JWTSecret:   cfg.JWTSecret,
		AnonKey:     cfg.SupabaseAnonKey,
		AutoConfirm: cfg.AutoConfirm,
	}, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// `server confirm EMAIL` stands in for the emailed confirmation link.
	if len(os.Args) > 1 {
		os.Exit(runCommand(srv, logger, os.Args[1:]))
	}

	// Start() blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func runCommand(srv *server.Server, logger *slog.Logger, args []string) int {
	defer srv.Close()

	if args[0] != "confirm" || len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: server [confirm EMAIL]")
		return 2
	}
	if err := srv.ConfirmEmail(context.Background(), args[1]); err != nil {
		logger.Error("failed to confirm account",
			slog.String("email", args[1]),
			slog.String("error", err.Error()),
		)
		return 1
	}
	logger.Info("account confirmed", slog.String("email", args[1]))
	return 0
}
