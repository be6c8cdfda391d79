// Command reclaim is the terminal client: sign in, create or join rooms, and
// post found items with photos.
//
// It talks to a hosted project when SUPABASE_URL is set, or to an embedded
// SQLite backend otherwise (see internal/config for every setting).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/sakif/reclaim/internal/cli"
	"github.com/sakif/reclaim/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	// === 1. CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return cli.ExitUsage
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return cli.ExitUsage
	}

	// === 2. LOGGING ===
	// Logs go to stderr and stay quiet unless asked for; stdout is the
	// screen.
	level, _ := cfg.LogLevel(slog.LevelWarn)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if cfg.Backend == config.BackendLocal && cfg.UsingDevSecret() {
		logger.Debug("JWT_SECRET not set, signing local sessions with the development secret")
	}

	// === 3. BACKEND ===
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	backend, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open backend", slog.String("error", err.Error()))
		return cli.ExitError
	}
	defer backend.Close()

	// === 4. RUN ===
	app := cli.New(backend, cli.Options{
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Color:       cli.ColorEnabled(os.Stderr),
		PhotoBucket: cfg.PhotoBucket,
	}, logger)
	return app.Run(ctx, os.Args[1:])
}
