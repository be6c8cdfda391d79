package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/sakif/reclaim/internal/auth"
	"github.com/sakif/reclaim/internal/config"
	"github.com/sakif/reclaim/internal/repository"
	"github.com/sakif/reclaim/internal/repository/postgres"
	"github.com/sakif/reclaim/internal/repository/sqlite"
	"github.com/sakif/reclaim/internal/repository/supabase"
)

// OpenBackend builds the backend cfg selects. The session is kept in
// cfg.SessionFile either way.
//
// With the supabase backend and DATABASE_URL set, the three tables are read
// and written over a direct Postgres connection; auth and photos still go
// through the HTTP API.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repository.Backend, error) {
	store := auth.NewFileStore(cfg.SessionFile)

	switch cfg.Backend {
	case config.BackendLocal:
		if err := ensureDir(cfg.DBPath); err != nil {
			return nil, err
		}
		backend, _, err := sqlite.Open(sqlite.BackendConfig{
			Path:        cfg.DBPath,
			JWTSecret:   cfg.JWTSecret,
			AutoConfirm: cfg.AutoConfirm,
			PublicURL:   cfg.PublicURL,
		}, store)
		if err != nil {
			return nil, fmt.Errorf("opening local backend: %w", err)
		}
		logger.Debug("using local backend", slog.String("database", cfg.DBPath))
		return backend, nil

	case config.BackendSupabase:
		client, err := supabase.New(supabase.Config{
			URL:     cfg.SupabaseURL,
			AnonKey: cfg.SupabaseAnonKey,
		}, store, logger)
		if err != nil {
			return nil, err
		}
		backend := client.Backend()
		if cfg.DatabaseURL == "" {
			logger.Debug("using hosted backend", slog.String("url", cfg.SupabaseURL))
			return backend, nil
		}

		db, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		backend.Rooms = postgres.NewRoomRepository(db)
		backend.Members = postgres.NewMembershipRepository(db)
		backend.Items = postgres.NewItemRepository(db)
		backend.Close = db.Close
		logger.Debug("using hosted backend with direct table access", slog.String("url", cfg.SupabaseURL))
		return backend, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// ensureDir creates the parent directory of a database file.
func ensureDir(dbPath string) error {
	if dbPath == ":memory:" {
		return nil
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dir, err)
	}
	return nil
}

// ColorEnabled reports whether f is a terminal that should get coloured
// output. NO_COLOR turns colour off.
func ColorEnabled(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
