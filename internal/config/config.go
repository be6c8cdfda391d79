// Package config loads settings for the reclaim CLI and the local backend
// emulator from the environment, with a .env file as fallback.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/sakif/reclaim/internal/repository"
)

// Backend selects where the CLI keeps its data.
type Backend string

const (
	// BackendSupabase talks to a hosted project (or the emulator) over HTTP.
	BackendSupabase Backend = "supabase"
	// BackendLocal opens the embedded SQLite backend in-process.
	BackendLocal Backend = "local"
)

// DevJWTSecret signs local access tokens when JWT_SECRET is unset. It is only
// fit for a single-user machine.
const DevJWTSecret = "reclaim-local-development-secret"

type Config struct {
	Backend Backend

	SupabaseURL     string
	SupabaseAnonKey string
	// DatabaseURL, when set with the supabase backend, sends table reads and
	// writes straight to Postgres instead of the tables API.
	DatabaseURL string

	DBPath      string
	SessionFile string
	PhotoBucket string

	Port        int
	JWTSecret   string
	AutoConfirm bool
	PublicURL   string

	logLevel string
}

// Load reads the given .env files (".env" when none are named) and then the
// process environment. Variables already in the environment win. Missing
// files are skipped.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	fromFiles := map[string]string{}
	for _, f := range files {
		vals, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", f, err)
		}
		for k, v := range vals {
			if _, seen := fromFiles[k]; !seen {
				fromFiles[k] = v
			}
		}
	}

	return parse(func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return fromFiles[key]
	})
}

func parse(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		SupabaseURL:     get("SUPABASE_URL", ""),
		SupabaseAnonKey: get("SUPABASE_ANON_KEY", ""),
		DatabaseURL:     get("DATABASE_URL", ""),
		DBPath:          get("RECLAIM_DB_PATH", filepath.Join("data", "reclaim.db")),
		SessionFile:     get("RECLAIM_SESSION_FILE", defaultSessionFile()),
		PhotoBucket:     get("RECLAIM_PHOTO_BUCKET", repository.PhotoBucket),
		JWTSecret:       get("JWT_SECRET", DevJWTSecret),
		logLevel:        get("RECLAIM_LOG_LEVEL", ""),
	}

	defaultBackend := BackendLocal
	if cfg.SupabaseURL != "" {
		defaultBackend = BackendSupabase
	}
	cfg.Backend = Backend(strings.ToLower(get("RECLAIM_BACKEND", string(defaultBackend))))
	if cfg.Backend != BackendSupabase && cfg.Backend != BackendLocal {
		return nil, fmt.Errorf("config: RECLAIM_BACKEND must be %q or %q, got %q",
			BackendSupabase, BackendLocal, cfg.Backend)
	}

	port, err := strconv.Atoi(get("PORT", "54321"))
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("config: invalid PORT %q", getenv("PORT"))
	}
	cfg.Port = port

	cfg.AutoConfirm, err = strconv.ParseBool(get("RECLAIM_AUTOCONFIRM", "true"))
	if err != nil {
		return nil, fmt.Errorf("config: invalid RECLAIM_AUTOCONFIRM: %w", err)
	}

	cfg.PublicURL = strings.TrimRight(get("RECLAIM_PUBLIC_URL", fmt.Sprintf("http://localhost:%d", port)), "/")

	if cfg.logLevel != "" {
		if _, err := cfg.LogLevel(slog.LevelInfo); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Validate checks the settings the chosen backend cannot run without.
func (c *Config) Validate() error {
	if c.Backend == BackendSupabase {
		if c.SupabaseURL == "" {
			return errors.New("config: SUPABASE_URL is required for the supabase backend")
		}
		if c.SupabaseAnonKey == "" {
			return errors.New("config: SUPABASE_ANON_KEY is required for the supabase backend")
		}
	}
	return nil
}

// UsingDevSecret reports whether JWT_SECRET was left unset.
func (c *Config) UsingDevSecret() bool {
	return c.JWTSecret == DevJWTSecret
}

// LogLevel returns RECLAIM_LOG_LEVEL, or def when it is unset.
func (c *Config) LogLevel(def slog.Level) (slog.Level, error) {
	if c.logLevel == "" {
		return def, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.logLevel)); err != nil {
		return def, fmt.Errorf("config: invalid RECLAIM_LOG_LEVEL %q", c.logLevel)
	}
	return l, nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".reclaim-session.json"
	}
	return filepath.Join(dir, "reclaim", "session.json")
}
