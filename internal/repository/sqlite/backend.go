package sqlite

import (
	"github.com/sakif/reclaim/internal/auth"
	"github.com/sakif/reclaim/internal/repository"
)

// BackendConfig configures Open.
type BackendConfig struct {
	Path        string
	JWTSecret   string
	AutoConfirm bool
	// PublicURL is the base of photo URLs.
	PublicURL string
	// Passwords defaults to bcrypt at the production cost.
	Passwords *auth.PasswordService
}

// Open builds a complete in-process backend over a SQLite file. The returned
// UserDB is also handed back so callers can confirm accounts.
func Open(cfg BackendConfig, store auth.SessionStore) (*repository.Backend, *UserDB, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return nil, nil, err
	}

	db, err := New(cfg.Path)
	if err != nil {
		return nil, nil, err
	}

	passwords := cfg.Passwords
	if passwords == nil {
		passwords = auth.NewPasswordService()
	}
	users := db.Users(passwords, tokens, cfg.AutoConfirm)

	return &repository.Backend{
		Auth:    NewAuthClient(users, store),
		Rooms:   db.Rooms(),
		Members: db.Members(),
		Items:   db.Items(),
		Storage: db.Objects(cfg.PublicURL),
		Close:   db.Close,
	}, users, nil
}
