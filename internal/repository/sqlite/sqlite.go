// Package sqlite is the embedded backend: the three tables, the accounts
// behind the auth API and the photo bucket, all in one SQLite file.
//
// It backs the "local" backend mode of the CLI and the emulator server.
// modernc.org/sqlite is pure Go, so no C toolchain is needed.
//
// Use ":memory:" for a throwaway database in tests.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/reclaim/internal/apperror"
)

// DB wraps the connection pool. Table access goes through the typed views
// returned by Rooms, Members, Items, Objects and Users.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// PRAGMAs are per connection and ":memory:" databases are per connection
	// too, so the pool is pinned to one.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Room deletion relies on ON DELETE CASCADE, which needs this.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			confirmed_at  DATETIME,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS refresh_tokens (
			token      TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			revoked    INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON refresh_tokens(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating auth tables: %w", err)
	}

	// room_code is deliberately not UNIQUE; collisions are possible.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS rooms (
			id           TEXT PRIMARY KEY,
			room_code    TEXT NOT NULL,
			name         TEXT NOT NULL,
			password     TEXT NOT NULL DEFAULT '',
			created_by   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			expires_at   DATETIME,
			address      TEXT,
			location_lat REAL,
			location_lng REAL,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_rooms_created_by ON rooms(created_by);
		CREATE INDEX IF NOT EXISTS idx_rooms_room_code ON rooms(room_code);

		CREATE TABLE IF NOT EXISTS room_members (
			room_id    TEXT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role       TEXT NOT NULL CHECK (role IN ('Creator', 'Member')),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (room_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_room_members_user_id ON room_members(user_id);

		CREATE TABLE IF NOT EXISTS items (
			id          TEXT PRIMARY KEY,
			room_id     TEXT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
			created_by  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title       TEXT NOT NULL,
			description TEXT,
			image_url   TEXT,
			created_at  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_items_room_id_created_at ON items(room_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating room tables: %w", err)
	}

	// Objects are not tied to items; deleting an item leaves its photo here.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS objects (
			bucket       TEXT NOT NULL,
			path         TEXT NOT NULL,
			content_type TEXT NOT NULL,
			data         BLOB NOT NULL,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (bucket, path)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating objects table: %w", err)
	}

	return nil
}

// translate maps constraint violations to apperror kinds and wraps
// everything else with op.
func translate(op string, err error) error {
	var se *sqlitedriver.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return apperror.Wrap(apperror.ErrConflict, "duplicate key value violates unique constraint")
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return apperror.Wrap(apperror.ErrConflict, "insert or update violates foreign key constraint")
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return apperror.ValidationFailed("", "new row violates check constraint")
		}
	}
	return fmt.Errorf("sqlite: %s: %w", op, err)
}
