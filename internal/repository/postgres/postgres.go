// Package postgres implements the three table repositories directly against
// the Postgres database behind the hosted backend, bypassing its REST layer.
//
// Auth and storage still go through the hosted API; only rooms, room_members
// and items are read and written here.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/sakif/reclaim/internal/apperror"
)

// Schema creates the tables with the constraints the application relies on:
// cascading deletes from rooms and one membership per user and room.
// room_code is intentionally not unique.
const Schema = `
CREATE TABLE IF NOT EXISTS rooms (
	id           uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	room_code    text NOT NULL,
	name         text NOT NULL,
	password     text NOT NULL DEFAULT '',
	created_by   uuid NOT NULL,
	expires_at   timestamptz,
	address      text,
	location_lat double precision,
	location_lng double precision,
	created_at   timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_rooms_created_by ON rooms(created_by);
CREATE INDEX IF NOT EXISTS idx_rooms_room_code ON rooms(room_code);

CREATE TABLE IF NOT EXISTS room_members (
	room_id    uuid NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
	user_id    uuid NOT NULL,
	role       text NOT NULL CHECK (role IN ('Creator', 'Member')),
	created_at timestamptz NOT NULL DEFAULT now(),
	UNIQUE (room_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_room_members_user_id ON room_members(user_id);

CREATE TABLE IF NOT EXISTS items (
	id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	room_id     uuid NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
	created_by  uuid NOT NULL,
	title       text NOT NULL,
	description text,
	image_url   text,
	created_at  timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_items_room_id_created_at ON items(room_id, created_at DESC);
`

// Connect opens a pool to databaseURL and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: opening database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}
	return db, nil
}

// Migrate applies Schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("postgres: applying schema: %w", err)
	}
	return nil
}

// SQLSTATE codes this package maps.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeInvalidText         = "22P02"
)

// translate maps Postgres errors to apperror kinds and wraps everything else
// with op.
func translate(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation, codeForeignKeyViolation:
			return apperror.Wrap(apperror.ErrConflict, pqErr.Message)
		case codeCheckViolation, codeInvalidText:
			return apperror.ValidationFailed(pqErr.Column, pqErr.Message)
		}
	}
	return fmt.Errorf("postgres: %s: %w", op, err)
}
