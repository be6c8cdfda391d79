package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/model"
	"github.com/sakif/reclaim/internal/repository"
)

var _ repository.RoomRepository = (*RoomDB)(nil)

// RoomDB is the rooms table.
type RoomDB struct {
	db *DB
}

func (db *DB) Rooms() *RoomDB {
	return &RoomDB{db: db}
}

const roomColumns = `id, room_code, name, password, created_by, expires_at, address, location_lat, location_lng`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRoom(s scanner, r *model.Room) error {
	return s.Scan(
		&r.ID,
		&r.Code,
		&r.Name,
		&r.Password,
		&r.CreatedBy,
		&r.ExpiresAt,
		&r.Address,
		&r.Latitude,
		&r.Longitude,
	)
}

func (r *RoomDB) Create(ctx context.Context, in *model.NewRoom) (*model.Room, error) {
	room := &model.Room{
		ID:        uuid.New(),
		Code:      in.Code,
		Name:      in.Name,
		Password:  in.Password,
		CreatedBy: in.CreatedBy,
		ExpiresAt: utcOptional(in.ExpiresAt),
		Address:   in.Address,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
	}

	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO rooms (`+roomColumns+`, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		room.ID,
		room.Code,
		room.Name,
		room.Password,
		room.CreatedBy,
		room.ExpiresAt,
		room.Address,
		room.Latitude,
		room.Longitude,
		time.Now().UTC(),
	)
	if err != nil {
		return nil, translate("creating room", err)
	}
	return room, nil
}

func (r *RoomDB) ListByCreator(ctx context.Context, userID uuid.UUID) ([]model.Room, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE created_by = ? ORDER BY created_at DESC, rowid DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing rooms: %w", err)
	}
	defer rows.Close()

	rooms := []model.Room{}
	for rows.Next() {
		var room model.Room
		if err := scanRoom(rows, &room); err != nil {
			return nil, fmt.Errorf("sqlite: scanning room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating rooms: %w", err)
	}
	return rooms, nil
}

// FindByCredentials fetches up to two candidates so an ambiguous code is
// reported the same way as a missing one.
func (r *RoomDB) FindByCredentials(ctx context.Context, code, password string) (*model.Room, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE room_code = ? AND password = ? LIMIT 2`,
		code, password,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: finding room: %w", err)
	}
	defer rows.Close()

	var matches []model.Room
	for rows.Next() {
		var room model.Room
		if err := scanRoom(rows, &room); err != nil {
			return nil, fmt.Errorf("sqlite: scanning room: %w", err)
		}
		matches = append(matches, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating rooms: %w", err)
	}
	if len(matches) != 1 {
		return nil, apperror.NotFound("room", code)
	}
	return &matches[0], nil
}

// Get fetches one room by id.
func (r *RoomDB) Get(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	var room model.Room
	err := scanRoom(r.db.conn.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id,
	), &room)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("room", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting room %s: %w", id, err)
	}
	return &room, nil
}

// Delete removes the room; members and items follow via ON DELETE CASCADE.
// Deleting a missing id is not an error, matching a filtered DELETE.
func (r *RoomDB) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.conn.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting room %s: %w", id, err)
	}
	return nil
}

func utcOptional(t model.Optional[time.Time]) model.Optional[time.Time] {
	if v, ok := t.Get(); ok {
		return model.Some(v.UTC())
	}
	return t
}
