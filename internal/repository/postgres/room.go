package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/model"
	"github.com/sakif/reclaim/internal/repository"
)

var _ repository.RoomRepository = (*RoomRepository)(nil)

// RoomRepository is the rooms table.
type RoomRepository struct {
	db *sql.DB
}

func NewRoomRepository(db *sql.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

const roomColumns = `id, room_code, name, password, created_by, expires_at, address, location_lat, location_lng`

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

func (r *RoomRepository) Create(ctx context.Context, in *model.NewRoom) (*model.Room, error) {
	query := `
		INSERT INTO rooms (room_code, name, password, created_by, expires_at, address, location_lat, location_lng)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + roomColumns

	room := &model.Room{}
	err := scanRoom(r.db.QueryRowContext(ctx, query,
		in.Code,
		in.Name,
		in.Password,
		in.CreatedBy,
		in.ExpiresAt,
		in.Address,
		in.Latitude,
		in.Longitude,
	), room)
	if err != nil {
		return nil, translate("creating room", err)
	}
	return room, nil
}

func (r *RoomRepository) ListByCreator(ctx context.Context, userID uuid.UUID) ([]model.Room, error) {
	return r.list(ctx, `
		SELECT `+roomColumns+`
		FROM rooms
		WHERE created_by = $1
		ORDER BY created_at DESC`, userID)
}

// FindByCredentials matches on code and password; anything but exactly one
// row is not found.
func (r *RoomRepository) FindByCredentials(ctx context.Context, code, password string) (*model.Room, error) {
	rooms, err := r.list(ctx, `
		SELECT `+roomColumns+`
		FROM rooms
		WHERE room_code = $1 AND password = $2
		LIMIT 2`, code, password)
	if err != nil {
		return nil, err
	}
	if len(rooms) != 1 {
		return nil, apperror.NotFound("room", code)
	}
	return &rooms[0], nil
}

func (r *RoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id); err != nil {
		return translate("deleting room", err)
	}
	return nil
}

func (r *RoomRepository) list(ctx context.Context, query string, args ...any) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate("listing rooms", err)
	}
	defer rows.Close()

	rooms := []model.Room{}
	for rows.Next() {
		var room model.Room
		if err := scanRoom(rows, &room); err != nil {
			return nil, translate("scanning room", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("iterating rooms", err)
	}
	return rooms, nil
}
