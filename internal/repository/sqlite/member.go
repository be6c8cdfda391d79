package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/model"
	"github.com/sakif/reclaim/internal/repository"
)

var _ repository.MembershipRepository = (*MemberDB)(nil)

// MemberDB is the room_members table.
type MemberDB struct {
	db *DB
}

func (db *DB) Members() *MemberDB {
	return &MemberDB{db: db}
}

// Add inserts a membership. A second row for the same room and user is a
// conflict.
func (m *MemberDB) Add(ctx context.Context, in *model.Membership) (*model.Membership, error) {
	if !in.Role.Valid() {
		return nil, apperror.ValidationFailed("role", fmt.Sprintf("unknown role %q", in.Role))
	}

	_, err := m.db.conn.ExecContext(ctx,
		`INSERT INTO room_members (room_id, user_id, role, created_at) VALUES (?, ?, ?, ?)`,
		in.RoomID, in.UserID, string(in.Role), time.Now().UTC(),
	)
	if err != nil {
		return nil, translate("adding membership", err)
	}

	out := *in
	return &out, nil
}

func (m *MemberDB) ListJoined(ctx context.Context, userID uuid.UUID, role model.Role) ([]model.JoinedRoom, error) {
	rows, err := m.db.conn.QueryContext(ctx,
		`SELECT m.role, r.id, r.room_code, r.name, r.password, r.created_by,
		        r.expires_at, r.address, r.location_lat, r.location_lng
		 FROM room_members m
		 JOIN rooms r ON r.id = m.room_id
		 WHERE m.user_id = ? AND m.role = ?
		 ORDER BY m.created_at DESC, m.rowid DESC`,
		userID, string(role),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing joined rooms: %w", err)
	}
	defer rows.Close()

	joined := []model.JoinedRoom{}
	for rows.Next() {
		var j model.JoinedRoom
		var role string
		r := &j.Room
		if err := rows.Scan(
			&role,
			&r.ID, &r.Code, &r.Name, &r.Password, &r.CreatedBy,
			&r.ExpiresAt, &r.Address, &r.Latitude, &r.Longitude,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning joined room: %w", err)
		}
		j.Role = model.Role(role)
		joined = append(joined, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating joined rooms: %w", err)
	}
	return joined, nil
}

// Count returns how many memberships a room has, optionally for one user.
func (m *MemberDB) Count(ctx context.Context, roomID uuid.UUID, userID uuid.NullUUID) (int, error) {
	var n int
	err := m.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM room_members WHERE room_id = ? AND (? IS NULL OR user_id = ?)`,
		roomID, userID, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting memberships: %w", err)
	}
	return n, nil
}
