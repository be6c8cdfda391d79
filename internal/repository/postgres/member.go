package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/sakif/reclaim/internal/model"
	"github.com/sakif/reclaim/internal/repository"
)

var _ repository.MembershipRepository = (*MembershipRepository)(nil)

// MembershipRepository is the room_members table.
type MembershipRepository struct {
	db *sql.DB
}

func NewMembershipRepository(db *sql.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (m *MembershipRepository) Add(ctx context.Context, in *model.Membership) (*model.Membership, error) {
	out := &model.Membership{}
	var role string
	err := m.db.QueryRowContext(ctx, `
		INSERT INTO room_members (room_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING room_id, user_id, role`,
		in.RoomID, in.UserID, string(in.Role),
	).Scan(&out.RoomID, &out.UserID, &role)
	if err != nil {
		return nil, translate("adding membership", err)
	}
	out.Role = model.Role(role)
	return out, nil
}

func (m *MembershipRepository) ListJoined(ctx context.Context, userID uuid.UUID, role model.Role) ([]model.JoinedRoom, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT m.role, r.id, r.room_code, r.name, r.password, r.created_by,
		       r.expires_at, r.address, r.location_lat, r.location_lng
		FROM room_members m
		JOIN rooms r ON r.id = m.room_id
		WHERE m.user_id = $1 AND m.role = $2
		ORDER BY m.created_at DESC`,
		userID, string(role),
	)
	if err != nil {
		return nil, translate("listing joined rooms", err)
	}
	defer rows.Close()

	joined := []model.JoinedRoom{}
	for rows.Next() {
		var (
			j    model.JoinedRoom
			role string
		)
		r := &j.Room
		if err := rows.Scan(
			&role,
			&r.ID, &r.Code, &r.Name, &r.Password, &r.CreatedBy,
			&r.ExpiresAt, &r.Address, &r.Latitude, &r.Longitude,
		); err != nil {
			return nil, translate("scanning joined room", err)
		}
		j.Role = model.Role(role)
		joined = append(joined, j)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("iterating joined rooms", err)
	}
	return joined, nil
}
