package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the relation between a user and a room.
type Role string

const (
	RoleCreator Role = "Creator"
	RoleMember  Role = "Member"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleCreator || r == RoleMember
}

// Room is a row of the `rooms` table.
//
// Code is a 6-digit join code. It is meant to be unique among active rooms but
// nothing on the client enforces that. Password is stored and compared as
// plaintext by the backend; it only gates joining.
type Room struct {
	ID        uuid.UUID           `json:"id"`
	Code      string              `json:"room_code"`
	Name      string              `json:"name"`
	Password  string              `json:"password"`
	CreatedBy uuid.UUID           `json:"created_by"`
	ExpiresAt Optional[time.Time] `json:"expires_at"`
	Address   Optional[string]    `json:"address"`
	Latitude  Optional[float64]   `json:"location_lat"`
	Longitude Optional[float64]   `json:"location_lng"`
}

// NewRoom is the insert payload for the `rooms` table. Absent optionals are
// left out of the body so a table without those columns still accepts it.
type NewRoom struct {
	Code      string              `json:"room_code"`
	Name      string              `json:"name"`
	Password  string              `json:"password"`
	CreatedBy uuid.UUID           `json:"created_by"`
	ExpiresAt Optional[time.Time] `json:"expires_at,omitzero"`
	Address   Optional[string]    `json:"address,omitzero"`
	Latitude  Optional[float64]   `json:"location_lat,omitzero"`
	Longitude Optional[float64]   `json:"location_lng,omitzero"`
}

// Expired reports whether the room has an expiry that lies before now.
// Expiry is informational only; joining an expired room is not blocked.
func (r *Room) Expired(now time.Time) bool {
	exp, ok := r.ExpiresAt.Get()
	return ok && exp.Before(now)
}

// Location returns the coordinate pair when both halves are present.
func (r *Room) Location() (lat, lng float64, ok bool) {
	lat, latOK := r.Latitude.Get()
	lng, lngOK := r.Longitude.Get()
	if !latOK || !lngOK {
		return 0, 0, false
	}
	return lat, lng, true
}

// Membership is a row of the `room_members` table.
type Membership struct {
	RoomID uuid.UUID `json:"room_id"`
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
}

// JoinedRoom is a membership row with its room embedded, the shape returned
// by selecting `role,rooms(*)` from `room_members`.
type JoinedRoom struct {
	Role Role `json:"role"`
	Room Room `json:"rooms"`
}
