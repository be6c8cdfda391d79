package model

import (
	"time"

	"github.com/google/uuid"
)

// Item is a lost-item listing, a row of the `items` table.
// CreatedAt is assigned by the backend.
type Item struct {
	ID          uuid.UUID        `json:"id"`
	RoomID      uuid.UUID        `json:"room_id"`
	CreatedBy   uuid.UUID        `json:"created_by"`
	Title       string           `json:"title"`
	Description Optional[string] `json:"description"`
	ImageURL    Optional[string] `json:"image_url"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NewItem is the insert payload for the `items` table.
type NewItem struct {
	RoomID      uuid.UUID        `json:"room_id"`
	CreatedBy   uuid.UUID        `json:"created_by"`
	Title       string           `json:"title"`
	Description Optional[string] `json:"description,omitzero"`
	ImageURL    Optional[string] `json:"image_url,omitzero"`
}
