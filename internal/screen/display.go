package screen

import (
	"fmt"
	"time"

	"github.com/sakif/reclaim/internal/model"
)

// ExpiryText describes when a room expires.
func ExpiryText(r *model.Room, loc *time.Location) string {
	exp, ok := r.ExpiresAt.Get()
	if !ok {
		return "No expiration set"
	}
	return "Expires: " + exp.In(loc).Format("Jan 2, 2006 at 3:04 PM")
}

// LocationText describes the room's attached coordinates.
func LocationText(r *model.Room) string {
	lat, lng, ok := r.Location()
	if !ok {
		return "No location attached"
	}
	return fmt.Sprintf("Location attached • (%.4f, %.4f)", lat, lng)
}

// CodeText is the join code line.
func CodeText(r *model.Room) string {
	return "Room code: " + r.Code
}
