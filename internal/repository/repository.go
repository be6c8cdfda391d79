// Package repository declares the backend surface the application consumes:
// an auth API, three tables and an object store. Implementations live in the
// sub-packages (supabase, postgres, sqlite); services depend only on these
// interfaces.
package repository

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/model"
)

// PhotoBucket is the default storage bucket for item photos.
const PhotoBucket = "item-photos"

// ErrNoSession is returned by CurrentSession when the device has no live session.
var ErrNoSession = apperror.Unauthorized("no active session")

// Session is a live authentication session: who is signed in and the bearer
// token the backend issued for them.
type Session struct {
	User  model.User    `json:"user"`
	Token *oauth2.Token `json:"token"`
}

// AuthProvider is the backend's auth API.
type AuthProvider interface {
	// SignUp registers an account. A nil Session with a nil error means the
	// backend accepted the account but requires email confirmation first.
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	// CurrentSession returns the session persisted for this device, or
	// ErrNoSession.
	CurrentSession(ctx context.Context) (*Session, error)
}

// RoomRepository is the `rooms` table.
type RoomRepository interface {
	Create(ctx context.Context, room *model.NewRoom) (*model.Room, error)
	ListByCreator(ctx context.Context, userID uuid.UUID) ([]model.Room, error)
	// FindByCredentials returns the single room whose code and password both
	// match. Zero or several matches are apperror.ErrNotFound.
	FindByCredentials(ctx context.Context, code, password string) (*model.Room, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// MembershipRepository is the `room_members` table.
type MembershipRepository interface {
	Add(ctx context.Context, m *model.Membership) (*model.Membership, error)
	// ListJoined returns the user's memberships with the given role, each
	// with its room embedded.
	ListJoined(ctx context.Context, userID uuid.UUID, role model.Role) ([]model.JoinedRoom, error)
}

// ItemRepository is the `items` table.
type ItemRepository interface {
	Create(ctx context.Context, item *model.NewItem) (*model.Item, error)
	// ListByRoom returns the room's items, newest first.
	ListByRoom(ctx context.Context, roomID uuid.UUID) ([]model.Item, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ObjectStorage is the backend's bucket storage.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error
	PublicURL(bucket, path string) (string, error)
}

// Backend bundles one implementation of every collaborator. The root
// composition builds it once and hands the parts to services.
type Backend struct {
	Auth    AuthProvider
	Rooms   RoomRepository
	Members MembershipRepository
	Items   ItemRepository
	Storage ObjectStorage

	// Close releases connections held by the backend, if any.
	Close func() error
}
