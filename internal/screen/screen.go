// Package screen holds the view models behind each screen of the app: the
// fields a user fills in, whether the form can be submitted, and the text
// shown after an action.
//
// Screens never let an error escape as anything but display text: every
// failure returned from a screen is a *Failure whose Error() is the message
// to put on screen. A screen runs one action at a time; starting a second
// while one is in flight returns ErrBusy without touching the backend.
package screen

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/model"
	"github.com/sakif/reclaim/internal/service"
	"github.com/sakif/reclaim/internal/session"
)

// ErrBusy is returned when an action starts while another is in flight.
var ErrBusy = errors.New("screen: another request is in progress")

// Authenticator is the sign-in surface. *session.Flow implements it.
type Authenticator interface {
	SignUp(ctx context.Context, email, password string) (session.SignUpOutcome, error)
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
}

// RoomActions is the room surface. *service.RoomService implements it.
type RoomActions interface {
	Create(ctx context.Context, in service.CreateRoomInput) (*model.Room, error)
	Join(ctx context.Context, code, password string) (*service.JoinResult, error)
	ListCreated(ctx context.Context) ([]model.Room, error)
	ListJoined(ctx context.Context) ([]model.JoinedRoom, error)
	Delete(ctx context.Context, room *model.Room) error
}

// ItemActions is the item surface. *service.ItemService implements it.
type ItemActions interface {
	Add(ctx context.Context, roomID uuid.UUID, in service.NewItemInput) (*model.Item, error)
	List(ctx context.Context, roomID uuid.UUID) ([]model.Item, error)
	Delete(ctx context.Context, room *model.Room, itemID uuid.UUID) error
}

var (
	_ Authenticator = (*session.Flow)(nil)
	_ RoomActions   = (*service.RoomService)(nil)
	_ ItemActions   = (*service.ItemService)(nil)
)

// Failure is an error as it appears on screen.
type Failure struct {
	Text string
	Err  error
}

func (f *Failure) Error() string { return f.Text }
func (f *Failure) Unwrap() error { return f.Err }

// failed renders err as "Failed to <action>: <reason>".
func failed(action string, err error) *Failure {
	return &Failure{Text: "Failed to " + action + ": " + reason(err), Err: err}
}

// plain shows the reason alone. Used for auth and validation messages,
// which are already written for the user.
func plain(err error) *Failure {
	return &Failure{Text: reason(err), Err: err}
}

// reason prefers the user-facing message of an AppError over the wrapped
// error chain.
func reason(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}

// userFacing reports whether err already reads as a message for the user.
func userFacing(err error) bool {
	return errors.Is(err, apperror.ErrValidation) || errors.Is(err, apperror.ErrUnauthorized)
}

// guard is a screen's busy flag.
type guard struct {
	busy atomic.Bool
}

// Busy reports whether an action is in flight.
func (g *guard) Busy() bool { return g.busy.Load() }

func (g *guard) acquire() bool { return g.busy.CompareAndSwap(false, true) }
func (g *guard) release()      { g.busy.Store(false) }
