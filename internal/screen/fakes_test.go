package screen

import (
	"context"

	"github.com/google/uuid"

	"github.com/sakif/reclaim/internal/model"
	"github.com/sakif/reclaim/internal/service"
	"github.com/sakif/reclaim/internal/session"
)

// fakeAuth records calls and returns whatever its funcs return.
type fakeAuth struct {
	calls   int
	signIn  func(email, password string) error
	signUp  func(email, password string) (session.SignUpOutcome, error)
	signOut func() error
}

func (f *fakeAuth) SignIn(_ context.Context, email, password string) error {
	f.calls++
	return f.signIn(email, password)
}

func (f *fakeAuth) SignUp(_ context.Context, email, password string) (session.SignUpOutcome, error) {
	f.calls++
	return f.signUp(email, password)
}

func (f *fakeAuth) SignOut(context.Context) error {
	f.calls++
	return f.signOut()
}

type fakeRooms struct {
	calls       int
	create      func(service.CreateRoomInput) (*model.Room, error)
	join        func(code, password string) (*service.JoinResult, error)
	listCreated func() ([]model.Room, error)
	listJoined  func() ([]model.JoinedRoom, error)
	deleted     []uuid.UUID
	deleteErr   error
}

func (f *fakeRooms) Create(_ context.Context, in service.CreateRoomInput) (*model.Room, error) {
	f.calls++
	return f.create(in)
}

func (f *fakeRooms) Join(_ context.Context, code, password string) (*service.JoinResult, error) {
	f.calls++
	return f.join(code, password)
}

func (f *fakeRooms) ListCreated(context.Context) ([]model.Room, error) {
	f.calls++
	return f.listCreated()
}

func (f *fakeRooms) ListJoined(context.Context) ([]model.JoinedRoom, error) {
	f.calls++
	return f.listJoined()
}

func (f *fakeRooms) Delete(_ context.Context, room *model.Room) error {
	f.calls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, room.ID)
	return nil
}

type fakeItems struct {
	calls     int
	add       func(roomID uuid.UUID, in service.NewItemInput) (*model.Item, error)
	list      func(roomID uuid.UUID) ([]model.Item, error)
	deleteErr error
}

func (f *fakeItems) Add(_ context.Context, roomID uuid.UUID, in service.NewItemInput) (*model.Item, error) {
	f.calls++
	return f.add(roomID, in)
}

func (f *fakeItems) List(_ context.Context, roomID uuid.UUID) ([]model.Item, error) {
	f.calls++
	return f.list(roomID)
}

func (f *fakeItems) Delete(context.Context, *model.Room, uuid.UUID) error {
	f.calls++
	return f.deleteErr
}
