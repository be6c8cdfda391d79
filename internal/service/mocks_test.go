package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/sakif/reclaim/internal/model"
	"github.com/sakif/reclaim/internal/repository"
)

type mockRooms struct{ mock.Mock }

var _ repository.RoomRepository = (*mockRooms)(nil)

func (m *mockRooms) Create(ctx context.Context, room *model.NewRoom) (*model.Room, error) {
	args := m.Called(ctx, room)
	r, _ := args.Get(0).(*model.Room)
	return r, args.Error(1)
}

func (m *mockRooms) ListByCreator(ctx context.Context, userID uuid.UUID) ([]model.Room, error) {
	args := m.Called(ctx, userID)
	r, _ := args.Get(0).([]model.Room)
	return r, args.Error(1)
}

func (m *mockRooms) FindByCredentials(ctx context.Context, code, password string) (*model.Room, error) {
	args := m.Called(ctx, code, password)
	r, _ := args.Get(0).(*model.Room)
	return r, args.Error(1)
}

func (m *mockRooms) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockMembers struct{ mock.Mock }

var _ repository.MembershipRepository = (*mockMembers)(nil)

func (m *mockMembers) Add(ctx context.Context, mem *model.Membership) (*model.Membership, error) {
	args := m.Called(ctx, mem)
	r, _ := args.Get(0).(*model.Membership)
	return r, args.Error(1)
}

func (m *mockMembers) ListJoined(ctx context.Context, userID uuid.UUID, role model.Role) ([]model.JoinedRoom, error) {
	args := m.Called(ctx, userID, role)
	r, _ := args.Get(0).([]model.JoinedRoom)
	return r, args.Error(1)
}

type mockItems struct{ mock.Mock }

var _ repository.ItemRepository = (*mockItems)(nil)

func (m *mockItems) Create(ctx context.Context, item *model.NewItem) (*model.Item, error) {
	args := m.Called(ctx, item)
	r, _ := args.Get(0).(*model.Item)
	return r, args.Error(1)
}

func (m *mockItems) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]model.Item, error) {
	args := m.Called(ctx, roomID)
	r, _ := args.Get(0).([]model.Item)
	return r, args.Error(1)
}

func (m *mockItems) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockStorage struct{ mock.Mock }

var _ repository.ObjectStorage = (*mockStorage)(nil)

func (m *mockStorage) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	return m.Called(ctx, bucket, path, data, contentType).Error(0)
}

func (m *mockStorage) PublicURL(bucket, path string) (string, error) {
	args := m.Called(bucket, path)
	return args.String(0), args.Error(1)
}

// fixedIdentity is an Identity that always reports the same user.
type fixedIdentity struct {
	user model.User
	ok   bool
}

func (f fixedIdentity) User() (model.User, bool) { return f.user, f.ok }

var (
	alice = model.User{ID: uuid.MustParse("7f1f1c1e-0b8e-4d5c-9a57-3c1f1a2b4d10"), Email: "a@x.com"}
	bob   = model.User{ID: uuid.MustParse("0c2b3a44-5e66-4d77-8899-aabbccddeeff"), Email: "b@x.com"}

	signedInAlice = fixedIdentity{user: alice, ok: true}
	signedInBob   = fixedIdentity{user: bob, ok: true}
	signedOut     = fixedIdentity{}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
