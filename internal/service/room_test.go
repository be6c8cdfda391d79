package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/model"
)

func fixedCode(code string) CodeGenerator {
	return func() (string, error) { return code, nil }
}

func newRoomService(who Identity) (*RoomService, *mockRooms, *mockMembers) {
	rooms := &mockRooms{}
	members := &mockMembers{}
	return NewRoomService(rooms, members, who, fixedCode("482913"), discardLogger()), rooms, members
}

func garage() *model.Room {
	return &model.Room{
		ID:        uuid.MustParse("11111111-2222-4333-8444-555555555555"),
		Code:      "482913",
		Name:      "Garage",
		Password:  "pw1",
		CreatedBy: alice.ID,
	}
}

func TestRandomCode_SixDigitsInRange(t *testing.T) {
	re := regexp.MustCompile(`^[1-9][0-9]{5}$`)
	for range 1000 {
		code, err := RandomCode()
		require.NoError(t, err)
		assert.Regexp(t, re, code)
	}
}

func TestRoomService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts room then creator membership", func(t *testing.T) {
		svc, rooms, members := newRoomService(signedInAlice)
		room := garage()

		rooms.On("Create", ctx, mock.MatchedBy(func(r *model.NewRoom) bool {
			return r.Code == "482913" && r.Name == "Garage" && r.Password == "pw1" &&
				r.CreatedBy == alice.ID && !r.Address.Present()
		})).Return(room, nil).Once()
		members.On("Add", ctx, &model.Membership{RoomID: room.ID, UserID: alice.ID, Role: model.RoleCreator}).
			Return(&model.Membership{}, nil).Once()

		got, err := svc.Create(ctx, CreateRoomInput{Name: "  Garage ", Password: "pw1", Address: model.Some("  ")})
		require.NoError(t, err)
		assert.Equal(t, "482913", got.Code)
		rooms.AssertExpectations(t)
		members.AssertExpectations(t)
	})

	t.Run("membership failure keeps the room", func(t *testing.T) {
		svc, rooms, members := newRoomService(signedInAlice)
		room := garage()
		cause := errors.New("insert failed")

		rooms.On("Create", ctx, mock.Anything).Return(room, nil)
		members.On("Add", ctx, mock.Anything).Return(nil, cause)

		got, err := svc.Create(ctx, CreateRoomInput{Name: "Garage", Password: "pw1"})
		require.Error(t, err)
		assert.Same(t, room, got)
		assert.ErrorIs(t, err, ErrPartialRoomCreate)
		assert.ErrorIs(t, err, cause)

		var partial *PartialCreateError
		require.ErrorAs(t, err, &partial)
		assert.Equal(t, room.ID, partial.Room.ID)
		rooms.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("room insert failure skips membership", func(t *testing.T) {
		svc, rooms, members := newRoomService(signedInAlice)
		rooms.On("Create", ctx, mock.Anything).Return(nil, errors.New("boom"))

		got, err := svc.Create(ctx, CreateRoomInput{Name: "Garage"})
		require.Error(t, err)
		assert.Nil(t, got)
		assert.NotErrorIs(t, err, ErrPartialRoomCreate)
		members.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			in   CreateRoomInput
		}{
			{"empty name", CreateRoomInput{Name: "   "}},
			{"half a location", CreateRoomInput{Name: "Garage", Latitude: model.Some(1.0)}},
			{"latitude out of range", CreateRoomInput{Name: "Garage", Latitude: model.Some(91.0), Longitude: model.Some(0.0)}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc, rooms, _ := newRoomService(signedInAlice)
				_, err := svc.Create(ctx, tt.in)
				assert.ErrorIs(t, err, apperror.ErrValidation)
				rooms.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("signed out", func(t *testing.T) {
		svc, _, _ := newRoomService(signedOut)
		_, err := svc.Create(ctx, CreateRoomInput{Name: "Garage"})
		assert.ErrorIs(t, err, ErrNotSignedIn)
	})
}

func TestRoomService_Join(t *testing.T) {
	ctx := context.Background()

	t.Run("adds one Member row", func(t *testing.T) {
		svc, rooms, members := newRoomService(signedInBob)
		room := garage()
		rooms.On("FindByCredentials", ctx, "482913", "pw1").Return(room, nil)
		members.On("Add", ctx, &model.Membership{RoomID: room.ID, UserID: bob.ID, Role: model.RoleMember}).
			Return(&model.Membership{}, nil).Once()

		res, err := svc.Join(ctx, " 482913 ", "pw1")
		require.NoError(t, err)
		assert.Equal(t, "Garage", res.Room.Name)
		assert.NoError(t, res.MembershipErr)
		members.AssertNumberOfCalls(t, "Add", 1)
	})

	t.Run("wrong password writes nothing", func(t *testing.T) {
		svc, rooms, members := newRoomService(signedInBob)
		rooms.On("FindByCredentials", ctx, "482913", "wrong").
			Return(nil, apperror.NotFound("room", "482913"))

		res, err := svc.Join(ctx, "482913", "wrong")
		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrInvalidRoomCredentials)
		assert.EqualError(t, err, "Invalid room code or password.")
		members.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	})

	t.Run("membership failure still joins", func(t *testing.T) {
		svc, rooms, members := newRoomService(signedInBob)
		rooms.On("FindByCredentials", ctx, "482913", "pw1").Return(garage(), nil)
		members.On("Add", ctx, mock.Anything).Return(nil, apperror.Conflict("room_members", "dup"))

		res, err := svc.Join(ctx, "482913", "pw1")
		require.NoError(t, err)
		assert.Equal(t, "Garage", res.Room.Name)
		assert.ErrorIs(t, res.MembershipErr, apperror.ErrConflict)
	})

	t.Run("backend failure is not reported as bad credentials", func(t *testing.T) {
		svc, rooms, _ := newRoomService(signedInBob)
		rooms.On("FindByCredentials", ctx, "482913", "pw1").Return(nil, errors.New("connection refused"))

		_, err := svc.Join(ctx, "482913", "pw1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidRoomCredentials)
	})

	t.Run("empty code", func(t *testing.T) {
		svc, rooms, _ := newRoomService(signedInBob)
		_, err := svc.Join(ctx, "  ", "pw1")
		assert.ErrorIs(t, err, apperror.ErrValidation)
		rooms.AssertNotCalled(t, "FindByCredentials", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty password is matched by the backend", func(t *testing.T) {
		svc, rooms, members := newRoomService(signedInBob)
		room := garage()
		room.Password = ""
		rooms.On("FindByCredentials", ctx, "482913", "").Return(room, nil)
		members.On("Add", ctx, mock.Anything).Return(&model.Membership{}, nil).Once()

		res, err := svc.Join(ctx, "482913", "")
		require.NoError(t, err)
		assert.Equal(t, "Garage", res.Room.Name)
		members.AssertNumberOfCalls(t, "Add", 1)
	})
}

func TestRoomService_Lists(t *testing.T) {
	ctx := context.Background()
	svc, rooms, members := newRoomService(signedInBob)

	rooms.On("ListByCreator", ctx, bob.ID).Return([]model.Room{}, nil)
	members.On("ListJoined", ctx, bob.ID, model.RoleMember).
		Return([]model.JoinedRoom{{Role: model.RoleMember, Room: *garage()}}, nil)

	created, err := svc.ListCreated(ctx)
	require.NoError(t, err)
	assert.Empty(t, created)

	joined, err := svc.ListJoined(ctx)
	require.NoError(t, err)
	require.Len(t, joined, 1)
	assert.Equal(t, "Garage", joined[0].Room.Name)
}

func TestRoomService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("creator deletes", func(t *testing.T) {
		svc, rooms, _ := newRoomService(signedInAlice)
		room := garage()
		rooms.On("Delete", ctx, room.ID).Return(nil).Once()

		require.NoError(t, svc.Delete(ctx, room))
		rooms.AssertExpectations(t)
	})

	t.Run("non-creator is refused", func(t *testing.T) {
		svc, rooms, _ := newRoomService(signedInBob)

		err := svc.Delete(ctx, garage())
		assert.ErrorIs(t, err, apperror.ErrForbidden)
		rooms.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
