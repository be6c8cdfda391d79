package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/model"
)

func TestRoomCreate_OptionalColumns(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "a@x.com")
	ctx := context.Background()
	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

	created, err := db.Rooms().Create(ctx, &model.NewRoom{
		Code:      "482913",
		Name:      "Garage",
		Password:  "pw1",
		CreatedBy: owner.ID,
		ExpiresAt: model.Some(expires),
		Address:   model.Some("1 Main St"),
		Latitude:  model.Some(51.5),
		Longitude: model.Some(-0.12),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	got, err := db.Rooms().Get(ctx, created.ID)
	require.NoError(t, err)
	exp, ok := got.ExpiresAt.Get()
	require.True(t, ok)
	assert.True(t, expires.Equal(exp))
	assert.Equal(t, "1 Main St", got.Address.OrElse(""))
	lat, lng, ok := got.Location()
	require.True(t, ok)
	assert.InDelta(t, 51.5, lat, 1e-9)
	assert.InDelta(t, -0.12, lng, 1e-9)

	bare := createTestRoom(t, db, owner, "111111", "Attic", "")
	got, err = db.Rooms().Get(ctx, bare.ID)
	require.NoError(t, err)
	assert.False(t, got.ExpiresAt.Present())
	assert.False(t, got.Address.Present())
	_, _, ok = got.Location()
	assert.False(t, ok)
}

func TestFindByCredentials(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "a@x.com")
	ctx := context.Background()
	room := createTestRoom(t, db, owner, "482913", "Garage", "pw1")

	got, err := db.Rooms().FindByCredentials(ctx, "482913", "pw1")
	require.NoError(t, err)
	assert.Equal(t, room.ID, got.ID)

	_, err = db.Rooms().FindByCredentials(ctx, "482913", "wrong")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = db.Rooms().FindByCredentials(ctx, "000000", "pw1")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	// Two rooms sharing code and password are ambiguous.
	createTestRoom(t, db, owner, "482913", "Shed", "pw1")
	_, err = db.Rooms().FindByCredentials(ctx, "482913", "pw1")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestMembers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "a@x.com")
	joiner := createTestUser(t, db, "b@x.com")
	room := createTestRoom(t, db, owner, "482913", "Garage", "pw1")

	_, err := db.Members().Add(ctx, &model.Membership{RoomID: room.ID, UserID: owner.ID, Role: model.RoleCreator})
	require.NoError(t, err)
	_, err = db.Members().Add(ctx, &model.Membership{RoomID: room.ID, UserID: joiner.ID, Role: model.RoleMember})
	require.NoError(t, err)

	t.Run("duplicate join conflicts", func(t *testing.T) {
		_, err := db.Members().Add(ctx, &model.Membership{RoomID: room.ID, UserID: joiner.ID, Role: model.RoleMember})
		assert.ErrorIs(t, err, apperror.ErrConflict)

		n, err := db.Members().Count(ctx, room.ID, uuid.NullUUID{UUID: joiner.ID, Valid: true})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("joined lists only Member rows", func(t *testing.T) {
		joined, err := db.Members().ListJoined(ctx, joiner.ID, model.RoleMember)
		require.NoError(t, err)
		require.Len(t, joined, 1)
		assert.Equal(t, model.RoleMember, joined[0].Role)
		assert.Equal(t, "Garage", joined[0].Room.Name)

		joined, err = db.Members().ListJoined(ctx, owner.ID, model.RoleMember)
		require.NoError(t, err)
		assert.Empty(t, joined)
	})

	t.Run("unknown room is a foreign key conflict", func(t *testing.T) {
		_, err := db.Members().Add(ctx, &model.Membership{RoomID: uuid.New(), UserID: joiner.ID, Role: model.RoleMember})
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := db.Members().Add(ctx, &model.Membership{RoomID: room.ID, UserID: joiner.ID, Role: "Owner"})
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})
}

func TestRoomDelete_Cascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "a@x.com")
	joiner := createTestUser(t, db, "b@x.com")
	room := createTestRoom(t, db, owner, "482913", "Garage", "pw1")

	_, err := db.Members().Add(ctx, &model.Membership{RoomID: room.ID, UserID: joiner.ID, Role: model.RoleMember})
	require.NoError(t, err)
	_, err = db.Items().Create(ctx, &model.NewItem{RoomID: room.ID, CreatedBy: owner.ID, Title: "Keys"})
	require.NoError(t, err)

	require.NoError(t, db.Rooms().Delete(ctx, room.ID))

	created, err := db.Rooms().ListByCreator(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, created)

	items, err := db.Items().ListByRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	n, err := db.Members().Count(ctx, room.ID, uuid.NullUUID{})
	require.NoError(t, err)
	assert.Zero(t, n)

	t.Run("adding to a deleted room fails", func(t *testing.T) {
		_, err := db.Items().Create(ctx, &model.NewItem{RoomID: room.ID, CreatedBy: owner.ID, Title: "Late"})
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})

	t.Run("deleting again is a no-op", func(t *testing.T) {
		assert.NoError(t, db.Rooms().Delete(ctx, room.ID))
	})
}
