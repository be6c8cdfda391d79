package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/model"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unique", &pq.Error{Code: codeUniqueViolation, Message: "duplicate key"}, apperror.ErrConflict},
		{"foreign key", &pq.Error{Code: codeForeignKeyViolation, Message: "violates foreign key"}, apperror.ErrConflict},
		{"check", &pq.Error{Code: codeCheckViolation, Column: "role"}, apperror.ErrValidation},
		{"bad uuid", fmt.Errorf("wrapped: %w", &pq.Error{Code: codeInvalidText}), apperror.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translate("op", tt.err), tt.want)
		})
	}

	t.Run("other errors are wrapped", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := translate("listing rooms", cause)
		assert.ErrorIs(t, err, cause)
		assert.EqualError(t, err, "postgres: listing rooms: connection reset")
	})
}

// newTestDB connects to RECLAIM_TEST_DATABASE_URL in a throwaway schema.
// Tests using it are skipped when the variable is unset.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	url := os.Getenv("RECLAIM_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("RECLAIM_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	db, err := Connect(ctx, url)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	schema := "reclaim_test_" + uuid.NewString()[:8]
	_, err = db.ExecContext(ctx, "CREATE SCHEMA "+pq.QuoteIdentifier(schema))
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "SET search_path TO "+pq.QuoteIdentifier(schema))
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, db))

	t.Cleanup(func() {
		db.ExecContext(context.Background(), "DROP SCHEMA "+pq.QuoteIdentifier(schema)+" CASCADE")
		db.Close()
	})
	return db
}

func TestRepositories_Postgres(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	rooms := NewRoomRepository(db)
	members := NewMembershipRepository(db)
	items := NewItemRepository(db)

	owner, joiner := uuid.New(), uuid.New()

	room, err := rooms.Create(ctx, &model.NewRoom{
		Code: "482913", Name: "Garage", Password: "pw1", CreatedBy: owner,
		Address: model.Some("1 Main St"),
	})
	require.NoError(t, err)
	assert.Equal(t, "1 Main St", room.Address.OrElse(""))
	assert.False(t, room.ExpiresAt.Present())

	_, err = rooms.FindByCredentials(ctx, "482913", "wrong")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	found, err := rooms.FindByCredentials(ctx, "482913", "pw1")
	require.NoError(t, err)
	assert.Equal(t, room.ID, found.ID)

	_, err = members.Add(ctx, &model.Membership{RoomID: room.ID, UserID: joiner, Role: model.RoleMember})
	require.NoError(t, err)
	_, err = members.Add(ctx, &model.Membership{RoomID: room.ID, UserID: joiner, Role: model.RoleMember})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	joined, err := members.ListJoined(ctx, joiner, model.RoleMember)
	require.NoError(t, err)
	require.Len(t, joined, 1)
	assert.Equal(t, "Garage", joined[0].Room.Name)

	first, err := items.Create(ctx, &model.NewItem{RoomID: room.ID, CreatedBy: owner, Title: "Keys"})
	require.NoError(t, err)
	assert.False(t, first.ImageURL.Present())
	second, err := items.Create(ctx, &model.NewItem{RoomID: room.ID, CreatedBy: owner, Title: "Umbrella"})
	require.NoError(t, err)

	list, err := items.ListByRoom(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	require.NoError(t, rooms.Delete(ctx, room.ID))
	list, err = items.ListByRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	joined, err = members.ListJoined(ctx, joiner, model.RoleMember)
	require.NoError(t, err)
	assert.Empty(t, joined)
}
