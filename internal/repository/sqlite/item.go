package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/model"
	"github.com/sakif/reclaim/internal/repository"
)

var _ repository.ItemRepository = (*ItemDB)(nil)

// ItemDB is the items table.
type ItemDB struct {
	db  *DB
	now func() time.Time
}

func (db *DB) Items() *ItemDB {
	return &ItemDB{db: db, now: time.Now}
}

// Create inserts an item; the id and created_at are assigned here, the way the
// hosted backend's column defaults would.
func (i *ItemDB) Create(ctx context.Context, in *model.NewItem) (*model.Item, error) {
	item := &model.Item{
		ID:          uuid.New(),
		RoomID:      in.RoomID,
		CreatedBy:   in.CreatedBy,
		Title:       in.Title,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		CreatedAt:   i.now().UTC(),
	}

	_, err := i.db.conn.ExecContext(ctx,
		`INSERT INTO items (id, room_id, created_by, title, description, image_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.RoomID,
		item.CreatedBy,
		item.Title,
		item.Description,
		item.ImageURL,
		item.CreatedAt,
	)
	if err != nil {
		return nil, translate("creating item", err)
	}
	return item, nil
}

// ListByRoom returns the room's items, newest first. rowid breaks ties
// between items created within the same clock tick.
func (i *ItemDB) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]model.Item, error) {
	rows, err := i.db.conn.QueryContext(ctx,
		`SELECT id, room_id, created_by, title, description, image_url, created_at
		 FROM items
		 WHERE room_id = ?
		 ORDER BY created_at DESC, rowid DESC`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(
			&it.ID,
			&it.RoomID,
			&it.CreatedBy,
			&it.Title,
			&it.Description,
			&it.ImageURL,
			&it.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating items: %w", err)
	}
	return items, nil
}

// Get fetches one item by id.
func (i *ItemDB) Get(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var it model.Item
	err := i.db.conn.QueryRowContext(ctx,
		`SELECT id, room_id, created_by, title, description, image_url, created_at
		 FROM items WHERE id = ?`,
		id,
	).Scan(
		&it.ID,
		&it.RoomID,
		&it.CreatedBy,
		&it.Title,
		&it.Description,
		&it.ImageURL,
		&it.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("item", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting item %s: %w", id, err)
	}
	return &it, nil
}

func (i *ItemDB) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := i.db.conn.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting item %s: %w", id, err)
	}
	return nil
}
