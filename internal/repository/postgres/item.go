package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/sakif/reclaim/internal/model"
	"github.com/sakif/reclaim/internal/repository"
)

var _ repository.ItemRepository = (*ItemRepository)(nil)

// ItemRepository is the items table.
type ItemRepository struct {
	db *sql.DB
}

func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

const itemColumns = `id, room_id, created_by, title, description, image_url, created_at`

func scanItem(s scanner, it *model.Item) error {
	return s.Scan(
		&it.ID,
		&it.RoomID,
		&it.CreatedBy,
		&it.Title,
		&it.Description,
		&it.ImageURL,
		&it.CreatedAt,
	)
}

func (i *ItemRepository) Create(ctx context.Context, in *model.NewItem) (*model.Item, error) {
	item := &model.Item{}
	err := scanItem(i.db.QueryRowContext(ctx, `
		INSERT INTO items (room_id, created_by, title, description, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+itemColumns,
		in.RoomID, in.CreatedBy, in.Title, in.Description, in.ImageURL,
	), item)
	if err != nil {
		return nil, translate("creating item", err)
	}
	return item, nil
}

func (i *ItemRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]model.Item, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE room_id = $1
		ORDER BY created_at DESC`,
		roomID,
	)
	if err != nil {
		return nil, translate("listing items", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		var it model.Item
		if err := scanItem(rows, &it); err != nil {
			return nil, translate("scanning item", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("iterating items", err)
	}
	return items, nil
}

func (i *ItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := i.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id); err != nil {
		return translate("deleting item", err)
	}
	return nil
}
