package screen

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/model"
	"github.com/sakif/reclaim/internal/service"
)

// AddItem is the new-item sheet of a room.
type AddItem struct {
	guard
	items  ItemActions
	roomID uuid.UUID

	Title       string
	Description string
	Photo       []byte
}

func NewAddItem(items ItemActions, roomID uuid.UUID) *AddItem {
	return &AddItem{items: items, roomID: roomID}
}

var errMissingTitle = apperror.ValidationFailed("title", "Title is required.")

func (a *AddItem) CanSubmit() bool {
	return strings.TrimSpace(a.Title) != "" && !a.Busy()
}

// Submit posts the item and returns it so the caller can prepend it to the
// room's list.
func (a *AddItem) Submit(ctx context.Context) (*model.Item, error) {
	if strings.TrimSpace(a.Title) == "" {
		return nil, plain(errMissingTitle)
	}
	if !a.acquire() {
		return nil, ErrBusy
	}
	defer a.release()

	item, err := a.items.Add(ctx, a.roomID, service.NewItemInput{
		Title:       a.Title,
		Description: a.Description,
		Photo:       a.Photo,
	})
	if err != nil {
		if userFacing(err) {
			return nil, plain(err)
		}
		return nil, failed("add item", err)
	}
	return item, nil
}
