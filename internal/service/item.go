package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/xid"

	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/model"
	"github.com/sakif/reclaim/internal/repository"
)

// MaxPhotoBytes caps a single upload.
const MaxPhotoBytes = 10 << 20

// NewItemInput is what the add-item form collects. A nil Photo means none.
type NewItemInput struct {
	Title       string
	Description string
	Photo       []byte
}

type ItemService struct {
	items   repository.ItemRepository
	storage repository.ObjectStorage
	who     Identity
	bucket  string
	logger  *slog.Logger
}

// NewItemService builds an ItemService. An empty bucket uses
// repository.PhotoBucket.
func NewItemService(
	items repository.ItemRepository,
	storage repository.ObjectStorage,
	who Identity,
	bucket string,
	logger *slog.Logger,
) *ItemService {
	if bucket == "" {
		bucket = repository.PhotoBucket
	}
	return &ItemService{
		items:   items,
		storage: storage,
		who:     who,
		bucket:  bucket,
		logger:  logger,
	}
}

// Add posts an item to a room. With a photo, the photo is uploaded first and
// its public URL goes into the row. If the row insert then fails, the upload
// stays in storage.
func (s *ItemService) Add(ctx context.Context, roomID uuid.UUID, in NewItemInput) (*model.Item, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if len(in.Photo) > MaxPhotoBytes {
		return nil, apperror.ValidationFailed("photo",
			fmt.Sprintf("photo must be %d MB or less", MaxPhotoBytes>>20))
	}

	user, err := currentUser(s.who)
	if err != nil {
		return nil, err
	}

	imageURL := model.None[string]()
	if len(in.Photo) > 0 {
		url, err := s.uploadPhoto(ctx, roomID, in.Photo)
		if err != nil {
			return nil, err
		}
		imageURL = model.Some(url)
	}

	item, err := s.items.Create(ctx, &model.NewItem{
		RoomID:      roomID,
		CreatedBy:   user.ID,
		Title:       title,
		Description: trimmedOptional(model.Some(in.Description)),
		ImageURL:    imageURL,
	})
	if err != nil {
		s.logger.Error("failed to create item",
			slog.String("roomID", roomID.String()),
			slog.Bool("photoUploaded", imageURL.Present()),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating item: %w", err)
	}

	s.logger.Info("item created",
		slog.String("itemID", item.ID.String()),
		slog.String("roomID", roomID.String()),
	)
	return item, nil
}

func (s *ItemService) uploadPhoto(ctx context.Context, roomID uuid.UUID, photo []byte) (string, error) {
	contentType := http.DetectContentType(photo)
	path := PhotoPath(roomID, contentType)

	if err := s.storage.Upload(ctx, s.bucket, path, photo, contentType); err != nil {
		s.logger.Error("failed to upload photo",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("uploading photo: %w", err)
	}

	url, err := s.storage.PublicURL(s.bucket, path)
	if err != nil {
		return "", fmt.Errorf("resolving photo url: %w", err)
	}
	return url, nil
}

// PhotoPath names a new object under the room's folder.
func PhotoPath(roomID uuid.UUID, contentType string) string {
	ext := ".jpg"
	switch contentType {
	case "image/png":
		ext = ".png"
	case "image/gif":
		ext = ".gif"
	case "image/webp":
		ext = ".webp"
	}
	return roomID.String() + "/" + xid.New().String() + ext
}

// List returns a room's items, newest first.
func (s *ItemService) List(ctx context.Context, roomID uuid.UUID) ([]model.Item, error) {
	items, err := s.items.ListByRoom(ctx, roomID)
	if err != nil {
		s.logger.Error("failed to list items",
			slog.String("roomID", roomID.String()),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return items, nil
}

// Delete removes one item from a room the current user created. The item's
// photo is not removed from storage.
func (s *ItemService) Delete(ctx context.Context, room *model.Room, itemID uuid.UUID) error {
	user, err := currentUser(s.who)
	if err != nil {
		return err
	}
	if room.CreatedBy != user.ID {
		return apperror.Forbidden("only the room's creator can delete items")
	}

	if err := s.items.Delete(ctx, itemID); err != nil {
		s.logger.Error("failed to delete item",
			slog.String("itemID", itemID.String()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting item: %w", err)
	}

	s.logger.Info("item deleted", slog.String("itemID", itemID.String()))
	return nil
}
