package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/model"
	"github.com/sakif/reclaim/internal/repository"
)

// ErrInvalidRoomCredentials is the join outcome when no single room matches
// the code and password.
var ErrInvalidRoomCredentials = apperror.Wrap(apperror.ErrNotFound, "Invalid room code or password.")

// ErrPartialRoomCreate marks a room that was inserted but whose creator
// membership was not.
var ErrPartialRoomCreate = errors.New("room created without creator membership")

// PartialCreateError carries the room that exists despite the failed second
// insert. It matches both ErrPartialRoomCreate and the underlying cause.
type PartialCreateError struct {
	Room *model.Room
	Err  error
}

func (e *PartialCreateError) Error() string {
	return fmt.Sprintf("room %s created but adding creator membership failed: %v", e.Room.Code, e.Err)
}

func (e *PartialCreateError) Unwrap() []error {
	return []error{ErrPartialRoomCreate, e.Err}
}

// CreateRoomInput is what the create-room form collects.
type CreateRoomInput struct {
	Name      string
	Password  string
	ExpiresAt model.Optional[time.Time]
	Address   model.Optional[string]
	Latitude  model.Optional[float64]
	Longitude model.Optional[float64]
}

// JoinResult is a successful join. MembershipErr is set when the room matched
// but writing the Member row failed; the join is still reported as done.
type JoinResult struct {
	Room          *model.Room
	MembershipErr error
}

type RoomService struct {
	rooms   repository.RoomRepository
	members repository.MembershipRepository
	who     Identity
	codes   CodeGenerator
	logger  *slog.Logger
}

// NewRoomService builds a RoomService. A nil codes uses RandomCode.
func NewRoomService(
	rooms repository.RoomRepository,
	members repository.MembershipRepository,
	who Identity,
	codes CodeGenerator,
	logger *slog.Logger,
) *RoomService {
	if codes == nil {
		codes = RandomCode
	}
	return &RoomService{
		rooms:   rooms,
		members: members,
		who:     who,
		codes:   codes,
		logger:  logger,
	}
}

// Create inserts a room and then a Creator membership for the current user.
//
// If the membership insert fails the room is returned together with a
// *PartialCreateError; the room row is left in place.
func (s *RoomService) Create(ctx context.Context, in CreateRoomInput) (*model.Room, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "room name is required")
	}
	lat, latOK := in.Latitude.Get()
	lng, lngOK := in.Longitude.Get()
	if latOK != lngOK {
		return nil, apperror.ValidationFailed("location", "latitude and longitude must be set together")
	}
	if latOK && (lat < -90 || lat > 90 || lng < -180 || lng > 180) {
		return nil, apperror.ValidationFailed("location", "coordinates out of range")
	}

	user, err := currentUser(s.who)
	if err != nil {
		return nil, err
	}

	code, err := s.codes()
	if err != nil {
		return nil, err
	}

	room, err := s.rooms.Create(ctx, &model.NewRoom{
		Code:      code,
		Name:      name,
		Password:  in.Password,
		CreatedBy: user.ID,
		ExpiresAt: in.ExpiresAt,
		Address:   trimmedOptional(in.Address),
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
	})
	if err != nil {
		s.logger.Error("failed to create room",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating room: %w", err)
	}

	_, err = s.members.Add(ctx, &model.Membership{
		RoomID: room.ID,
		UserID: user.ID,
		Role:   model.RoleCreator,
	})
	if err != nil {
		s.logger.Error("room created without creator membership",
			slog.String("roomID", room.ID.String()),
			slog.String("error", err.Error()),
		)
		return room, &PartialCreateError{Room: room, Err: err}
	}

	s.logger.Info("room created",
		slog.String("roomID", room.ID.String()),
		slog.String("code", room.Code),
	)
	return room, nil
}

// Join looks up the single room matching code and password and adds the
// current user as a Member.
func (s *RoomService) Join(ctx context.Context, code, password string) (*JoinResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperror.ValidationFailed("code", "room code is required")
	}

	user, err := currentUser(s.who)
	if err != nil {
		return nil, err
	}

	room, err := s.rooms.FindByCredentials(ctx, code, password)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrInvalidRoomCredentials
		}
		s.logger.Error("failed to look up room", slog.String("error", err.Error()))
		return nil, fmt.Errorf("joining room: %w", err)
	}

	res := &JoinResult{Room: room}
	_, err = s.members.Add(ctx, &model.Membership{
		RoomID: room.ID,
		UserID: user.ID,
		Role:   model.RoleMember,
	})
	if err != nil {
		s.logger.Warn("membership insert failed after join",
			slog.String("roomID", room.ID.String()),
			slog.String("error", err.Error()),
		)
		res.MembershipErr = err
	}

	s.logger.Info("room joined",
		slog.String("roomID", room.ID.String()),
		slog.String("userID", user.ID.String()),
	)
	return res, nil
}

// ListCreated returns the rooms the current user created.
func (s *RoomService) ListCreated(ctx context.Context) ([]model.Room, error) {
	user, err := currentUser(s.who)
	if err != nil {
		return nil, err
	}

	rooms, err := s.rooms.ListByCreator(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to list created rooms", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing created rooms: %w", err)
	}
	return rooms, nil
}

// ListJoined returns the rooms the current user joined as a Member.
func (s *RoomService) ListJoined(ctx context.Context) ([]model.JoinedRoom, error) {
	user, err := currentUser(s.who)
	if err != nil {
		return nil, err
	}

	joined, err := s.members.ListJoined(ctx, user.ID, model.RoleMember)
	if err != nil {
		s.logger.Error("failed to list joined rooms", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing joined rooms: %w", err)
	}
	return joined, nil
}

// Delete removes a room the current user created. Memberships and items go
// with it through the backend's cascade; that is not checked here.
func (s *RoomService) Delete(ctx context.Context, room *model.Room) error {
	user, err := currentUser(s.who)
	if err != nil {
		return err
	}
	if room.CreatedBy != user.ID {
		return apperror.Forbidden("only the room's creator can delete it")
	}

	if err := s.rooms.Delete(ctx, room.ID); err != nil {
		s.logger.Error("failed to delete room",
			slog.String("roomID", room.ID.String()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting room: %w", err)
	}

	s.logger.Info("room deleted", slog.String("roomID", room.ID.String()))
	return nil
}

// trimmedOptional turns a blank string into None.
func trimmedOptional(o model.Optional[string]) model.Optional[string] {
	v, ok := o.Get()
	if !ok {
		return o
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return model.None[string]()
	}
	return model.Some(v)
}
