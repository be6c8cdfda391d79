package screen

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/model"
	"github.com/sakif/reclaim/internal/service"
)

// CreateRoom is the new-room form.
type CreateRoom struct {
	guard
	rooms RoomActions

	Name      string
	Password  string
	ExpiresAt model.Optional[time.Time]
	Address   string
	Latitude  model.Optional[float64]
	Longitude model.Optional[float64]
}

func NewCreateRoom(rooms RoomActions) *CreateRoom {
	return &CreateRoom{rooms: rooms}
}

// The password is opaque and may be empty.
var errMissingRoomFields = apperror.ValidationFailed("room", "Room name is required.")

func (c *CreateRoom) complete() bool {
	return strings.TrimSpace(c.Name) != ""
}

func (c *CreateRoom) CanSubmit() bool {
	return c.complete() && !c.Busy()
}

// Submit creates the room and returns it with the confirmation text.
//
// When the room row was written but the creator membership was not, the
// room is returned alongside the failure.
func (c *CreateRoom) Submit(ctx context.Context) (*model.Room, string, error) {
	if !c.complete() {
		return nil, "", plain(errMissingRoomFields)
	}
	if !c.acquire() {
		return nil, "", ErrBusy
	}
	defer c.release()

	addr := model.None[string]()
	if a := strings.TrimSpace(c.Address); a != "" {
		addr = model.Some(a)
	}

	room, err := c.rooms.Create(ctx, service.CreateRoomInput{
		Name:      c.Name,
		Password:  c.Password,
		ExpiresAt: c.ExpiresAt,
		Address:   addr,
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
	})
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			return nil, "", plain(err)
		}
		return room, "", failed("create room", err)
	}
	return room, "Room created! Code: " + room.Code, nil
}

// JoinOutcome is what the join screen shows after a successful lookup.
type JoinOutcome struct {
	Room    *model.Room
	Message string
	// Warning is set when the membership row could not be written. The
	// join is still reported as successful.
	Warning string
}

// JoinRoom is the join-by-code form.
type JoinRoom struct {
	guard
	rooms RoomActions

	Code     string
	Password string
}

func NewJoinRoom(rooms RoomActions) *JoinRoom {
	return &JoinRoom{rooms: rooms}
}

// The backend decides whether the password matches, an empty one included.
var errMissingJoinFields = apperror.ValidationFailed("room", "Room code is required.")

func (j *JoinRoom) complete() bool {
	return strings.TrimSpace(j.Code) != ""
}

func (j *JoinRoom) CanSubmit() bool {
	return j.complete() && !j.Busy()
}

func (j *JoinRoom) Submit(ctx context.Context) (*JoinOutcome, error) {
	if !j.complete() {
		return nil, plain(errMissingJoinFields)
	}
	if !j.acquire() {
		return nil, ErrBusy
	}
	defer j.release()

	res, err := j.rooms.Join(ctx, j.Code, j.Password)
	switch {
	case errors.Is(err, service.ErrInvalidRoomCredentials), userFacing(err):
		return nil, plain(err)
	case err != nil:
		return nil, failed("join room", err)
	}

	out := &JoinOutcome{Room: res.Room, Message: "Joined room: " + res.Room.Name}
	if res.MembershipErr != nil {
		out.Warning = failed("save membership", res.MembershipErr).Text
	}
	return out, nil
}

// Rooms is the home screen's two lists: rooms the user created and rooms
// they joined.
type Rooms struct {
	guard
	rooms RoomActions

	created []model.Room
	joined  []model.JoinedRoom
}

func NewRooms(rooms RoomActions) *Rooms {
	return &Rooms{rooms: rooms}
}

// Load fetches both lists. They are independent: one can load while the
// other fails.
func (r *Rooms) Load(ctx context.Context) error {
	if !r.acquire() {
		return ErrBusy
	}
	defer r.release()

	created, createdErr := r.rooms.ListCreated(ctx)
	if createdErr == nil {
		r.created = created
	}
	joined, joinedErr := r.rooms.ListJoined(ctx)
	if joinedErr == nil {
		r.joined = joined
	}

	if err := errors.Join(createdErr, joinedErr); err != nil {
		return failed("load rooms", err)
	}
	return nil
}

func (r *Rooms) Created() []model.Room      { return slices.Clone(r.created) }
func (r *Rooms) Joined() []model.JoinedRoom { return slices.Clone(r.joined) }

// Delete removes a room and drops it from the lists. Only the creator can
// delete; a joined room is passed through so the refusal comes back as the
// failure text.
func (r *Rooms) Delete(ctx context.Context, roomID uuid.UUID) error {
	room, ok := r.find(roomID)
	if !ok {
		return failed("delete room", apperror.NotFound("room", roomID.String()))
	}
	if !r.acquire() {
		return ErrBusy
	}
	defer r.release()

	if err := r.rooms.Delete(ctx, &room); err != nil {
		return failed("delete room", err)
	}
	r.created = slices.DeleteFunc(r.created, func(room model.Room) bool { return room.ID == roomID })
	r.joined = slices.DeleteFunc(r.joined, func(j model.JoinedRoom) bool { return j.Room.ID == roomID })
	return nil
}

func (r *Rooms) find(roomID uuid.UUID) (model.Room, bool) {
	for _, room := range r.created {
		if room.ID == roomID {
			return room, true
		}
	}
	for _, j := range r.joined {
		if j.Room.ID == roomID {
			return j.Room, true
		}
	}
	return model.Room{}, false
}

// NoItemsMessage is shown in place of an empty item list.
const NoItemsMessage = "No items yet."

// RoomDetail is a room's header and its item list.
type RoomDetail struct {
	guard
	items ItemActions

	room model.Room
	role model.Role
	list []model.Item
}

func NewRoomDetail(items ItemActions, room model.Room, role model.Role) *RoomDetail {
	return &RoomDetail{items: items, room: room, role: role}
}

func (d *RoomDetail) Room() model.Room { return d.room }

// Role is the badge next to the room name.
func (d *RoomDetail) Role() model.Role { return d.role }

// Header returns the lines under the room name.
func (d *RoomDetail) Header(loc *time.Location) []string {
	return []string{
		CodeText(&d.room),
		ExpiryText(&d.room, loc),
		LocationText(&d.room),
	}
}

func (d *RoomDetail) Load(ctx context.Context) error {
	if !d.acquire() {
		return ErrBusy
	}
	defer d.release()

	items, err := d.items.List(ctx, d.room.ID)
	if err != nil {
		return failed("load items", err)
	}
	d.list = items
	return nil
}

// Items returns the items newest first.
func (d *RoomDetail) Items() []model.Item { return slices.Clone(d.list) }

// EmptyText is NoItemsMessage when there is nothing to list.
func (d *RoomDetail) EmptyText() string {
	if len(d.list) == 0 {
		return NoItemsMessage
	}
	return ""
}

// Prepend puts a freshly added item at the top without reloading.
func (d *RoomDetail) Prepend(item model.Item) {
	d.list = slices.Insert(d.list, 0, item)
}

func (d *RoomDetail) Delete(ctx context.Context, itemID uuid.UUID) error {
	if !d.acquire() {
		return ErrBusy
	}
	defer d.release()

	if err := d.items.Delete(ctx, &d.room, itemID); err != nil {
		return failed("delete item", err)
	}
	d.list = slices.DeleteFunc(d.list, func(it model.Item) bool { return it.ID == itemID })
	return nil
}

// RoomLine is the one-line summary used in room lists.
func RoomLine(room *model.Room) string {
	return fmt.Sprintf("%s  (code %s)", room.Name, room.Code)
}
