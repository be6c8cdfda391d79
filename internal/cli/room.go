package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/reclaim/internal/model"
	"github.com/sakif/reclaim/internal/screen"
)

func (a *App) listRooms(ctx context.Context, _ []string) error {
	rooms := screen.NewRooms(a.rooms)
	err := rooms.Load(ctx)

	a.printf("Created rooms:\n")
	a.printRooms(rooms.Created())
	a.printf("Joined rooms:\n")
	joined := rooms.Joined()
	list := make([]model.Room, len(joined))
	for i, j := range joined {
		list[i] = j.Room
	}
	a.printRooms(list)

	return err
}

func (a *App) printRooms(rooms []model.Room) {
	if len(rooms) == 0 {
		a.printf("  (none)\n")
		return
	}
	for i := range rooms {
		a.printf("  %s  %s\n", screen.RoomLine(&rooms[i]), rooms[i].ID)
	}
}

func (a *App) room(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.stderr, "usage: reclaim room create|join|delete ...")
		return errUsage
	}
	switch args[0] {
	case "create":
		return a.createRoom(ctx, args[1:])
	case "join":
		return a.joinRoom(ctx, args[1:])
	case "delete":
		return a.deleteRoom(ctx, args[1:])
	}
	fmt.Fprintf(a.stderr, "unknown room command %q\n", args[0])
	return errUsage
}

func (a *App) createRoom(ctx context.Context, args []string) error {
	form := screen.NewCreateRoom(a.rooms)
	var expires string
	var lat, lng optionalFloat

	fs := a.flags("room create")
	fs.StringVar(&form.Name, "name", "", "room name")
	fs.StringVar(&form.Password, "password", "", "password needed to join")
	fs.StringVar(&expires, "expires", "", "expiry as a duration from now (72h) or an RFC 3339 time")
	fs.StringVar(&form.Address, "address", "", "where the room is")
	fs.Var(&lat, "lat", "latitude")
	fs.Var(&lng, "lng", "longitude")
	if err := parse(fs, args); err != nil {
		return err
	}

	if expires != "" {
		at, err := parseExpiry(expires, time.Now())
		if err != nil {
			fmt.Fprintln(a.stderr, err)
			return errUsage
		}
		form.ExpiresAt = model.Some(at)
	}
	form.Latitude, form.Longitude = lat.value, lng.value

	_, msg, err := form.Submit(ctx)
	if err != nil {
		return err
	}
	a.printf("%s\n", msg)
	return nil
}

func (a *App) joinRoom(ctx context.Context, args []string) error {
	form := screen.NewJoinRoom(a.rooms)
	fs := a.flags("room join")
	fs.StringVar(&form.Code, "code", "", "six digit room code")
	fs.StringVar(&form.Password, "password", "", "room password")
	if err := parse(fs, args); err != nil {
		return err
	}

	out, err := form.Submit(ctx)
	if err != nil {
		return err
	}
	if out.Warning != "" {
		a.fail(fmt.Errorf("%s", out.Warning))
	}
	a.printf("%s\n", out.Message)
	return nil
}

func (a *App) deleteRoom(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.stderr, "usage: reclaim room delete ROOM")
		return errUsage
	}
	rooms := screen.NewRooms(a.rooms)
	if err := rooms.Load(ctx); err != nil {
		return err
	}
	room, _, err := resolveRoom(rooms, args[0])
	if err != nil {
		return err
	}
	if err := rooms.Delete(ctx, room.ID); err != nil {
		return err
	}
	a.printf("Deleted room: %s\n", room.Name)
	return nil
}

// resolveRoom finds one of the user's rooms by id or by code. Created rooms
// are searched first.
func resolveRoom(rooms *screen.Rooms, ref string) (model.Room, model.Role, error) {
	ref = strings.TrimSpace(ref)
	for _, r := range rooms.Created() {
		if r.ID.String() == ref || r.Code == ref {
			return r, model.RoleCreator, nil
		}
	}
	for _, j := range rooms.Joined() {
		if j.Room.ID.String() == ref || j.Room.Code == ref {
			return j.Room, j.Role, nil
		}
	}
	return model.Room{}, "", fmt.Errorf("No room %q among your rooms.", ref)
}

func parseExpiry(s string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return time.Time{}, fmt.Errorf("expiry %q must be in the future", s)
		}
		return now.Add(d).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expiry %q is neither a duration nor an RFC 3339 time", s)
	}
	return t.UTC(), nil
}

// optionalFloat is a float flag that remembers whether it was set.
type optionalFloat struct {
	value model.Optional[float64]
}

func (o *optionalFloat) String() string {
	if v, ok := o.value.Get(); ok {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func (o *optionalFloat) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	o.value = model.Some(v)
	return nil
}
