package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/sakif/reclaim/internal/model"
	"github.com/sakif/reclaim/internal/screen"
)

// openRoom loads the detail screen for one of the user's rooms.
func (a *App) openRoom(ctx context.Context, ref string) (*screen.RoomDetail, error) {
	rooms := screen.NewRooms(a.rooms)
	if err := rooms.Load(ctx); err != nil {
		return nil, err
	}
	room, role, err := resolveRoom(rooms, ref)
	if err != nil {
		return nil, err
	}
	return screen.NewRoomDetail(a.items, room, role), nil
}

func (a *App) listItems(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.stderr, "usage: reclaim items ROOM")
		return errUsage
	}
	detail, err := a.openRoom(ctx, args[0])
	if err != nil {
		return err
	}
	loadErr := detail.Load(ctx)

	room := detail.Room()
	a.printf("%s [%s]\n", room.Name, detail.Role())
	for _, line := range detail.Header(a.loc) {
		a.printf("  %s\n", line)
	}
	if room.Address.Present() {
		a.printf("  %s\n", room.Address.OrElse(""))
	}
	a.printf("\nLost Items\n")
	if loadErr != nil {
		return loadErr
	}
	if msg := detail.EmptyText(); msg != "" {
		a.printf("  %s\n", msg)
		return nil
	}
	for _, it := range detail.Items() {
		a.printItem(it)
	}
	return nil
}

func (a *App) printItem(it model.Item) {
	a.printf("  %s  %s\n", it.Title, it.ID)
	if d, ok := it.Description.Get(); ok {
		a.printf("    %s\n", d)
	}
	if u, ok := it.ImageURL.Get(); ok {
		a.printf("    photo: %s\n", u)
	}
	a.printf("    posted %s\n", it.CreatedAt.In(a.loc).Format("Jan 2, 2006 at 3:04 PM"))
}

func (a *App) item(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.stderr, "usage: reclaim item add|delete ...")
		return errUsage
	}
	switch args[0] {
	case "add":
		return a.addItem(ctx, args[1:])
	case "delete":
		return a.deleteItem(ctx, args[1:])
	}
	fmt.Fprintf(a.stderr, "unknown item command %q\n", args[0])
	return errUsage
}

func (a *App) addItem(ctx context.Context, args []string) error {
	var roomRef, photoPath, title, description string
	fs := a.flags("item add")
	fs.StringVar(&roomRef, "room", "", "room id or code")
	fs.StringVar(&title, "title", "", "what was found")
	fs.StringVar(&description, "description", "", "optional details")
	fs.StringVar(&photoPath, "photo", "", "optional path to a photo")
	if err := parse(fs, args); err != nil {
		return err
	}

	detail, err := a.openRoom(ctx, roomRef)
	if err != nil {
		return err
	}
	form := screen.NewAddItem(a.items, detail.Room().ID)
	form.Title, form.Description = title, description
	if photoPath != "" {
		if form.Photo, err = os.ReadFile(photoPath); err != nil {
			return fmt.Errorf("Failed to load image: %w", err)
		}
	}

	item, err := form.Submit(ctx)
	if err != nil {
		return err
	}
	a.printf("Added item: %s\n", item.Title)
	a.printItem(*item)
	return nil
}

func (a *App) deleteItem(ctx context.Context, args []string) error {
	var roomRef string
	fs := a.flags("item delete")
	fs.StringVar(&roomRef, "room", "", "room id or code")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(a.stderr, "usage: reclaim item delete -room ROOM ITEM")
		return errUsage
	}
	itemID, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(a.stderr, "invalid item id %q\n", fs.Arg(0))
		return errUsage
	}

	detail, err := a.openRoom(ctx, roomRef)
	if err != nil {
		return err
	}
	if err := detail.Delete(ctx, itemID); err != nil {
		return err
	}
	a.printf("Deleted item.\n")
	return nil
}
