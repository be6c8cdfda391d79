// Package cli is the terminal front end. Each subcommand drives one screen
// and prints what that screen would show.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/sakif/reclaim/internal/repository"
	"github.com/sakif/reclaim/internal/screen"
	"github.com/sakif/reclaim/internal/service"
	"github.com/sakif/reclaim/internal/session"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Options configures an App.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	// Color paints failures red.
	Color       bool
	PhotoBucket string
	// Location is used to print timestamps; nil means time.Local.
	Location *time.Location
	// Codes generates room codes; nil means random codes.
	Codes service.CodeGenerator
}

// App owns the session state for one invocation and the services built on
// it.
type App struct {
	flow   *session.Flow
	rooms  *service.RoomService
	items  *service.ItemService
	root   *screen.Root
	stdout io.Writer
	stderr io.Writer
	color  bool
	loc    *time.Location
	logger *slog.Logger
}

func New(backend *repository.Backend, opts Options, logger *slog.Logger) *App {
	state := session.NewState()
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &App{
		flow:   session.NewFlow(backend.Auth, state, logger),
		rooms:  service.NewRoomService(backend.Rooms, backend.Members, state, opts.Codes, logger),
		items:  service.NewItemService(backend.Items, backend.Storage, state, opts.PhotoBucket, logger),
		root:   screen.NewRoot(state),
		stdout: opts.Stdout,
		stderr: opts.Stderr,
		color:  opts.Color,
		loc:    loc,
		logger: logger,
	}
}

type command struct {
	usage string
	// needsSession commands are refused on the intro route.
	needsSession bool
	run          func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"signup": {usage: "signup -email EMAIL -password PASSWORD", run: (*App).signUp},
	"login":  {usage: "login -email EMAIL -password PASSWORD", run: (*App).login},
	"logout": {usage: "logout", run: (*App).logout},
	"status": {usage: "status", run: (*App).status},
	"rooms":  {usage: "rooms", needsSession: true, run: (*App).listRooms},
	"room": {
		usage:        "room create|join|delete ...",
		needsSession: true,
		run:          (*App).room,
	},
	"items": {usage: "items ROOM", needsSession: true, run: (*App).listItems},
	"item": {
		usage:        "item add|delete ...",
		needsSession: true,
		run:          (*App).item,
	},
}

// errUsage means the arguments were wrong; usage has already been printed.
var errUsage = errors.New("usage")

var errNotSignedIn = errors.New("Not signed in. Run `reclaim login` or `reclaim signup` first.")

// Run executes one subcommand and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		a.usage()
		return ExitUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(a.stderr, "unknown command %q\n\n", args[0])
		a.usage()
		return ExitUsage
	}

	a.flow.Restore(ctx)

	if cmd.needsSession && a.root.Route() != screen.RouteHome {
		a.fail(errNotSignedIn)
		return ExitError
	}

	err := cmd.run(a, ctx, args[1:])
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errUsage):
		return ExitUsage
	default:
		a.fail(err)
		return ExitError
	}
}

func (a *App) usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(a.stderr, "usage: reclaim <command> [flags]")
	fmt.Fprintln(a.stderr)
	for _, name := range names {
		fmt.Fprintf(a.stderr, "  %s\n", commands[name].usage)
	}
}

const (
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

func (a *App) fail(err error) {
	if a.color {
		fmt.Fprintln(a.stderr, ansiRed+err.Error()+ansiReset)
		return
	}
	fmt.Fprintln(a.stderr, err.Error())
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}

// flags returns a FlagSet that reports errors on stderr instead of exiting.
func (a *App) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// parse parses args and maps flag errors to errUsage.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}
