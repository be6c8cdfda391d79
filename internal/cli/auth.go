package cli

import (
	"context"

	"github.com/sakif/reclaim/internal/screen"
)

func (a *App) signUp(ctx context.Context, args []string) error {
	form := screen.NewSignUp(a.flow)
	fs := a.flags("signup")
	fs.StringVar(&form.Email, "email", "", "account email")
	fs.StringVar(&form.Password, "password", "", "account password")
	if err := parse(fs, args); err != nil {
		return err
	}

	msg, err := form.Submit(ctx)
	if err != nil {
		return err
	}
	if msg != "" {
		a.printf("%s\n", msg)
		return nil
	}
	return a.status(ctx, nil)
}

func (a *App) login(ctx context.Context, args []string) error {
	form := screen.NewLogin(a.flow)
	fs := a.flags("login")
	fs.StringVar(&form.Email, "email", "", "account email")
	fs.StringVar(&form.Password, "password", "", "account password")
	if err := parse(fs, args); err != nil {
		return err
	}

	if err := form.Submit(ctx); err != nil {
		return err
	}
	return a.status(ctx, nil)
}

func (a *App) logout(ctx context.Context, _ []string) error {
	if err := screen.SignOut(ctx, a.flow); err != nil {
		return err
	}
	a.printf("Signed out.\n")
	return nil
}

func (a *App) status(_ context.Context, _ []string) error {
	if a.root.Route() != screen.RouteHome {
		a.printf("Not signed in.\n")
		return nil
	}
	user, _ := a.flow.State().User()
	a.printf("Signed in as %s\n", user.Email)
	return nil
}
