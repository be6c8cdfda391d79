package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/repository"
)

// SignUpOutcome tells the caller what to show after a successful sign-up.
type SignUpOutcome int

const (
	// SignedIn: the backend returned a live session and the flag is now true.
	SignedIn SignUpOutcome = iota
	// ConfirmationRequired: the account exists but the backend wants the
	// email confirmed first. The flag is unchanged.
	ConfirmationRequired
)

// Flow is the set of auth actions. Each one performs a single backend call and
// then updates State.
type Flow struct {
	auth   repository.AuthProvider
	state  *State
	logger *slog.Logger
}

func NewFlow(auth repository.AuthProvider, state *State, logger *slog.Logger) *Flow {
	return &Flow{auth: auth, state: state, logger: logger}
}

// State returns the flag this flow writes to.
func (f *Flow) State() *State {
	return f.state
}

// Restore asks the backend once for an existing session. Any error, including
// "no session", leaves the user signed out and is only logged.
func (f *Flow) Restore(ctx context.Context) {
	s, err := f.auth.CurrentSession(ctx)
	if err != nil || s == nil {
		if err != nil {
			f.logger.Debug("no session restored", slog.String("error", err.Error()))
		}
		f.state.signOut()
		return
	}

	f.state.signIn(s.User)
	f.logger.Info("session restored", slog.String("userID", s.User.ID.String()))
}

// SignUp registers an account. The flag flips to true only when the backend
// hands back a live session.
func (f *Flow) SignUp(ctx context.Context, email, password string) (SignUpOutcome, error) {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return 0, err
	}

	s, err := f.auth.SignUp(ctx, email, password)
	if err != nil {
		f.logger.Warn("sign up failed", slog.String("email", email), slog.String("error", err.Error()))
		return 0, fmt.Errorf("session: signing up: %w", err)
	}
	if s == nil {
		f.logger.Info("sign up pending confirmation", slog.String("email", email))
		return ConfirmationRequired, nil
	}

	f.state.signIn(s.User)
	f.logger.Info("signed up", slog.String("userID", s.User.ID.String()))
	return SignedIn, nil
}

// SignIn authenticates with email and password and sets the flag.
func (f *Flow) SignIn(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return err
	}

	s, err := f.auth.SignIn(ctx, email, password)
	if err != nil {
		f.logger.Warn("sign in failed", slog.String("email", email), slog.String("error", err.Error()))
		return fmt.Errorf("session: signing in: %w", err)
	}

	f.state.signIn(s.User)
	f.logger.Info("signed in", slog.String("userID", s.User.ID.String()))
	return nil
}

// SignOut ends the session. The flag is cleared even when the backend call
// fails; the error is still returned so it can be shown.
func (f *Flow) SignOut(ctx context.Context) error {
	err := f.auth.SignOut(ctx)
	f.state.signOut()
	if err != nil {
		f.logger.Warn("sign out failed", slog.String("error", err.Error()))
		return fmt.Errorf("session: signing out: %w", err)
	}
	return nil
}

func validateCredentials(email, password string) error {
	if email == "" {
		return apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return apperror.ValidationFailed("password", "password is required")
	}
	return nil
}
