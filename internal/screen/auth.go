package screen

import (
	"context"
	"errors"
	"strings"

	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/session"
)

// Route names the top-level screen.
type Route string

const (
	RouteIntro Route = "intro"
	RouteHome  Route = "home"
)

// Root picks the top-level screen from the session flag alone.
type Root struct {
	state interface{ Authenticated() bool }
}

func NewRoot(state *session.State) *Root {
	return &Root{state: state}
}

func (r *Root) Route() Route {
	if r.state.Authenticated() {
		return RouteHome
	}
	return RouteIntro
}

// ConfirmEmailMessage is shown after a sign-up that needs confirmation.
const ConfirmEmailMessage = "Check your email to confirm your account."

var errMissingCredentials = apperror.ValidationFailed("credentials", "Email and password are required.")

type credentials struct {
	Email    string
	Password string
}

func (c *credentials) complete() bool {
	return strings.TrimSpace(c.Email) != "" && c.Password != ""
}

// Login is the sign-in form.
type Login struct {
	guard
	credentials
	auth Authenticator
}

func NewLogin(auth Authenticator) *Login {
	return &Login{auth: auth}
}

func (l *Login) CanSubmit() bool {
	return l.complete() && !l.Busy()
}

// Submit signs in. On success the session flag is set and the caller
// should re-route.
func (l *Login) Submit(ctx context.Context) error {
	if !l.complete() {
		return plain(errMissingCredentials)
	}
	if !l.acquire() {
		return ErrBusy
	}
	defer l.release()

	if err := l.auth.SignIn(ctx, l.Email, l.Password); err != nil {
		if userFacing(err) {
			return plain(err)
		}
		return failed("log in", err)
	}
	return nil
}

// SignUp is the registration form.
type SignUp struct {
	guard
	credentials
	auth Authenticator
}

func NewSignUp(auth Authenticator) *SignUp {
	return &SignUp{auth: auth}
}

func (s *SignUp) CanSubmit() bool {
	return s.complete() && !s.Busy()
}

// Submit registers the account. The returned message is empty when the
// user was signed in straight away, or ConfirmEmailMessage when the backend
// wants the address confirmed first.
func (s *SignUp) Submit(ctx context.Context) (string, error) {
	if !s.complete() {
		return "", plain(errMissingCredentials)
	}
	if !s.acquire() {
		return "", ErrBusy
	}
	defer s.release()

	outcome, err := s.auth.SignUp(ctx, s.Email, s.Password)
	if err != nil {
		if userFacing(err) || errors.Is(err, apperror.ErrConflict) {
			return "", plain(err)
		}
		return "", failed("sign up", err)
	}
	if outcome == session.ConfirmationRequired {
		return ConfirmEmailMessage, nil
	}
	return "", nil
}

// SignOut runs a sign-out. The session flag is cleared either way; a
// returned error is only for display.
func SignOut(ctx context.Context, auth Authenticator) error {
	if err := auth.SignOut(ctx); err != nil {
		return failed("log out", err)
	}
	return nil
}
