package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/model"
	"github.com/sakif/reclaim/internal/repository"
)

// fakeAuth is an in-memory AuthProvider. Each field controls one call.
type fakeAuth struct {
	current    *repository.Session
	currentErr error

	signUpSession *repository.Session
	signUpErr     error

	signInSession *repository.Session
	signInErr     error

	signOutErr error

	calls []string
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password string) (*repository.Session, error) {
	f.calls = append(f.calls, "signup")
	return f.signUpSession, f.signUpErr
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (*repository.Session, error) {
	f.calls = append(f.calls, "signin")
	return f.signInSession, f.signInErr
}

func (f *fakeAuth) SignOut(ctx context.Context) error {
	f.calls = append(f.calls, "signout")
	return f.signOutErr
}

func (f *fakeAuth) CurrentSession(ctx context.Context) (*repository.Session, error) {
	f.calls = append(f.calls, "current")
	return f.current, f.currentErr
}

var testUser = model.User{
	ID:    uuid.MustParse("7f1f1c1e-0b8e-4d5c-9a57-3c1f1a2b4d10"),
	Email: "a@x.com",
}

func newTestFlow(auth *fakeAuth) *Flow {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewFlow(auth, NewState(), logger)
}

func TestState_ZeroValueIsSignedOut(t *testing.T) {
	var s State
	assert.False(t, s.Authenticated())
	_, ok := s.User()
	assert.False(t, ok)
}

func TestRestore(t *testing.T) {
	t.Run("existing session sets flag", func(t *testing.T) {
		f := newTestFlow(&fakeAuth{current: &repository.Session{User: testUser}})
		f.Restore(context.Background())

		assert.True(t, f.State().Authenticated())
		u, ok := f.State().User()
		require.True(t, ok)
		assert.Equal(t, testUser, u)
	})

	t.Run("no session leaves flag false", func(t *testing.T) {
		f := newTestFlow(&fakeAuth{currentErr: repository.ErrNoSession})
		f.Restore(context.Background())
		assert.False(t, f.State().Authenticated())
	})

	t.Run("backend failure leaves flag false", func(t *testing.T) {
		f := newTestFlow(&fakeAuth{currentErr: errors.New("network down")})
		f.Restore(context.Background())
		assert.False(t, f.State().Authenticated())
	})
}

func TestSignUp(t *testing.T) {
	t.Run("session returned", func(t *testing.T) {
		f := newTestFlow(&fakeAuth{signUpSession: &repository.Session{User: testUser}})

		outcome, err := f.SignUp(context.Background(), " a@x.com ", "secret1")
		require.NoError(t, err)
		assert.Equal(t, SignedIn, outcome)
		assert.True(t, f.State().Authenticated())
	})

	t.Run("confirmation pending keeps flag false", func(t *testing.T) {
		f := newTestFlow(&fakeAuth{})

		outcome, err := f.SignUp(context.Background(), "a@x.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, ConfirmationRequired, outcome)
		assert.False(t, f.State().Authenticated())
	})

	t.Run("backend error", func(t *testing.T) {
		f := newTestFlow(&fakeAuth{signUpErr: apperror.Conflict("user", "a@x.com")})

		_, err := f.SignUp(context.Background(), "a@x.com", "secret1")
		require.Error(t, err)
		assert.ErrorIs(t, err, apperror.ErrConflict)
		assert.False(t, f.State().Authenticated())
	})

	t.Run("empty fields never reach backend", func(t *testing.T) {
		auth := &fakeAuth{}
		f := newTestFlow(auth)

		_, err := f.SignUp(context.Background(), "", "secret1")
		assert.ErrorIs(t, err, apperror.ErrValidation)
		_, err = f.SignUp(context.Background(), "a@x.com", "")
		assert.ErrorIs(t, err, apperror.ErrValidation)
		assert.Empty(t, auth.calls)
	})
}

func TestSignIn(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newTestFlow(&fakeAuth{signInSession: &repository.Session{User: testUser}})

		require.NoError(t, f.SignIn(context.Background(), "a@x.com", "secret1"))
		assert.True(t, f.State().Authenticated())
	})

	t.Run("bad credentials", func(t *testing.T) {
		f := newTestFlow(&fakeAuth{signInErr: apperror.Unauthorized("Invalid login credentials")})

		err := f.SignIn(context.Background(), "a@x.com", "wrong")
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
		assert.False(t, f.State().Authenticated())
	})
}

func TestSignOut(t *testing.T) {
	t.Run("success clears flag", func(t *testing.T) {
		f := newTestFlow(&fakeAuth{signInSession: &repository.Session{User: testUser}})
		require.NoError(t, f.SignIn(context.Background(), "a@x.com", "secret1"))

		require.NoError(t, f.SignOut(context.Background()))
		assert.False(t, f.State().Authenticated())
	})

	t.Run("backend failure still clears flag", func(t *testing.T) {
		f := newTestFlow(&fakeAuth{
			signInSession: &repository.Session{User: testUser},
			signOutErr:    errors.New("network down"),
		})
		require.NoError(t, f.SignIn(context.Background(), "a@x.com", "secret1"))

		err := f.SignOut(context.Background())
		require.Error(t, err)
		assert.False(t, f.State().Authenticated())
	})
}
