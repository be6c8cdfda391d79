package screen

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/session"
)

func TestRoot_Route(t *testing.T) {
	state := session.NewState()
	assert.Equal(t, RouteIntro, NewRoot(state).Route())

	signedIn := &Root{state: authenticatedState(true)}
	assert.Equal(t, RouteHome, signedIn.Route())
}

type authenticatedState bool

func (a authenticatedState) Authenticated() bool { return bool(a) }

func TestLogin(t *testing.T) {
	t.Run("empty fields never reach the backend", func(t *testing.T) {
		auth := &fakeAuth{}
		l := NewLogin(auth)
		l.Email = "  "
		l.Password = "secret1"

		assert.False(t, l.CanSubmit())
		err := l.Submit(context.Background())
		assert.EqualError(t, err, "Email and password are required.")
		assert.Zero(t, auth.calls)
	})

	t.Run("bad credentials show the backend's message", func(t *testing.T) {
		auth := &fakeAuth{signIn: func(string, string) error {
			return fmt.Errorf("session: signing in: %w", apperror.Unauthorized("Invalid login credentials"))
		}}
		l := NewLogin(auth)
		l.Email, l.Password = "a@x.com", "wrong"

		require.True(t, l.CanSubmit())
		err := l.Submit(context.Background())
		assert.EqualError(t, err, "Invalid login credentials")
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	})

	t.Run("network failure", func(t *testing.T) {
		auth := &fakeAuth{signIn: func(string, string) error { return errors.New("dial tcp: connection refused") }}
		l := NewLogin(auth)
		l.Email, l.Password = "a@x.com", "secret1"

		assert.EqualError(t, l.Submit(context.Background()), "Failed to log in: dial tcp: connection refused")
	})

	t.Run("success", func(t *testing.T) {
		auth := &fakeAuth{signIn: func(string, string) error { return nil }}
		l := NewLogin(auth)
		l.Email, l.Password = "a@x.com", "secret1"

		assert.NoError(t, l.Submit(context.Background()))
		assert.False(t, l.Busy())
	})
}

func TestLogin_BusyGuard(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	auth := &fakeAuth{signIn: func(string, string) error {
		close(entered)
		<-release
		return nil
	}}
	l := NewLogin(auth)
	l.Email, l.Password = "a@x.com", "secret1"

	done := make(chan error, 1)
	go func() { done <- l.Submit(context.Background()) }()
	<-entered

	assert.True(t, l.Busy())
	assert.False(t, l.CanSubmit())
	assert.ErrorIs(t, l.Submit(context.Background()), ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, auth.calls)
}

func TestSignUp(t *testing.T) {
	t.Run("confirmation required", func(t *testing.T) {
		auth := &fakeAuth{signUp: func(string, string) (session.SignUpOutcome, error) {
			return session.ConfirmationRequired, nil
		}}
		s := NewSignUp(auth)
		s.Email, s.Password = "a@x.com", "secret1"

		msg, err := s.Submit(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Check your email to confirm your account.", msg)
	})

	t.Run("signed in directly", func(t *testing.T) {
		auth := &fakeAuth{signUp: func(string, string) (session.SignUpOutcome, error) {
			return session.SignedIn, nil
		}}
		s := NewSignUp(auth)
		s.Email, s.Password = "a@x.com", "secret1"

		msg, err := s.Submit(context.Background())
		require.NoError(t, err)
		assert.Empty(t, msg)
	})

	t.Run("already registered", func(t *testing.T) {
		auth := &fakeAuth{signUp: func(string, string) (session.SignUpOutcome, error) {
			return 0, fmt.Errorf("session: signing up: %w", apperror.Wrap(apperror.ErrConflict, "User already registered"))
		}}
		s := NewSignUp(auth)
		s.Email, s.Password = "a@x.com", "secret1"

		_, err := s.Submit(context.Background())
		assert.EqualError(t, err, "User already registered")
	})

	t.Run("missing password", func(t *testing.T) {
		auth := &fakeAuth{}
		s := NewSignUp(auth)
		s.Email = "a@x.com"

		assert.False(t, s.CanSubmit())
		_, err := s.Submit(context.Background())
		assert.Error(t, err)
		assert.Zero(t, auth.calls)
	})
}

func TestSignOut(t *testing.T) {
	auth := &fakeAuth{signOut: func() error { return errors.New("timeout") }}
	assert.EqualError(t, SignOut(context.Background(), auth), "Failed to log out: timeout")

	auth.signOut = func() error { return nil }
	assert.NoError(t, SignOut(context.Background(), auth))
}
