package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/reclaim/internal/auth"
	"github.com/sakif/reclaim/internal/repository"
)

var _ repository.AuthProvider = (*AuthClient)(nil)

// AuthClient is the device side of the local auth API: it calls UserDB
// directly and keeps the resulting session in a SessionStore.
type AuthClient struct {
	users *UserDB
	store auth.SessionStore
	now   func() time.Time
}

func NewAuthClient(users *UserDB, store auth.SessionStore) *AuthClient {
	return &AuthClient{users: users, store: store, now: time.Now}
}

func (c *AuthClient) SignUp(ctx context.Context, email, password string) (*repository.Session, error) {
	s, err := c.users.SignUp(ctx, email, password)
	if err != nil || s == nil {
		return nil, err
	}
	if err := c.store.Save(s); err != nil {
		return nil, fmt.Errorf("sqlite: saving session: %w", err)
	}
	return s, nil
}

func (c *AuthClient) SignIn(ctx context.Context, email, password string) (*repository.Session, error) {
	s, err := c.users.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := c.store.Save(s); err != nil {
		return nil, fmt.Errorf("sqlite: saving session: %w", err)
	}
	return s, nil
}

// SignOut revokes the stored session and forgets it locally. The local copy
// is cleared even when revocation fails.
func (c *AuthClient) SignOut(ctx context.Context) error {
	s, err := c.store.Load()
	if errors.Is(err, repository.ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}

	revokeErr := c.users.SignOut(ctx, s.User.ID)
	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("sqlite: clearing session: %w", err)
	}
	return revokeErr
}

// CurrentSession returns the stored session, refreshing it when the access
// token has expired.
func (c *AuthClient) CurrentSession(ctx context.Context) (*repository.Session, error) {
	s, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	if s.Token == nil {
		return nil, repository.ErrNoSession
	}

	if s.Token.Expiry.IsZero() || c.now().Before(s.Token.Expiry) {
		if _, err := c.users.Verify(s.Token.AccessToken); err == nil {
			return s, nil
		}
	}

	fresh, err := c.users.Refresh(ctx, s.Token.RefreshToken)
	if err != nil {
		_ = c.store.Clear()
		return nil, err
	}
	if err := c.store.Save(fresh); err != nil {
		return nil, fmt.Errorf("sqlite: saving session: %w", err)
	}
	return fresh, nil
}
