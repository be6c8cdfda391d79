package supabase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/model"
	"github.com/sakif/reclaim/internal/repository"
)

var _ repository.AuthProvider = (*Auth)(nil)

// Auth is the /auth/v1 API.
type Auth struct {
	c *Client
}

func (c *Client) Auth() *Auth {
	return &Auth{c: c}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse is both the token grant response and, with AccessToken
// empty, the bare user returned by a sign-up that awaits confirmation.
type sessionResponse struct {
	AccessToken  string        `json:"access_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	RefreshToken string        `json:"refresh_token"`
	User         *userResponse `json:"user"`
}

type userResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

func (r *sessionResponse) session(now time.Time) (*repository.Session, error) {
	if r.AccessToken == "" || r.User == nil {
		return nil, errors.New("supabase: auth response has no session")
	}

	tok := &oauth2.Token{
		AccessToken:  r.AccessToken,
		TokenType:    r.TokenType,
		RefreshToken: r.RefreshToken,
	}
	switch {
	case r.ExpiresAt > 0:
		tok.Expiry = time.Unix(r.ExpiresAt, 0)
	case r.ExpiresIn > 0:
		tok.Expiry = now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}

	return &repository.Session{
		User:  model.User{ID: r.User.ID, Email: r.User.Email},
		Token: withExpiry(tok),
	}, nil
}

// SignUp returns nil, nil when the project requires email confirmation.
func (a *Auth) SignUp(ctx context.Context, email, password string) (*repository.Session, error) {
	var resp sessionResponse
	err := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   credentials{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		a.c.logger.Info("sign up awaiting confirmation", slog.String("email", email))
		return nil, nil
	}
	return a.save(&resp)
}

func (a *Auth) SignIn(ctx context.Context, email, password string) (*repository.Session, error) {
	var resp sessionResponse
	err := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   credentials{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return a.save(&resp)
}

// SignOut revokes the session server side and always forgets it locally.
func (a *Auth) SignOut(ctx context.Context) error {
	_, err := a.c.store.Load()
	if errors.Is(err, repository.ErrNoSession) {
		return nil
	}

	remoteErr := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		asUser: true,
	}, nil)
	if err := a.c.store.Clear(); err != nil {
		return fmt.Errorf("supabase: clearing session: %w", err)
	}
	return remoteErr
}

// CurrentSession loads the stored session and confirms it with the server,
// refreshing the access token first if it has expired.
func (a *Auth) CurrentSession(ctx context.Context) (*repository.Session, error) {
	if _, err := a.c.store.Load(); err != nil {
		return nil, err
	}

	var user userResponse
	err := a.c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/v1/user",
		asUser: true,
	}, &user)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			_ = a.c.store.Clear()
		}
		return nil, err
	}

	// The request may have refreshed the token; return what is stored now.
	s, err := a.c.store.Load()
	if err != nil {
		return nil, err
	}
	s.User = model.User{ID: user.ID, Email: user.Email}
	return s, nil
}

func (a *Auth) save(resp *sessionResponse) (*repository.Session, error) {
	s, err := resp.session(time.Now())
	if err != nil {
		return nil, err
	}
	if err := a.c.store.Save(s); err != nil {
		return nil, fmt.Errorf("supabase: saving session: %w", err)
	}
	return s, nil
}

// refresh runs the refresh_token grant and persists the new session. A
// rejected refresh token clears the stored session.
func (c *Client) refresh(ctx context.Context, refreshToken string) (*repository.Session, error) {
	var resp sessionResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
	}, &resp)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			_ = c.store.Clear()
		}
		return nil, err
	}

	s, err := resp.session(time.Now())
	if err != nil {
		return nil, err
	}
	if err := c.store.Save(s); err != nil {
		return nil, fmt.Errorf("supabase: saving session: %w", err)
	}
	c.logger.Debug("session refreshed", slog.String("userID", s.User.ID.String()))
	return s, nil
}
