package supabase

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/reclaim/internal/auth"
	"github.com/sakif/reclaim/internal/repository"
)

// refreshingSource trades the session's refresh token for a new session when
// the access token has expired, and persists the result.
type refreshingSource struct {
	ctx          context.Context
	client       *Client
	refreshToken string
}

func (s *refreshingSource) Token() (*oauth2.Token, error) {
	if s.refreshToken == "" {
		return nil, &refreshError{err: repository.ErrNoSession}
	}
	sess, err := s.client.refresh(s.ctx, s.refreshToken)
	if err != nil {
		return nil, &refreshError{err: err}
	}
	return sess.Token, nil
}

// refreshError lets do() recover the refresh failure from the transport's
// wrapped error.
type refreshError struct {
	err error
}

func (e *refreshError) Error() string { return "supabase: refreshing session: " + e.err.Error() }
func (e *refreshError) Unwrap() error { return e.err }

// withExpiry fills a missing Expiry from the access token's exp claim so
// oauth2 knows when to refresh.
func withExpiry(t *oauth2.Token) *oauth2.Token {
	if !t.Expiry.IsZero() {
		return t
	}
	out := *t
	claims, err := auth.PeekClaims(t.AccessToken)
	if err != nil || claims.ExpiresAt == nil {
		// Unknown expiry: treat as expired so the first call refreshes.
		out.Expiry = time.Unix(1, 0)
		return &out
	}
	out.Expiry = claims.ExpiresAt.Time
	return &out
}
