// Package supabase talks to the hosted backend over HTTP: the auth API
// (/auth/v1), the tables API (/rest/v1) and object storage (/storage/v1).
//
// Every request carries the project's anon key in the apikey header.
// Requests made on behalf of a user also carry the session's access token,
// attached by an oauth2 client whose token source refreshes and re-persists
// the session when the access token expires.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/reclaim/internal/auth"
	"github.com/sakif/reclaim/internal/repository"
)

// DefaultTimeout bounds every HTTP call made by the client.
const DefaultTimeout = 30 * time.Second

// Config points the client at a project.
type Config struct {
	URL     string
	AnonKey string
	// HTTPClient is the transport to use; nil means a client with
	// DefaultTimeout.
	HTTPClient *http.Client
}

// Client is the shared HTTP plumbing. The typed views (Auth, Rooms, Members,
// Items, Storage) are built from it.
type Client struct {
	baseURL *url.URL
	anonKey string
	http    *http.Client
	store   auth.SessionStore
	logger  *slog.Logger
}

// New validates cfg and returns a Client that persists sessions in store.
func New(cfg Config, store auth.SessionStore, logger *slog.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("supabase: project URL is required")
	}
	if cfg.AnonKey == "" {
		return nil, errors.New("supabase: anon key is required")
	}
	u, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("supabase: parsing project URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("supabase: project URL must be http or https, got %q", cfg.URL)
	}

	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: DefaultTimeout}
	}
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	withKey := *base
	withKey.Transport = &apiKeyTransport{key: cfg.AnonKey, next: transport}

	return &Client{
		baseURL: u,
		anonKey: cfg.AnonKey,
		http:    &withKey,
		store:   store,
		logger:  logger,
	}, nil
}

// Backend bundles the client's views. Tables can be swapped for another
// implementation afterwards (e.g. direct Postgres).
func (c *Client) Backend() *repository.Backend {
	return &repository.Backend{
		Auth:    c.Auth(),
		Rooms:   c.Rooms(),
		Members: c.Members(),
		Items:   c.Items(),
		Storage: c.Storage(),
		Close:   func() error { return nil },
	}
}

// apiKeyTransport adds the project key to every outgoing request.
type apiKeyTransport struct {
	key  string
	next http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("apikey", t.key)
	return t.next.RoundTrip(req)
}

// endpoint joins an already-escaped path and a query onto the project URL.
func (c *Client) endpoint(path string, query url.Values) string {
	s := c.baseURL.String() + path
	if len(query) > 0 {
		s += "?" + query.Encode()
	}
	return s
}

// userClient returns an HTTP client that authenticates as the stored
// session's user, refreshing the access token when needed.
func (c *Client) userClient(ctx context.Context) (*http.Client, error) {
	s, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	if s.Token == nil || s.Token.AccessToken == "" {
		return nil, repository.ErrNoSession
	}

	src := oauth2.ReuseTokenSource(withExpiry(s.Token), &refreshingSource{
		ctx:          ctx,
		client:       c,
		refreshToken: s.Token.RefreshToken,
	})
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	return oauth2.NewClient(ctx, src), nil
}

// request describes one API call.
type request struct {
	method string
	path   string
	query  url.Values
	header http.Header
	// body is JSON-encoded unless raw is set.
	body any
	raw  []byte
	// asUser attaches the session's bearer token.
	asUser bool
}

// do performs req and decodes a 2xx JSON response into out (if non-nil).
// Non-2xx responses are decoded into apperror kinds.
func (c *Client) do(ctx context.Context, req request, out any) error {
	var body io.Reader
	switch {
	case req.raw != nil:
		body = bytes.NewReader(req.raw)
	case req.body != nil:
		b, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("supabase: encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.endpoint(req.path, req.query), body)
	if err != nil {
		return fmt.Errorf("supabase: building request: %w", err)
	}
	for k, vs := range req.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	hc := c.http
	if req.asUser {
		if hc, err = c.userClient(ctx); err != nil {
			return err
		}
	}

	start := time.Now()
	resp, err := hc.Do(httpReq)
	if err != nil {
		// A failed refresh surfaces from the oauth2 transport wrapped in
		// *url.Error; unwrap it so callers see the apperror kind.
		var rerr *refreshError
		if errors.As(err, &rerr) {
			return rerr.err
		}
		return fmt.Errorf("supabase: %s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("supabase request",
		slog.String("method", req.method),
		slog.String("path", req.path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp, req.path)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("supabase: decoding %s response: %w", req.path, err)
	}
	return nil
}
