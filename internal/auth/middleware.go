package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/reclaim/internal/model"
)

// contextKey is unexported so only this package can read or write the values.
type contextKey string

const userKey contextKey = "user"

// RequireAuth enforces a valid bearer access token on the wrapped routes.
//
// It reads "Authorization: Bearer <jwt>", validates it and stores the user in
// the request context. Missing or invalid tokens get a 401 in the same JSON
// shape the hosted auth server uses.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := extractUser(r, tokens)
			if err != nil {
				unauthorized(w, "invalid JWT: unable to parse or verify signature")
				return
			}

			ctx := WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAPIKey rejects requests whose `apikey` header does not match key.
// An empty key disables the check.
func RequireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key != "" && r.Header.Get("apikey") != key {
				unauthorized(w, "Invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser returns a context carrying user.
func WithUser(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext retrieves the authenticated user from the request context.
func UserFromContext(ctx context.Context) (model.User, bool) {
	u, ok := ctx.Value(userKey).(model.User)
	return u, ok
}

// BearerToken returns the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(h, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

var errMissingBearer = errors.New("auth: missing bearer token")

func extractUser(r *http.Request, tokens *TokenService) (model.User, error) {
	token, ok := BearerToken(r)
	if !ok {
		return model.User{}, errMissingBearer
	}
	return tokens.Validate(token)
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"code":401,"msg":"` + msg + `"}`))
}
