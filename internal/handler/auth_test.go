package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/reclaim/internal/auth"
	"github.com/sakif/reclaim/internal/repository/sqlite"
)

func newAuthFixture(t *testing.T, autoConfirm bool) (*AuthHandler, *sqlite.UserDB, *auth.TokenService) {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)
	users := db.Users(auth.NewPasswordServiceForTest(bcrypt.MinCost), tokens, autoConfirm)
	return NewAuthHandler(users, slog.New(slog.NewTextHandler(io.Discard, nil))), users, tokens
}

func postJSON(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHandleSignUp(t *testing.T) {
	t.Run("auto confirm returns a session", func(t *testing.T) {
		h, _, _ := newAuthFixture(t, true)
		rr := httptest.NewRecorder()
		h.HandleSignUp(rr, postJSON("/auth/v1/signup", `{"email":"a@x.com","password":"secret1"}`))

		require.Equal(t, http.StatusOK, rr.Code)
		var s SessionResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&s))
		assert.NotEmpty(t, s.AccessToken)
		assert.Equal(t, "a@x.com", s.User.Email)
	})

	t.Run("pending confirmation returns no token", func(t *testing.T) {
		h, _, _ := newAuthFixture(t, false)
		rr := httptest.NewRecorder()
		h.HandleSignUp(rr, postJSON("/auth/v1/signup", `{"email":"a@x.com","password":"secret1"}`))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.NotContains(t, rr.Body.String(), "access_token")
		assert.Contains(t, rr.Body.String(), "confirmation_sent_at")
	})

	t.Run("existing user is 422", func(t *testing.T) {
		h, _, _ := newAuthFixture(t, true)
		h.HandleSignUp(httptest.NewRecorder(), postJSON("/auth/v1/signup", `{"email":"a@x.com","password":"secret1"}`))

		rr := httptest.NewRecorder()
		h.HandleSignUp(rr, postJSON("/auth/v1/signup", `{"email":"a@x.com","password":"secret1"}`))
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		var e AuthError
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&e))
		assert.Equal(t, "user_already_exists", e.ErrorCode)
	})

	t.Run("weak password is 422", func(t *testing.T) {
		h, _, _ := newAuthFixture(t, true)
		rr := httptest.NewRecorder()
		h.HandleSignUp(rr, postJSON("/auth/v1/signup", `{"email":"a@x.com","password":"123"}`))
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})
}

func TestHandleToken(t *testing.T) {
	h, users, _ := newAuthFixture(t, true)
	_, err := users.SignUp(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)

	t.Run("password grant", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleToken(rr, postJSON("/auth/v1/token?grant_type=password", `{"email":"a@x.com","password":"secret1"}`))
		require.Equal(t, http.StatusOK, rr.Code)

		var s SessionResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&s))

		rr = httptest.NewRecorder()
		h.HandleToken(rr, postJSON("/auth/v1/token?grant_type=refresh_token",
			`{"refresh_token":"`+s.RefreshToken+`"}`))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("bad password is invalid_grant", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleToken(rr, postJSON("/auth/v1/token?grant_type=password", `{"email":"a@x.com","password":"nope!!"}`))
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var e GrantError
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&e))
		assert.Equal(t, "invalid_grant", e.Error)
		assert.Equal(t, "Invalid login credentials", e.ErrorDescription)
	})

	t.Run("unknown grant", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleToken(rr, postJSON("/auth/v1/token?grant_type=magic", `{}`))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandleUser(t *testing.T) {
	h, users, _ := newAuthFixture(t, true)
	s, err := users.SignUp(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/v1/user", nil)
	req = req.WithContext(auth.WithUser(req.Context(), s.User))
	rr := httptest.NewRecorder()
	h.HandleUser(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var u UserResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&u))
	assert.Equal(t, s.User.ID, u.ID)
}
