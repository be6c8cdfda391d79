package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/auth"
	"github.com/sakif/reclaim/internal/model"
	"github.com/sakif/reclaim/internal/repository"
)

// Accounts is the account authority behind the auth routes.
// *sqlite.UserDB implements it.
type Accounts interface {
	SignUp(ctx context.Context, email, password string) (*repository.Session, error)
	SignIn(ctx context.Context, email, password string) (*repository.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*repository.Session, error)
	SignOut(ctx context.Context, userID uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// AuthHandler serves /auth/v1.
//
//	POST /signup                          → session, or the bare user when confirmation is pending
//	POST /token?grant_type=password       → session
//	POST /token?grant_type=refresh_token  → session
//	POST /logout                          → 204 (bearer required)
//	GET  /user                            → user (bearer required)
type AuthHandler struct {
	accounts Accounts
	logger   *slog.Logger
}

func NewAuthHandler(accounts Accounts, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, logger: logger}
}

// SessionResponse is the token grant body.
type SessionResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

// UserResponse is the user object.
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Aud   string    `json:"aud"`
	Role  string    `json:"role"`
	Email string    `json:"email"`
}

// PendingUserResponse is the sign-up body when no session was issued.
type PendingUserResponse struct {
	Aud                string    `json:"aud"`
	Email              string    `json:"email"`
	ConfirmationSentAt time.Time `json:"confirmation_sent_at"`
}

func newUserResponse(u model.User) UserResponse {
	return UserResponse{ID: u.ID, Aud: "authenticated", Role: "authenticated", Email: u.Email}
}

func newSessionResponse(s *repository.Session) SessionResponse {
	return SessionResponse{
		AccessToken:  s.Token.AccessToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(time.Until(s.Token.Expiry).Seconds()),
		ExpiresAt:    s.Token.Expiry.Unix(),
		RefreshToken: s.Token.RefreshToken,
		User:         newUserResponse(s.User),
	}
}

type credentialsRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	RefreshToken string `json:"refresh_token"`
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, error) {
	var req credentialsRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	err := json.NewDecoder(r.Body).Decode(&req)
	return req, err
}

func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(w, r)
	if err != nil {
		writeAuthError(w, http.StatusBadRequest, "bad_json", "Could not parse request body as JSON")
		return
	}

	s, err := h.accounts.SignUp(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, apperror.ErrConflict):
		writeAuthError(w, http.StatusUnprocessableEntity, "user_already_exists", publicMessage(err))
		return
	case errors.Is(err, apperror.ErrValidation):
		writeAuthError(w, http.StatusUnprocessableEntity, "validation_failed", publicMessage(err))
		return
	case err != nil:
		h.logger.Error("sign up failed", slog.String("error", err.Error()))
		writeAuthError(w, http.StatusInternalServerError, "unexpected_failure", publicMessage(err))
		return
	}

	if s == nil {
		// Confirmation pending: the body is the user, without a session.
		h.logger.Info("user signed up, awaiting confirmation")
		writeJSON(w, http.StatusOK, PendingUserResponse{
			Aud:                "authenticated",
			Email:              req.Email,
			ConfirmationSentAt: time.Now().UTC(),
		})
		return
	}

	h.logger.Info("user signed up", slog.String("userID", s.User.ID.String()))
	writeJSON(w, http.StatusOK, newSessionResponse(s))
}

func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(w, r)
	if err != nil {
		writeAuthError(w, http.StatusBadRequest, "bad_json", "Could not parse request body as JSON")
		return
	}

	var s *repository.Session
	switch grant := r.URL.Query().Get("grant_type"); grant {
	case "password":
		s, err = h.accounts.SignIn(r.Context(), req.Email, req.Password)
	case "refresh_token":
		s, err = h.accounts.Refresh(r.Context(), req.RefreshToken)
	default:
		writeAuthError(w, http.StatusBadRequest, "unsupported_grant_type",
			"unsupported_grant_type")
		return
	}

	if errors.Is(err, apperror.ErrUnauthorized) {
		writeGrantError(w, publicMessage(err))
		return
	}
	if err != nil {
		h.logger.Error("token grant failed", slog.String("error", err.Error()))
		writeAuthError(w, http.StatusInternalServerError, "unexpected_failure", publicMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(s))
}

func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	if err := h.accounts.SignOut(r.Context(), user.ID); err != nil {
		h.logger.Error("logout failed", slog.String("error", err.Error()))
		writeAuthError(w, http.StatusInternalServerError, "unexpected_failure", publicMessage(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) HandleUser(w http.ResponseWriter, r *http.Request) {
	claimed, _ := auth.UserFromContext(r.Context())
	user, err := h.accounts.Get(r.Context(), claimed.ID)
	if errors.Is(err, apperror.ErrNotFound) {
		writeAuthError(w, http.StatusForbidden, "user_not_found", "User from sub claim in JWT does not exist")
		return
	}
	if err != nil {
		h.logger.Error("loading user failed", slog.String("error", err.Error()))
		writeAuthError(w, http.StatusInternalServerError, "unexpected_failure", publicMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(*user))
}
