package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"golang.org/x/oauth2"

	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/auth"
	"github.com/sakif/reclaim/internal/model"
	"github.com/sakif/reclaim/internal/repository"
)

// Messages match what the hosted auth API returns so both backends read the
// same on screen.
var (
	ErrInvalidLogin      = apperror.Unauthorized("Invalid login credentials")
	ErrEmailNotConfirmed = apperror.Unauthorized("Email not confirmed")
	ErrUserExists        = apperror.Wrap(apperror.ErrConflict, "User already registered")
	ErrInvalidRefresh    = apperror.Unauthorized("Invalid Refresh Token")
)

// UserDB is the account authority: the users and refresh_tokens tables plus
// password hashing and access-token signing.
type UserDB struct {
	db          *DB
	passwords   *auth.PasswordService
	tokens      *auth.TokenService
	autoConfirm bool
}

// Users returns the account authority. With autoConfirm false, new accounts
// must be confirmed (ConfirmEmail) before they can sign in.
func (db *DB) Users(passwords *auth.PasswordService, tokens *auth.TokenService, autoConfirm bool) *UserDB {
	return &UserDB{
		db:          db,
		passwords:   passwords,
		tokens:      tokens,
		autoConfirm: autoConfirm,
	}
}

// SignUp creates an account. It returns a session only when the account is
// confirmed on creation; otherwise the session is nil.
func (u *UserDB) SignUp(ctx context.Context, email, password string) (*repository.Session, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "Unable to validate email address: invalid format")
	}

	hash, err := u.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := model.User{ID: uuid.New(), Email: email}
	now := time.Now().UTC()
	confirmedAt := sql.Null[time.Time]{V: now, Valid: u.autoConfirm}

	_, err = u.db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, confirmed_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Email, hash, confirmedAt, now,
	)
	if err != nil {
		err = translate("inserting user", err)
		if errors.Is(err, apperror.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	if !u.autoConfirm {
		return nil, nil
	}
	return u.issue(ctx, user)
}

// ConfirmEmail marks an account confirmed.
func (u *UserDB) ConfirmEmail(ctx context.Context, email string) error {
	res, err := u.db.conn.ExecContext(ctx,
		`UPDATE users SET confirmed_at = ? WHERE email = ? AND confirmed_at IS NULL`,
		time.Now().UTC(), normalizeEmail(email),
	)
	if err != nil {
		return fmt.Errorf("sqlite: confirming user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := u.byEmail(ctx, email); err != nil {
			return err
		}
	}
	return nil
}

// SignIn checks the password and issues a session.
func (u *UserDB) SignIn(ctx context.Context, email, password string) (*repository.Session, error) {
	rec, err := u.byEmail(ctx, email)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, ErrInvalidLogin
	}
	if err != nil {
		return nil, err
	}

	if err := u.passwords.Verify(rec.hash, password); err != nil {
		return nil, ErrInvalidLogin
	}
	if !rec.confirmed {
		return nil, ErrEmailNotConfirmed
	}
	return u.issue(ctx, rec.user)
}

// Refresh exchanges a refresh token for a new session. The old refresh token
// is revoked.
func (u *UserDB) Refresh(ctx context.Context, refreshToken string) (*repository.Session, error) {
	var userID uuid.UUID
	err := u.db.conn.QueryRowContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1 WHERE token = ? AND revoked = 0 RETURNING user_id`,
		refreshToken,
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidRefresh
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: rotating refresh token: %w", err)
	}

	user, err := u.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.issue(ctx, *user)
}

// SignOut revokes every refresh token the user holds. Access tokens stay
// valid until they expire.
func (u *UserDB) SignOut(ctx context.Context, userID uuid.UUID) error {
	_, err := u.db.conn.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1 WHERE user_id = ?`, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: revoking refresh tokens: %w", err)
	}
	return nil
}

// Verify validates an access token and returns its user.
func (u *UserDB) Verify(accessToken string) (model.User, error) {
	user, err := u.tokens.Validate(accessToken)
	if err != nil {
		return model.User{}, apperror.Unauthorized("invalid JWT: " + err.Error())
	}
	return user, nil
}

// Get fetches a user by id.
func (u *UserDB) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := u.db.conn.QueryRowContext(ctx,
		`SELECT id, email FROM users WHERE id = ?`, id,
	).Scan(&user.ID, &user.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return &user, nil
}

type userRecord struct {
	user      model.User
	hash      string
	confirmed bool
}

func (u *UserDB) byEmail(ctx context.Context, email string) (*userRecord, error) {
	var (
		rec         userRecord
		confirmedAt sql.Null[time.Time]
	)
	email = normalizeEmail(email)
	err := u.db.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, confirmed_at FROM users WHERE email = ?`, email,
	).Scan(&rec.user.ID, &rec.user.Email, &rec.hash, &confirmedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", email)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: looking up user: %w", err)
	}
	rec.confirmed = confirmedAt.Valid
	return &rec, nil
}

// issue signs an access token and stores a fresh refresh token.
func (u *UserDB) issue(ctx context.Context, user model.User) (*repository.Session, error) {
	access, expiry, err := u.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("sqlite: signing access token: %w", err)
	}

	refresh := xid.New().String()
	_, err = u.db.conn.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token, user_id, created_at) VALUES (?, ?, ?)`,
		refresh, user.ID, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: storing refresh token: %w", err)
	}

	return &repository.Session{
		User: user,
		Token: &oauth2.Token{
			AccessToken:  access,
			TokenType:    "bearer",
			RefreshToken: refresh,
			Expiry:       expiry,
		},
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
