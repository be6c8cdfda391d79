// Package auth holds the token and password primitives used on both sides of
// the backend boundary:
//
//   - the local backend (repository/sqlite and the emulator server) signs and
//     validates HS256 access tokens with TokenService and hashes account
//     passwords with PasswordService;
//   - the hosted-backend client reads claims out of access tokens it was handed
//     (PeekClaims) and persists the device session with a SessionStore.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header:  {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"<user uuid>","email":"a@x.com","exp":1234567890,...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sakif/reclaim/internal/model"
)

// Issuer is stamped into every token the local backend signs.
const Issuer = "reclaim-local"

// DefaultAccessTTL matches the hosted backend's default access token lifetime.
const DefaultAccessTTL = time.Hour

// TokenService handles JWT creation and validation for the local backend.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data outside of tests.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), ttl: DefaultAccessTTL, now: time.Now}, nil
}

// Claims is the access token payload. Subject carries the user's UUID; Email
// and Role mirror the claims the hosted auth server puts in its tokens.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Generate signs an access token for user with the default lifetime.
func (s *TokenService) Generate(user model.User) (string, time.Time, error) {
	return s.GenerateWithDuration(user, s.ttl)
}

// GenerateWithDuration signs a token with a custom lifetime. Tests use a
// negative duration to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(user model.User, d time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(d)

	c := Claims{
		Email: user.Email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, expiresAt, nil
}

// Validate parses and verifies a token and returns the user it was issued to.
//
// Signature, expiry, issuer and algorithm are all checked; passing
// jwt.WithValidMethods rejects "none" and algorithm-confusion tokens.
func (s *TokenService) Validate(tokenStr string) (model.User, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.User{}, ErrTokenExpired
		}
		return model.User{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return model.User{}, errors.New("auth: invalid token claims")
	}

	return userFromClaims(c)
}

// ErrTokenExpired is returned by Validate for well-formed but expired tokens.
var ErrTokenExpired = errors.New("auth: token expired")

// PeekClaims decodes a token WITHOUT verifying its signature. The client
// never holds the hosted backend's signing secret; it only reads the subject
// and expiry of a token the backend itself handed over.
func PeekClaims(tokenStr string) (*Claims, error) {
	c := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, c); err != nil {
		return nil, fmt.Errorf("auth: decoding token: %w", err)
	}
	return c, nil
}

func userFromClaims(c *Claims) (model.User, error) {
	if c.Subject == "" {
		return model.User{}, errors.New("auth: token has no subject")
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return model.User{}, fmt.Errorf("auth: token subject is not a user id: %w", err)
	}
	return model.User{ID: id, Email: c.Email}, nil
}
