package model

import "github.com/google/uuid"

// User is the authenticated account as reported by the backend's auth API.
// The application only ever needs the identity and the email it signed in with.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}
