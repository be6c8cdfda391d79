// Package session owns the application's single "is a user signed in" flag.
//
// The State is created by the root composition and passed to whoever needs to
// read it. Only the auth-flow functions in this package (Flow) can change it;
// nothing else talks to the backend's session directly.
package session

import (
	"sync"

	"github.com/sakif/reclaim/internal/model"
)

// State is the authenticated / not-authenticated flag plus the signed-in user.
// The zero value is a valid, unauthenticated State.
type State struct {
	mu            sync.RWMutex
	authenticated bool
	user          model.User
}

// NewState returns an unauthenticated State.
func NewState() *State {
	return &State{}
}

// Authenticated reports whether a user is signed in.
func (s *State) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// User returns the signed-in user, if any.
func (s *State) User() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.authenticated
}

func (s *State) signIn(user model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = true
	s.user = user
}

func (s *State) signOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
	s.user = model.User{}
}
