// Package service holds the room and item calls the screens make.
//
// Each method is one user action: it validates its inputs, performs at most
// two dependent backend calls in strict sequence, and returns the result (or
// the error) to the caller. Nothing is cached, retried or rolled back.
//
// Services depend on repository interfaces and on an Identity for "who is
// signed in"; main.go decides which backend implements them.
package service

import (
	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/model"
)

// Identity reports the signed-in user. *session.State satisfies it.
type Identity interface {
	User() (model.User, bool)
}

// ErrNotSignedIn is returned by any call that needs a user when there is none.
var ErrNotSignedIn = apperror.Unauthorized("User Not Logged In")

func currentUser(who Identity) (model.User, error) {
	u, ok := who.User()
	if !ok {
		return model.User{}, ErrNotSignedIn
	}
	return u, nil
}
