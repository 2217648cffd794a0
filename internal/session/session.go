package session

import (
	"context"
	"errors"
)

var (
	ErrInvalidSession = errors.New("session token was invalid")
	ErrNotFound       = errors.New("no session was persisted")
	ErrEmptyToken     = errors.New("session token is empty")
)

// Session is the authenticated-user context: the backend's bearer token, or nothing
type Session struct {
	Token string
}

func (s Session) Authenticated() bool {
	return s.Token != ""
}

// UserID is the id of the user the token was issued to, or "" if the token doesn't say
func (s Session) UserID() string {
	return userIDFromToken(s.Token)
}

type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Storage persists a single opaque value. Implementations return ErrNotFound from Load
// when nothing has been saved.
type Storage interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, value string) error
	Clear(ctx context.Context) error
}
