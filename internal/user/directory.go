package user

import (
	"context"
	"errors"
)

// ErrUserNotFound is returned when a user record is not found.
var ErrUserNotFound = errors.New("user not found")

// Directory resolves user identifiers to user records. It is the only
// contract the auth core has on the wider user store.
type Directory interface {
	GetByUserid(ctx context.Context, userid string) (*User, error)
	GetByUsername(ctx context.Context, username, authority string) (*User, error)
}
