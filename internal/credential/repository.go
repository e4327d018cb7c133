package credential

import (
	"context"
	"errors"
	"time"
)

// ErrClientNotFound is returned when an auth client record is not found,
// including the case of a syntactically invalid client id.
var ErrClientNotFound = errors.New("auth client not found")

// ErrCodeNotFound is returned when an authorization code record is not found.
var ErrCodeNotFound = errors.New("authorization code not found")

// ErrTokenNotFound is returned when a token record is not found.
var ErrTokenNotFound = errors.New("token not found")

// ClientRepository provides lookups on the auth client registry.
type ClientRepository interface {
	GetByID(ctx context.Context, id string) (*AuthClient, error)
}

// CodeRepository provides operations on one-time authorization codes.
type CodeRepository interface {
	CreateCode(ctx context.Context, code *AuthzCode) error
	GetByCode(ctx context.Context, code string) (*AuthzCode, error)
	DeleteCode(ctx context.Context, code string) error
}

// TokenRepository provides operations on issued tokens.
type TokenRepository interface {
	CreateToken(ctx context.Context, token *Token) error
	GetByValue(ctx context.Context, value string) (*Token, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (*Token, error)
	DeleteByValue(ctx context.Context, value string) error
	DeleteByRefreshToken(ctx context.Context, refreshToken string) error
	SetRefreshTokenExpires(ctx context.Context, refreshToken string, expires time.Time) error
}

// Store bundles the three credential repositories behind one handle.
type Store interface {
	ClientRepository
	CodeRepository
	TokenRepository
}
