package authn

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/glosshub/gloss/internal/credential"
	"github.com/glosshub/gloss/internal/user"
)

// BearerTokenPolicy resolves identity from a bearer token presented in the
// Authorization header or, on WebSocket upgrade requests only, in the
// access_token query parameter.
type BearerTokenPolicy struct {
	tokens credential.TokenRepository
	users  user.Directory
	now    func() time.Time
}

// NewBearerTokenPolicy creates a BearerTokenPolicy over the given stores.
func NewBearerTokenPolicy(tokens credential.TokenRepository, users user.Directory) *BearerTokenPolicy {
	return &BearerTokenPolicy{tokens: tokens, users: users, now: time.Now}
}

// Identity resolves the request's bearer token to its owning user. Missing,
// unknown, and expired tokens all yield an anonymous request.
func (p *BearerTokenPolicy) Identity(r *http.Request) (*Identity, error) {
	value := BearerTokenFromRequest(r)
	if value == "" {
		return nil, nil
	}

	t, err := p.tokens.GetByValue(r.Context(), value)
	if err != nil {
		if errors.Is(err, credential.ErrTokenNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if t.Expired(p.now()) {
		return nil, nil
	}

	u, err := p.resolveUser(r.Context(), t.UserID)
	if err != nil || u == nil {
		return nil, err
	}
	return &Identity{User: u}, nil
}

// Principals returns the principals of the resolved identity.
func (p *BearerTokenPolicy) Principals(r *http.Request) ([]Principal, error) {
	id, err := p.Identity(r)
	if err != nil {
		return nil, err
	}
	return PrincipalsFor(id), nil
}

func (p *BearerTokenPolicy) resolveUser(ctx context.Context, userid string) (*user.User, error) {
	u, err := p.users.GetByUserid(ctx, userid)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if u.Deleted {
		return nil, nil
	}
	return u, nil
}

// BearerTokenFromRequest extracts the bearer token value from a request, or
// returns "" when none is presented. The query parameter form is accepted
// only on WebSocket upgrade requests, which cannot set headers from
// browsers.
func BearerTokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if isWebSocketUpgrade(r) {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

func isWebSocketUpgrade(r *http.Request) bool {
	if !strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return false
	}
	for _, part := range strings.Split(r.Header.Get("Connection"), ",") {
		if strings.EqualFold(strings.TrimSpace(part), "upgrade") {
			return true
		}
	}
	return false
}
