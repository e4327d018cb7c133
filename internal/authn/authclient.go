package authn

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/glosshub/gloss/internal/credential"
	"github.com/glosshub/gloss/internal/user"
)

// ForwardedUserHeader names the user an auth client asserts it is acting on
// behalf of.
const ForwardedUserHeader = "X-Forwarded-User"

// AuthClientPolicy resolves identity from HTTP Basic auth client
// credentials, optionally acting on behalf of a forwarded user.
type AuthClientPolicy struct {
	clients credential.ClientRepository
	users   user.Directory
}

// NewAuthClientPolicy creates an AuthClientPolicy over the given stores.
func NewAuthClientPolicy(clients credential.ClientRepository, users user.Directory) *AuthClientPolicy {
	return &AuthClientPolicy{clients: clients, users: users}
}

// Identity authenticates the Basic credentials as an auth client. With a
// forwarded-user header, the user must resolve and share the client's
// authority; a mismatch or unresolvable user leaves the whole request
// anonymous rather than falling back to the bare client.
func (p *AuthClientPolicy) Identity(r *http.Request) (*Identity, error) {
	clientID, secret, ok := r.BasicAuth()
	if !ok {
		return nil, nil
	}

	client, err := p.clients.GetByID(r.Context(), clientID)
	if err != nil {
		if errors.Is(err, credential.ErrClientNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if client.GrantType != credential.GrantClientCredentials || client.Secret == nil {
		return nil, nil
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(*client.Secret)) != 1 {
		return nil, nil
	}

	forwarded := r.Header.Get(ForwardedUserHeader)
	if forwarded == "" {
		return &Identity{AuthClient: client}, nil
	}

	u, err := p.users.GetByUserid(r.Context(), forwarded)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if u.Deleted || u.Authority != client.Authority {
		return nil, nil
	}

	return &Identity{User: u, AuthClient: client}, nil
}

// Principals returns the principals of the resolved identity.
func (p *AuthClientPolicy) Principals(r *http.Request) ([]Principal, error) {
	id, err := p.Identity(r)
	if err != nil {
		return nil, err
	}
	return PrincipalsFor(id), nil
}
