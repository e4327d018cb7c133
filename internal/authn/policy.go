// Package authn resolves inbound requests to an authenticated identity and
// a set of effective principals. Four strategies share one contract: cookie
// ticket auth for browsers, bearer token auth for API calls, HTTP Basic auth
// for registered auth clients, and a composite resolver with fixed
// precedence over the last two.
package authn

import (
	"net/http"

	"github.com/glosshub/gloss/internal/credential"
	"github.com/glosshub/gloss/internal/user"
)

// Principal is an opaque capability tag attached to a resolved identity,
// consumed by downstream authorization checks.
type Principal string

// Identity is the resolved principal set of a single request. Either field
// may be nil: a bare auth client carries no user, a cookie session carries
// no client.
type Identity struct {
	User       *user.User
	AuthClient *credential.AuthClient
}

// Policy converts a request into an identity and its principals. A nil
// identity with a nil error means the request is anonymous under this
// policy; errors are reserved for store failures.
type Policy interface {
	Identity(r *http.Request) (*Identity, error)
	Principals(r *http.Request) ([]Principal, error)
}

// PrincipalsFor derives the effective principals of an identity.
func PrincipalsFor(id *Identity) []Principal {
	if id == nil {
		return nil
	}
	var ps []Principal
	if id.User != nil {
		ps = append(ps,
			Principal(id.User.Userid),
			Principal("authority:"+id.User.Authority),
		)
	}
	if id.AuthClient != nil {
		ps = append(ps,
			Principal("client:"+id.AuthClient.ID),
			Principal("client_authority:"+id.AuthClient.Authority),
		)
	}
	return ps
}
