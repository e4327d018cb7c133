package authn

import (
	"net/http"
)

// Route is an HTTP method and URL path pair on the auth client allow-list.
type Route struct {
	Method string
	Path   string
}

// Resolver applies the API policies in fixed precedence: a presented bearer
// token always wins; absent one, auth client credentials are consulted, but
// only on an explicit allow-list of routes. Acting "as" a tenant-wide
// client is only safe on a known, reviewed subset of endpoints, so the
// precedence order and the allow-list are both security properties.
//
// The allow-list matches on the raw request path, not the routed pattern:
// the resolver runs as middleware mounted above the endpoint, where routing
// has not completed yet and the matched pattern is still a subrouter
// wildcard.
type Resolver struct {
	bearer       Policy
	client       Policy
	clientRoutes map[Route]struct{}
}

// NewResolver creates a Resolver with the given auth client route
// allow-list.
func NewResolver(bearer, client Policy, clientRoutes []Route) *Resolver {
	allowed := make(map[Route]struct{}, len(clientRoutes))
	for _, rt := range clientRoutes {
		allowed[rt] = struct{}{}
	}
	return &Resolver{bearer: bearer, client: client, clientRoutes: allowed}
}

// Identity resolves the request through the first applicable policy.
func (p *Resolver) Identity(r *http.Request) (*Identity, error) {
	if BearerTokenFromRequest(r) != "" {
		return p.bearer.Identity(r)
	}
	if _, ok := p.clientRoutes[Route{Method: r.Method, Path: r.URL.Path}]; ok {
		return p.client.Identity(r)
	}
	return nil, nil
}

// Principals returns the principals of the resolved identity.
func (p *Resolver) Principals(r *http.Request) ([]Principal, error) {
	id, err := p.Identity(r)
	if err != nil {
		return nil, err
	}
	return PrincipalsFor(id), nil
}
