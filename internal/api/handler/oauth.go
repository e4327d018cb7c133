package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/glosshub/gloss/internal/credential"
	"github.com/glosshub/gloss/internal/oauth"
	"github.com/glosshub/gloss/internal/txcache"
	"github.com/glosshub/gloss/internal/user"
)

// OAuthDeps builds the per-request OAuth machinery. Every request gets its
// own unit of work, so validator lookup caches live exactly as long as the
// request's outer transaction.
type OAuthDeps struct {
	DB         txcache.Beginner
	Domain     string
	TrustProxy bool
}

// withProvider runs fn with a provider bound to a fresh unit of work,
// committing on success and rolling back on error.
func (d *OAuthDeps) withProvider(ctx context.Context, fn func(p *oauth.Provider) error) error {
	uow := txcache.NewUnitOfWork(d.DB)
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	store := credential.NewStore(uow)
	users := user.NewDirectory(uow)
	v := oauth.NewValidator(uow, store, users)
	p := oauth.NewProvider(v, users, d.Domain)

	if err := fn(p); err != nil {
		_ = uow.Rollback(ctx)
		return err
	}
	return uow.Commit(ctx)
}

// requestInfo derives the values substituted into templated redirect URIs.
// X-Forwarded-Proto is honored only when the server is configured to sit
// behind a trusted proxy; otherwise a direct client could steer the scheme
// of expanded redirect URIs.
func (d *OAuthDeps) requestInfo(r *http.Request) oauth.RequestInfo {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if d.TrustProxy {
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.ToLower(proto)
		}
	}
	return oauth.RequestInfo{Scheme: scheme, Host: r.Host}
}
