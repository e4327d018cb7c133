package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glosshub/gloss/internal/api/handler"
	"github.com/glosshub/gloss/internal/api/middleware"
	"github.com/glosshub/gloss/internal/authn"
	"github.com/glosshub/gloss/internal/credential"
	"github.com/glosshub/gloss/internal/ticket"
	"github.com/glosshub/gloss/internal/txcache"
	"github.com/glosshub/gloss/internal/user"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Pool              *pgxpool.Pool
	Domain            string
	CookieSecret      []byte
	SecureCookies     bool
	TrustProxyHeaders bool
	Version           string
}

// authClientRoutes is the allow-list of routes the auth client policy is
// consulted for. Keep it short and reviewed: these endpoints accept a
// tenant-wide client acting on behalf of a forwarded user.
var authClientRoutes = []authn.Route{
	{Method: "GET", Path: "/api/profile"},
}

// routerConfig is the assembled component set the routes are wired over.
type routerConfig struct {
	store         credential.Store
	users         user.Directory
	tickets       *ticket.Service
	oauthDB       txcache.Beginner
	health        handler.DBPinger
	domain        string
	cookieSecret  []byte
	secureCookies bool
	trustProxy    bool
	version       string
}

// NewRouter creates and configures a Chi router with all middleware and
// routes, backed by the given database pool.
func NewRouter(deps RouterDeps) *chi.Mux {
	store := credential.NewStore(deps.Pool)
	users := user.NewDirectory(deps.Pool)
	tickets := ticket.NewService(ticket.NewRepository(deps.Pool), users)

	return buildRouter(routerConfig{
		store:         store,
		users:         users,
		tickets:       tickets,
		oauthDB:       deps.Pool,
		health:        deps.Pool,
		domain:        deps.Domain,
		cookieSecret:  deps.CookieSecret,
		secureCookies: deps.SecureCookies,
		trustProxy:    deps.TrustProxyHeaders,
		version:       deps.Version,
	})
}

func buildRouter(cfg routerConfig) *chi.Mux {
	cookie := authn.NewTicketCookie(cfg.cookieSecret, cfg.secureCookies)
	cookiePolicy := authn.NewCookieTicketPolicy(cfg.tickets, cookie)
	resolver := authn.NewResolver(
		authn.NewBearerTokenPolicy(cfg.store, cfg.users),
		authn.NewAuthClientPolicy(cfg.store, cfg.users),
		authClientRoutes,
	)

	oauthDeps := &handler.OAuthDeps{
		DB:         cfg.oauthDB,
		Domain:     cfg.domain,
		TrustProxy: cfg.trustProxy,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)

	r.Get("/health", handler.NewHealthHandler(cfg.health, cfg.version).ServeHTTP)

	r.Post("/token", handler.NewTokenHandler(oauthDeps).ServeHTTP)
	r.Post("/revoke", handler.NewRevokeHandler(oauthDeps).ServeHTTP)

	authorizeHandler := handler.NewAuthorizeHandler(oauthDeps, cookiePolicy)
	r.Get("/authorize", authorizeHandler.Get)
	r.Post("/authorize", authorizeHandler.Post)

	sessionHandler := handler.NewSessionHandler(cfg.tickets, cookie, cookiePolicy, cfg.domain)
	r.Post("/login", sessionHandler.Login)
	r.Post("/logout", sessionHandler.Logout)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Resolve(resolver))
		r.With(middleware.RequireAuthenticated()).
			Get("/profile", handler.NewProfileHandler().ServeHTTP)
	})

	return r
}
