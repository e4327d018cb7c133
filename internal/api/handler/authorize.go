package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/glosshub/gloss/internal/api/middleware"
	"github.com/glosshub/gloss/internal/api/response"
	"github.com/glosshub/gloss/internal/authn"
	"github.com/glosshub/gloss/internal/oauth"
)

var consentTemplate = template.Must(template.New("consent").Parse(`<!DOCTYPE html>
<html>
<head><title>Authorize access</title></head>
<body>
<h1>Authorize access</h1>
<p>The application <strong>{{.ClientID}}</strong> is asking to read and write your annotations.</p>
<form method="POST" action="/authorize">
<input type="hidden" name="client_id" value="{{.ClientID}}">
<input type="hidden" name="response_type" value="{{.ResponseType}}">
<input type="hidden" name="redirect_uri" value="{{.RedirectURI}}">
<input type="hidden" name="state" value="{{.State}}">
<button type="submit">Allow</button>
</form>
</body>
</html>
`))

// AuthorizeHandler handles GET and POST /authorize. GET validates the
// request and either redirects straight back (trusted clients) or shows the
// consent form; POST confirms consent and issues the code.
type AuthorizeHandler struct {
	deps   *OAuthDeps
	cookie *authn.CookieTicketPolicy
}

// NewAuthorizeHandler creates a new AuthorizeHandler.
func NewAuthorizeHandler(deps *OAuthDeps, cookie *authn.CookieTicketPolicy) *AuthorizeHandler {
	return &AuthorizeHandler{deps: deps, cookie: cookie}
}

// Get handles GET /authorize.
func (h *AuthorizeHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.authorize(w, r, false)
}

// Post handles POST /authorize, the consent form submission.
func (h *AuthorizeHandler) Post(w http.ResponseWriter, r *http.Request) {
	h.authorize(w, r, true)
}

func (h *AuthorizeHandler) authorize(w http.ResponseWriter, r *http.Request, consented bool) {
	requestID := middleware.GetRequestID(r.Context())

	if err := r.ParseForm(); err != nil {
		response.OAuthError(w, oauth.InvalidRequest("request could not be parsed"))
		return
	}

	identity, err := h.cookie.Identity(r)
	if err != nil {
		slog.Error("session resolution failed", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed", requestID)
		return
	}
	if identity == nil || identity.User == nil {
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Log in to authorize an application", requestID)
		return
	}

	req := &oauth.AuthorizeRequest{
		ClientID:     r.FormValue("client_id"),
		ResponseType: r.FormValue("response_type"),
		RedirectURI:  r.FormValue("redirect_uri"),
		State:        r.FormValue("state"),
		Userid:       identity.User.Userid,
		Consented:    consented,
		Request:      h.deps.requestInfo(r),
	}

	var result *oauth.AuthorizeResult
	err = h.deps.withProvider(r.Context(), func(p *oauth.Provider) error {
		var err error
		result, err = p.Authorize(r.Context(), req)
		return err
	})
	if err != nil {
		var oerr *oauth.Error
		if !errors.As(err, &oerr) {
			slog.Error("authorization failed", "error", err, "requestId", requestID)
		}
		response.OAuthError(w, err)
		return
	}

	if result.NeedsConsent {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := consentTemplate.Execute(w, req); err != nil {
			slog.Error("failed to render consent form", "error", err, "requestId", requestID)
		}
		return
	}

	http.Redirect(w, r, result.RedirectTo, http.StatusFound)
}
