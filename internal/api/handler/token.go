package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/glosshub/gloss/internal/api/middleware"
	"github.com/glosshub/gloss/internal/api/response"
	"github.com/glosshub/gloss/internal/oauth"
)

// TokenHandler handles POST /token.
type TokenHandler struct {
	deps *OAuthDeps
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(deps *OAuthDeps) *TokenHandler {
	return &TokenHandler{deps: deps}
}

// ServeHTTP parses the form-encoded token request, merges HTTP Basic client
// credentials, and dispatches to the provider.
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		response.OAuthError(w, oauth.InvalidRequest("request body could not be parsed"))
		return
	}

	req := &oauth.TokenRequest{
		GrantType:    r.PostFormValue("grant_type"),
		ClientID:     r.PostFormValue("client_id"),
		ClientSecret: r.PostFormValue("client_secret"),
		Code:         r.PostFormValue("code"),
		RedirectURI:  r.PostFormValue("redirect_uri"),
		RefreshToken: r.PostFormValue("refresh_token"),
		Assertion:    r.PostFormValue("assertion"),
		Request:      h.deps.requestInfo(r),
	}

	// Basic auth wins over body credentials.
	if clientID, clientSecret, ok := r.BasicAuth(); ok {
		req.ClientID = clientID
		req.ClientSecret = clientSecret
	}

	var payload *oauth.BearerTokenPayload
	err := h.deps.withProvider(r.Context(), func(p *oauth.Provider) error {
		var err error
		payload, err = p.Token(r.Context(), req)
		return err
	})
	if err != nil {
		var oerr *oauth.Error
		if !errors.As(err, &oerr) {
			slog.Error("token grant failed", "error", err,
				"requestId", middleware.GetRequestID(r.Context()))
		}
		response.OAuthError(w, err)
		return
	}

	response.BearerToken(w, payload)
}
