package response

import (
	"errors"
	"net/http"

	"github.com/glosshub/gloss/internal/oauth"
)

// oauthError is the RFC 6749 error response body.
type oauthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// BearerToken writes a successful token endpoint response. Token responses
// must never be cached.
func BearerToken(w http.ResponseWriter, payload *oauth.BearerTokenPayload) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	JSON(w, http.StatusOK, payload)
}

// OAuthError maps a typed OAuth error to its HTTP status and wire error
// code. Anything else becomes a 500 server_error without leaking internals.
func OAuthError(w http.ResponseWriter, err error) {
	var oerr *oauth.Error
	if errors.As(err, &oerr) {
		JSON(w, oerr.HTTPStatus(), oauthError{
			Error:            oerr.WireCode(),
			ErrorDescription: oerr.Description,
		})
		return
	}
	JSON(w, http.StatusInternalServerError, oauthError{Error: "server_error"})
}
