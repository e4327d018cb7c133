package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/glosshub/gloss/internal/api/middleware"
	"github.com/glosshub/gloss/internal/api/response"
	"github.com/glosshub/gloss/internal/oauth"
)

// RevokeHandler handles POST /revoke.
type RevokeHandler struct {
	deps *OAuthDeps
}

// NewRevokeHandler creates a new RevokeHandler.
func NewRevokeHandler(deps *OAuthDeps) *RevokeHandler {
	return &RevokeHandler{deps: deps}
}

// ServeHTTP revokes the presented token. Revoking an unknown token returns
// 200 with an empty body, same as a successful revocation.
func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		response.OAuthError(w, oauth.InvalidRequest("request body could not be parsed"))
		return
	}

	err := h.deps.withProvider(r.Context(), func(p *oauth.Provider) error {
		return p.Revoke(r.Context(), r.PostFormValue("token"))
	})
	if err != nil {
		var oerr *oauth.Error
		if !errors.As(err, &oerr) {
			slog.Error("token revocation failed", "error", err,
				"requestId", middleware.GetRequestID(r.Context()))
		}
		response.OAuthError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
