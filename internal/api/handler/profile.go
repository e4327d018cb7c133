package handler

import (
	"net/http"

	"github.com/glosshub/gloss/internal/api/middleware"
	"github.com/glosshub/gloss/internal/api/response"
	"github.com/glosshub/gloss/internal/authn"
)

// ProfileHandler handles GET /api/profile, returning the resolved identity
// and its effective principals.
type ProfileHandler struct{}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler() *ProfileHandler {
	return &ProfileHandler{}
}

type profileData struct {
	Userid     *string  `json:"userid"`
	ClientID   *string  `json:"clientId"`
	Principals []string `json:"principals"`
}

// ServeHTTP writes the profile of the authenticated request.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	data := profileData{Principals: []string{}}
	if identity != nil {
		if identity.User != nil {
			data.Userid = &identity.User.Userid
		}
		if identity.AuthClient != nil {
			data.ClientID = &identity.AuthClient.ID
		}
		for _, p := range authn.PrincipalsFor(identity) {
			data.Principals = append(data.Principals, string(p))
		}
	}

	response.Success(w, http.StatusOK, data, requestID)
}
