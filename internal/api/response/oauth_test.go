package response

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glosshub/gloss/internal/oauth"
)

func TestBearerToken(t *testing.T) {
	w := httptest.NewRecorder()
	BearerToken(w, &oauth.BearerTokenPayload{
		AccessToken:  "5768-abc",
		TokenType:    "Bearer",
		ExpiresIn:    3600,
		RefreshToken: "4657-def",
		Scope:        "annotation:read annotation:write",
	})

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", w.Header().Get("Pragma"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "5768-abc", body["access_token"])
	assert.Equal(t, "4657-def", body["refresh_token"])
	assert.NotContains(t, body, "refresh_token_expires_in")
}

func TestOAuthError_Typed(t *testing.T) {
	w := httptest.NewRecorder()
	OAuthError(w, oauth.ClientUnauthorized("client authentication failed"))

	assert.Equal(t, 401, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "invalid_client", body["error"])
	assert.Equal(t, "client authentication failed", body["error_description"])
}

func TestOAuthError_Unexpected(t *testing.T) {
	w := httptest.NewRecorder()
	OAuthError(w, errors.New("pool exhausted"))

	assert.Equal(t, 500, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "server_error", body["error"])
	assert.NotContains(t, body, "error_description", "internals must not leak")
}
