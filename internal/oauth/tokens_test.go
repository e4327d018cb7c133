package oauth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glosshub/gloss/internal/oauth"
)

func TestNewTokenValue(t *testing.T) {
	access, err := oauth.NewTokenValue(oauth.AccessTokenPrefix)
	require.NoError(t, err)
	refresh, err := oauth.NewTokenValue(oauth.RefreshTokenPrefix)
	require.NoError(t, err)

	assert.True(t, len(access) > len(oauth.AccessTokenPrefix)+32)
	assert.NotEqual(t, access, refresh)

	again, err := oauth.NewTokenValue(oauth.AccessTokenPrefix)
	require.NoError(t, err)
	assert.NotEqual(t, access, again)
}

func TestIsRefreshTokenValue(t *testing.T) {
	refresh, err := oauth.NewTokenValue(oauth.RefreshTokenPrefix)
	require.NoError(t, err)
	access, err := oauth.NewTokenValue(oauth.AccessTokenPrefix)
	require.NoError(t, err)

	assert.True(t, oauth.IsRefreshTokenValue(refresh))
	assert.False(t, oauth.IsRefreshTokenValue(access))
	assert.False(t, oauth.IsRefreshTokenValue(""))
}

func TestErrorWireMapping(t *testing.T) {
	for _, tc := range []struct {
		err    *oauth.Error
		code   string
		status int
	}{
		{oauth.UnsupportedGrantType("x"), "unsupported_grant_type", 400},
		{oauth.InvalidRequest("x"), "invalid_request", 400},
		{oauth.MalformedToken("x"), "invalid_grant", 400},
		{oauth.MissingClaim("aud", "x"), "invalid_grant", 400},
		{oauth.InvalidClaim("aud", "x"), "invalid_grant", 400},
		{oauth.InvalidGrant("x"), "invalid_grant", 400},
		{oauth.UnknownClient("x"), "invalid_client", 400},
		{oauth.ClientUnauthorized("x"), "invalid_client", 401},
	} {
		assert.Equal(t, tc.code, tc.err.WireCode(), tc.err.Error())
		assert.Equal(t, tc.status, tc.err.HTTPStatus(), tc.err.Error())
	}
}
