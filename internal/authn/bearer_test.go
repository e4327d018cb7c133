package authn_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glosshub/gloss/internal/authn"
	"github.com/glosshub/gloss/internal/credential"
)

func TestBearerTokenFromRequest_Header(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/profile", nil)
	r.Header.Set("Authorization", "Bearer 5768-abc")

	assert.Equal(t, "5768-abc", authn.BearerTokenFromRequest(r))
}

func TestBearerTokenFromRequest_NonBearerHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/profile", nil)
	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	assert.Empty(t, authn.BearerTokenFromRequest(r))
}

func TestBearerTokenFromRequest_QueryParamNeedsUpgrade(t *testing.T) {
	// A plain request must not pick up the query parameter; the form exists
	// for WebSocket handshakes only.
	r := httptest.NewRequest("GET", "/ws?access_token=5768-abc", nil)
	assert.Empty(t, authn.BearerTokenFromRequest(r))

	r.Header.Set("Upgrade", "websocket")
	r.Header.Set("Connection", "Upgrade")
	assert.Equal(t, "5768-abc", authn.BearerTokenFromRequest(r))
}

func TestBearerTokenFromRequest_QueryParamKeepAliveUpgrade(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?access_token=5768-abc", nil)
	r.Header.Set("Upgrade", "websocket")
	r.Header.Set("Connection", "keep-alive, Upgrade")

	assert.Equal(t, "5768-abc", authn.BearerTokenFromRequest(r))
}

func TestBearerTokenPolicy_Identity(t *testing.T) {
	alice := activeUser("alice", "example.com")
	expires := time.Now().Add(time.Hour)
	tokens := newFakeTokens(&credential.Token{
		Value:   "5768-abc",
		UserID:  alice.Userid,
		Expires: &expires,
	})
	policy := authn.NewBearerTokenPolicy(tokens, newFakeDirectory(alice))

	r := httptest.NewRequest("GET", "/api/profile", nil)
	r.Header.Set("Authorization", "Bearer 5768-abc")

	id, err := policy.Identity(r)
	require.NoError(t, err)
	require.NotNil(t, id)
	require.NotNil(t, id.User)
	assert.Equal(t, alice.Userid, id.User.Userid)
	assert.Nil(t, id.AuthClient)
}

func TestBearerTokenPolicy_Anonymous(t *testing.T) {
	alice := activeUser("alice", "example.com")
	expired := time.Now().Add(-time.Minute)
	good := time.Now().Add(time.Hour)
	tokens := newFakeTokens(
		&credential.Token{Value: "5768-expired", UserID: alice.Userid, Expires: &expired},
		&credential.Token{Value: "5768-dangling", UserID: "acct:gone@example.com", Expires: &good},
	)
	policy := authn.NewBearerTokenPolicy(tokens, newFakeDirectory(alice))

	for _, tc := range []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"unknown token", "5768-nope"},
		{"expired token", "5768-expired"},
		{"token of a vanished user", "5768-dangling"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/profile", nil)
			if tc.token != "" {
				r.Header.Set("Authorization", "Bearer "+tc.token)
			}
			id, err := policy.Identity(r)
			require.NoError(t, err)
			assert.Nil(t, id)
		})
	}
}

func TestBearerTokenPolicy_DeletedUser(t *testing.T) {
	alice := activeUser("alice", "example.com")
	alice.Deleted = true
	expires := time.Now().Add(time.Hour)
	tokens := newFakeTokens(&credential.Token{
		Value:   "5768-abc",
		UserID:  alice.Userid,
		Expires: &expires,
	})
	policy := authn.NewBearerTokenPolicy(tokens, newFakeDirectory(alice))

	r := httptest.NewRequest("GET", "/api/profile", nil)
	r.Header.Set("Authorization", "Bearer 5768-abc")

	id, err := policy.Identity(r)
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestBearerTokenPolicy_DeveloperToken(t *testing.T) {
	// Developer tokens have no expiry and no client; they resolve like any
	// other bearer value.
	alice := activeUser("alice", "example.com")
	tokens := newFakeTokens(&credential.Token{
		Value:  "6879-dev",
		UserID: alice.Userid,
	})
	policy := authn.NewBearerTokenPolicy(tokens, newFakeDirectory(alice))

	r := httptest.NewRequest("GET", "/api/profile", nil)
	r.Header.Set("Authorization", "Bearer 6879-dev")

	id, err := policy.Identity(r)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, alice.Userid, id.User.Userid)
}
