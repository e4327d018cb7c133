package credential

import "time"

// GrantType is the OAuth2 grant a client is registered for.
type GrantType string

const (
	GrantAuthorizationCode GrantType = "authorization_code"
	GrantClientCredentials GrantType = "client_credentials"
	GrantJWTBearer         GrantType = "jwt_bearer"
	GrantPassword          GrantType = "password"
)

// ResponseType is the OAuth2 response type a client is registered for.
type ResponseType string

const (
	ResponseCode  ResponseType = "code"
	ResponseToken ResponseType = "token"
)

// AuthClient is an OAuth2 client registration. A nil Secret marks a public
// client; clients with grant type authorization_code always carry a redirect
// URI (enforced by the store's check constraint).
type AuthClient struct {
	ID           string
	Secret       *string
	Authority    string
	GrantType    GrantType
	ResponseType *ResponseType
	RedirectURI  *string
	Trusted      bool
	CreatedAt    time.Time
}

// Confidential reports whether the client holds a secret.
func (c *AuthClient) Confidential() bool {
	return c.Secret != nil
}

// AuthzCode is a one-time authorization code tied to a user and client.
type AuthzCode struct {
	Code      string
	UserID    string
	ClientID  string
	Expires   time.Time
	CreatedAt time.Time
}

// Expired reports whether the code is past its expiry at the given time.
func (c *AuthzCode) Expired(now time.Time) bool {
	return !c.Expires.After(now)
}

// Token is an issued access/refresh token pair. ClientID is nil for
// developer tokens, which also never expire (nil Expires).
type Token struct {
	Value               string
	RefreshToken        *string
	UserID              string
	ClientID            *string
	Expires             *time.Time
	RefreshTokenExpires *time.Time
	CreatedAt           time.Time
}

// Expired reports whether the access token is past its expiry at the given
// time. Tokens without an expiry never expire.
func (t *Token) Expired(now time.Time) bool {
	return t.Expires != nil && !t.Expires.After(now)
}

// RefreshTokenExpired reports whether the refresh token is past its expiry
// at the given time.
func (t *Token) RefreshTokenExpired(now time.Time) bool {
	return t.RefreshTokenExpires != nil && !t.RefreshTokenExpires.After(now)
}
