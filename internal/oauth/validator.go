package oauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glosshub/gloss/internal/credential"
	"github.com/glosshub/gloss/internal/txcache"
	"github.com/glosshub/gloss/internal/user"
)

const (
	// AccessTokenTTL is the lifetime of issued access tokens.
	AccessTokenTTL = time.Hour
	// RefreshTokenTTL is the lifetime of issued refresh tokens.
	RefreshTokenTTL = 7 * 24 * time.Hour
	// AuthzCodeTTL is the lifetime of authorization codes.
	AuthzCodeTTL = 10 * time.Minute

	// RefreshTokenGraceWindow is how long a consumed refresh token keeps
	// validating after rotation. Clients that double-send a refresh request
	// (a network retry, say) still succeed inside the window.
	RefreshTokenGraceWindow = 3 * time.Minute
)

// DefaultScopes returns the fixed scope pair attached to every issued token.
// There is no dynamic scope negotiation.
func DefaultScopes() []string {
	return []string{"annotation:read", "annotation:write"}
}

// RequestInfo carries the request-derived values substituted into templated
// redirect URIs.
type RequestInfo struct {
	Scheme string
	Host   string
}

// Validator answers the predicate and lookup questions the grant type
// implementations need. It is bound to one request: lookups likely to
// repeat within the request (client, code, refresh token) are memoized on
// the request's unit of work, and validation side effects (the resolved
// user, the consumed refresh token) are held on the validator itself.
type Validator struct {
	store credential.Store
	users user.Directory
	now   func() time.Time

	findClient  func(context.Context, string) (*credential.AuthClient, error)
	findCode    func(context.Context, string) (*credential.AuthzCode, error)
	findRefresh func(context.Context, string) (*credential.Token, error)
	findToken   func(context.Context, string) (*credential.Token, error)

	revocation           bool
	boundUser            *user.User
	consumedRefreshToken string
}

// NewValidator creates a Validator whose lookup caches live as long as the
// given scope's outermost transaction.
func NewValidator(scope txcache.Scope, store credential.Store, users user.Directory) *Validator {
	v := &Validator{
		store: store,
		users: users,
		now:   time.Now,
	}

	// Memoized finders normalize "not found" to a nil record so negative
	// lookups are cached too.
	v.findClient = txcache.Memoize(scope, func(ctx context.Context, id string) (*credential.AuthClient, error) {
		c, err := store.GetByID(ctx, id)
		if errors.Is(err, credential.ErrClientNotFound) {
			return nil, nil
		}
		return c, err
	})
	v.findCode = txcache.Memoize(scope, func(ctx context.Context, code string) (*credential.AuthzCode, error) {
		c, err := store.GetByCode(ctx, code)
		if errors.Is(err, credential.ErrCodeNotFound) {
			return nil, nil
		}
		return c, err
	})
	v.findRefresh = txcache.Memoize(scope, func(ctx context.Context, value string) (*credential.Token, error) {
		t, err := store.GetByRefreshToken(ctx, value)
		if errors.Is(err, credential.ErrTokenNotFound) {
			return nil, nil
		}
		return t, err
	})
	v.findToken = txcache.Memoize(scope, func(ctx context.Context, value string) (*credential.Token, error) {
		t, err := store.GetByValue(ctx, value)
		if errors.Is(err, credential.ErrTokenNotFound) {
			return nil, nil
		}
		return t, err
	})

	return v
}

// AuthenticateClient reports whether a client with the given id exists and
// the presented secret matches its stored one. The comparison is constant
// time.
func (v *Validator) AuthenticateClient(ctx context.Context, clientID, clientSecret string) (bool, error) {
	client, err := v.findClient(ctx, clientID)
	if err != nil {
		return false, err
	}
	if client == nil || client.Secret == nil {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(clientSecret), []byte(*client.Secret)) == 1, nil
}

// ClientAuthenticationRequired reports whether the request must present
// client credentials. Public clients are exempt, revocation requests are
// exempt, and so are refresh requests for clients registered with the
// jwt_bearer grant. The latter is an intentional carve-out for third-party
// integration clients that refresh without re-presenting credentials; it is
// not a general OAuth2 rule.
func (v *Validator) ClientAuthenticationRequired(ctx context.Context, clientID, grantType string) (bool, error) {
	if v.revocation {
		return false, nil
	}

	client, err := v.findClient(ctx, clientID)
	if err != nil {
		return false, err
	}
	if client == nil {
		return true, nil
	}
	if !client.Confidential() {
		return false, nil
	}
	if grantType == "refresh_token" && client.GrantType == credential.GrantJWTBearer {
		return false, nil
	}
	return true, nil
}

// MarkRevocation flags the in-flight request as a token revocation, which
// bypasses full client authentication.
func (v *Validator) MarkRevocation() {
	v.revocation = true
}

// ExpandRedirectURI substitutes request-derived values into a templated
// redirect URI.
func ExpandRedirectURI(template string, req RequestInfo) string {
	return strings.NewReplacer(
		"{current_scheme}", req.Scheme,
		"{current_host}", req.Host,
	).Replace(template)
}

// ValidateRedirectURI reports whether the supplied URI equals the client's
// registered (possibly templated) redirect URI.
func (v *Validator) ValidateRedirectURI(ctx context.Context, clientID, redirectURI string, req RequestInfo) (bool, error) {
	client, err := v.findClient(ctx, clientID)
	if err != nil {
		return false, err
	}
	if client == nil || client.RedirectURI == nil {
		return false, nil
	}
	return redirectURI == ExpandRedirectURI(*client.RedirectURI, req), nil
}

// ConfirmRedirectURI checks the redirect URI presented at code exchange. An
// absent URI is trivially accepted.
func (v *Validator) ConfirmRedirectURI(ctx context.Context, clientID, code, redirectURI string, req RequestInfo) (bool, error) {
	if redirectURI == "" {
		return true, nil
	}
	return v.ValidateRedirectURI(ctx, clientID, redirectURI, req)
}

// ValidateCode reports whether the code exists, is unexpired, and belongs to
// the given client. On success the resolved user is bound to the validator.
func (v *Validator) ValidateCode(ctx context.Context, code, clientID string) (bool, error) {
	c, err := v.findCode(ctx, code)
	if err != nil {
		return false, err
	}
	if c == nil || c.ClientID != clientID || c.Expired(v.now()) {
		return false, nil
	}

	u, err := v.users.GetByUserid(ctx, c.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("resolving code user: %w", err)
	}

	v.boundUser = u
	return true, nil
}

// InvalidateAuthorizationCode deletes the code row, enforcing single use.
func (v *Validator) InvalidateAuthorizationCode(ctx context.Context, code string) error {
	return v.store.DeleteCode(ctx, code)
}

// ValidateRefreshToken reports whether the refresh token exists, is
// unexpired, and belongs to the given client. On success the resolved user
// is bound to the validator and the token is remembered for rotation.
func (v *Validator) ValidateRefreshToken(ctx context.Context, refreshToken, clientID string) (bool, error) {
	t, err := v.findRefresh(ctx, refreshToken)
	if err != nil {
		return false, err
	}
	if t == nil || t.RefreshTokenExpired(v.now()) {
		return false, nil
	}
	if t.ClientID == nil || *t.ClientID != clientID {
		return false, nil
	}

	u, err := v.users.GetByUserid(ctx, t.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("resolving token user: %w", err)
	}

	v.boundUser = u
	v.consumedRefreshToken = refreshToken
	return true, nil
}

// InvalidateRefreshToken shortens the token's refresh expiry to the grace
// window rather than deleting it, unless it already expires sooner.
func (v *Validator) InvalidateRefreshToken(ctx context.Context, refreshToken string) error {
	t, err := v.findRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	if t == nil {
		return nil
	}

	grace := v.now().Add(RefreshTokenGraceWindow)
	if t.RefreshTokenExpires != nil && !t.RefreshTokenExpires.After(grace) {
		return nil
	}

	err = v.store.SetRefreshTokenExpires(ctx, refreshToken, grace)
	if errors.Is(err, credential.ErrTokenNotFound) {
		return nil
	}
	return err
}

// SaveAuthorizationCode creates and persists a code for the client and user.
func (v *Validator) SaveAuthorizationCode(ctx context.Context, clientID, userid string) (*credential.AuthzCode, error) {
	client, err := v.findClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, UnknownClient("client id does not resolve")
	}

	value, err := NewCodeValue()
	if err != nil {
		return nil, err
	}

	code := &credential.AuthzCode{
		Code:     value,
		UserID:   userid,
		ClientID: clientID,
		Expires:  v.now().Add(AuthzCodeTTL),
	}
	if err := v.store.CreateCode(ctx, code); err != nil {
		return nil, err
	}

	return code, nil
}

// SaveBearerToken persists the access/refresh token pair from the payload.
// When servicing a refresh_token grant, the just-consumed refresh token is
// invalidated per the grace window rule.
func (v *Validator) SaveBearerToken(ctx context.Context, p *BearerTokenPayload, clientID, userid, grantType string) error {
	now := v.now()
	expires := now.Add(time.Duration(p.ExpiresIn) * time.Second)
	refreshExpires := now.Add(time.Duration(p.RefreshTokenExpiresIn) * time.Second)

	t := &credential.Token{
		Value:               p.AccessToken,
		RefreshToken:        &p.RefreshToken,
		UserID:              userid,
		ClientID:            &clientID,
		Expires:             &expires,
		RefreshTokenExpires: &refreshExpires,
	}
	if err := v.store.CreateToken(ctx, t); err != nil {
		return err
	}

	if grantType == "refresh_token" && v.consumedRefreshToken != "" {
		return v.InvalidateRefreshToken(ctx, v.consumedRefreshToken)
	}
	return nil
}

// RevokeToken deletes the token row matching the value, dispatching on the
// kind prefix. Missing tokens are a silent no-op.
func (v *Validator) RevokeToken(ctx context.Context, value string) error {
	var err error
	if IsRefreshTokenValue(value) {
		err = v.store.DeleteByRefreshToken(ctx, value)
	} else {
		err = v.store.DeleteByValue(ctx, value)
	}
	if errors.Is(err, credential.ErrTokenNotFound) {
		return nil
	}
	return err
}

// ValidateGrantType reports whether the client may use the given grant type.
// Every registered client may refresh.
func (v *Validator) ValidateGrantType(ctx context.Context, clientID, grantType string) (bool, error) {
	client, err := v.findClient(ctx, clientID)
	if err != nil {
		return false, err
	}
	if client == nil {
		return false, nil
	}
	if grantType == "refresh_token" {
		return true, nil
	}
	return string(client.GrantType) == grantType, nil
}

// ValidateResponseType reports whether the client is registered for the
// given response type.
func (v *Validator) ValidateResponseType(ctx context.Context, clientID, responseType string) (bool, error) {
	client, err := v.findClient(ctx, clientID)
	if err != nil {
		return false, err
	}
	if client == nil || client.ResponseType == nil {
		return false, nil
	}
	return string(*client.ResponseType) == responseType, nil
}

// ValidateScopes reports whether every requested scope is one of the default
// scopes.
func (v *Validator) ValidateScopes(scopes []string) bool {
	defaults := DefaultScopes()
	for _, s := range scopes {
		found := false
		for _, d := range defaults {
			if s == d {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// FindClient returns the client record for the id, or nil when it does not
// resolve. Lookups are memoized for the life of the transaction.
func (v *Validator) FindClient(ctx context.Context, clientID string) (*credential.AuthClient, error) {
	return v.findClient(ctx, clientID)
}

// FindToken returns the token record matching an access or refresh token
// value, or nil when neither resolves.
func (v *Validator) FindToken(ctx context.Context, value string) (*credential.Token, error) {
	if IsRefreshTokenValue(value) {
		return v.findRefresh(ctx, value)
	}
	return v.findToken(ctx, value)
}

// BoundUser returns the user bound by a successful ValidateCode or
// ValidateRefreshToken call, or nil.
func (v *Validator) BoundUser() *user.User {
	return v.boundUser
}
