package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/glosshub/gloss/internal/credential"
	"github.com/glosshub/gloss/internal/user"
)

// JWTBearerGrantType is the RFC 7523 grant type URN.
const JWTBearerGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

// BearerTokenPayload is the token endpoint response payload.
// RefreshTokenExpiresIn is an internal persistence hint, never sent on the
// wire.
type BearerTokenPayload struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`

	RefreshTokenExpiresIn int `json:"-"`
}

// TokenRequest is a parsed POST /token form body. ClientID and ClientSecret
// may come from HTTP Basic auth or body parameters.
type TokenRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string
	Code         string
	RedirectURI  string
	RefreshToken string
	Assertion    string
	Request      RequestInfo
}

// AuthorizeRequest is a parsed GET/POST /authorize request. Userid is the
// cookie-authenticated browser user; Consented marks a confirmed consent
// form submission.
type AuthorizeRequest struct {
	ClientID     string
	ResponseType string
	RedirectURI  string
	State        string
	Userid       string
	Consented    bool
	Request      RequestInfo
}

// AuthorizeResult is either a consent prompt for an untrusted client or a
// redirect carrying the issued code.
type AuthorizeResult struct {
	NeedsConsent bool
	Client       *credential.AuthClient
	Code         string
	RedirectTo   string
}

// Provider coordinates the authorization, token, and revocation endpoints.
// Like the validator it is bound to one request.
type Provider struct {
	v      *Validator
	users  user.Directory
	domain string
}

// NewProvider creates a Provider issuing tokens for the given server domain.
func NewProvider(v *Validator, users user.Directory, domain string) *Provider {
	return &Provider{v: v, users: users, domain: domain}
}

// Authorize validates an /authorize request and, for an authenticated and
// consenting user, issues an authorization code and the redirect carrying
// it. Untrusted clients get a consent prompt first.
func (p *Provider) Authorize(ctx context.Context, req *AuthorizeRequest) (*AuthorizeResult, error) {
	client, err := p.v.FindClient(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, UnknownClient("client id does not resolve")
	}

	ok, err := p.v.ValidateResponseType(ctx, req.ClientID, req.ResponseType)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ClientUnauthorized("client is not registered for this response type")
	}

	ok, err = p.v.ValidateRedirectURI(ctx, req.ClientID, req.RedirectURI, req.Request)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, InvalidRequest("redirect_uri does not match the client registration")
	}

	if req.Userid == "" {
		return nil, ClientUnauthorized("authorization requires an authenticated user")
	}

	if !client.Trusted && !req.Consented {
		return &AuthorizeResult{NeedsConsent: true, Client: client}, nil
	}

	code, err := p.v.SaveAuthorizationCode(ctx, req.ClientID, req.Userid)
	if err != nil {
		return nil, err
	}

	redirect, err := buildCodeRedirect(req.RedirectURI, code.Code, req.State)
	if err != nil {
		return nil, err
	}

	return &AuthorizeResult{Client: client, Code: code.Code, RedirectTo: redirect}, nil
}

// Token dispatches a token request on its grant type.
func (p *Provider) Token(ctx context.Context, req *TokenRequest) (*BearerTokenPayload, error) {
	switch req.GrantType {
	case "authorization_code":
		return p.authorizationCodeGrant(ctx, req)
	case "refresh_token":
		return p.refreshTokenGrant(ctx, req)
	case JWTBearerGrantType:
		return p.jwtBearerGrant(ctx, req)
	default:
		return nil, UnsupportedGrantType("grant type is missing or not supported")
	}
}

// Revoke deletes the token matching the presented value. Revocation never
// requires full client authentication, and revoking an unknown token is a
// success, per RFC 7009.
func (p *Provider) Revoke(ctx context.Context, tokenValue string) error {
	if tokenValue == "" {
		return InvalidRequest("token is missing")
	}
	p.v.MarkRevocation()
	return p.v.RevokeToken(ctx, tokenValue)
}

func (p *Provider) authorizationCodeGrant(ctx context.Context, req *TokenRequest) (*BearerTokenPayload, error) {
	if req.Code == "" {
		return nil, InvalidRequest("code is missing")
	}

	if err := p.authenticateClient(ctx, req); err != nil {
		return nil, err
	}

	ok, err := p.v.ValidateGrantType(ctx, req.ClientID, req.GrantType)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ClientUnauthorized("client is not allowed to use this grant type")
	}

	ok, err = p.v.ValidateCode(ctx, req.Code, req.ClientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, InvalidGrant("authorization code is invalid or expired")
	}

	ok, err = p.v.ConfirmRedirectURI(ctx, req.ClientID, req.Code, req.RedirectURI, req.Request)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, InvalidGrant("redirect_uri does not match the original request")
	}

	// Single use: a concurrent exchange that already consumed the code
	// surfaces here as an ordinary invalid grant.
	if err := p.v.InvalidateAuthorizationCode(ctx, req.Code); err != nil {
		if errors.Is(err, credential.ErrCodeNotFound) {
			return nil, InvalidGrant("authorization code is invalid or expired")
		}
		return nil, err
	}

	return p.issueTokens(ctx, req, req.ClientID)
}

func (p *Provider) refreshTokenGrant(ctx context.Context, req *TokenRequest) (*BearerTokenPayload, error) {
	if req.RefreshToken == "" {
		return nil, InvalidRequest("refresh_token is missing")
	}

	// Clients that only ever held a bearer credential may omit client_id;
	// recover it from the refresh token record itself.
	if req.ClientID == "" {
		t, err := p.v.FindToken(ctx, req.RefreshToken)
		if err != nil {
			return nil, err
		}
		if t != nil && t.ClientID != nil {
			req.ClientID = *t.ClientID
		}
	}

	if err := p.authenticateClient(ctx, req); err != nil {
		return nil, err
	}

	ok, err := p.v.ValidateRefreshToken(ctx, req.RefreshToken, req.ClientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, InvalidGrant("refresh token is invalid or expired")
	}

	return p.issueTokens(ctx, req, req.ClientID)
}

func (p *Provider) jwtBearerGrant(ctx context.Context, req *TokenRequest) (*BearerTokenPayload, error) {
	if req.Assertion == "" {
		return nil, InvalidRequest("assertion is missing")
	}

	grant, err := ParseGrantToken(req.Assertion)
	if err != nil {
		return nil, err
	}

	iss, err := grant.Issuer()
	if err != nil {
		return nil, err
	}

	client, err := p.v.FindClient(ctx, iss)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, UnknownClient("grant token issuer could not be resolved")
	}
	if client.GrantType != credential.GrantJWTBearer {
		return nil, ClientUnauthorized("client is not allowed to use the jwt-bearer grant type")
	}
	if client.Secret == nil {
		return nil, ClientUnauthorized("client has no secret to verify the grant token against")
	}

	verified, err := grant.Verify([]byte(*client.Secret), p.domain)
	if err != nil {
		return nil, err
	}

	sub, err := verified.Subject()
	if err != nil {
		return nil, err
	}

	u, err := p.users.GetByUserid(ctx, sub)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, InvalidGrant("grant token subject could not be found")
		}
		return nil, fmt.Errorf("resolving grant token subject: %w", err)
	}
	if u.Deleted {
		return nil, InvalidGrant("grant token subject could not be found")
	}
	if u.Authority != client.Authority {
		return nil, InvalidGrant("grant token subject and issuer authorities do not match")
	}

	payload, err := newBearerPayload()
	if err != nil {
		return nil, err
	}
	if err := p.v.SaveBearerToken(ctx, payload, client.ID, u.Userid, req.GrantType); err != nil {
		return nil, err
	}
	return payload, nil
}

// issueTokens builds a fresh payload for the user bound during validation
// and persists it.
func (p *Provider) issueTokens(ctx context.Context, req *TokenRequest, clientID string) (*BearerTokenPayload, error) {
	u := p.v.BoundUser()
	if u == nil {
		return nil, InvalidGrant("no user is bound to the grant")
	}

	payload, err := newBearerPayload()
	if err != nil {
		return nil, err
	}
	if err := p.v.SaveBearerToken(ctx, payload, clientID, u.Userid, req.GrantType); err != nil {
		return nil, err
	}
	return payload, nil
}

// authenticateClient enforces client authentication where the validator
// requires it; exempt clients still must resolve to a registration.
func (p *Provider) authenticateClient(ctx context.Context, req *TokenRequest) error {
	required, err := p.v.ClientAuthenticationRequired(ctx, req.ClientID, req.GrantType)
	if err != nil {
		return err
	}

	if !required {
		client, err := p.v.FindClient(ctx, req.ClientID)
		if err != nil {
			return err
		}
		if client == nil {
			return UnknownClient("client id does not resolve")
		}
		return nil
	}

	ok, err := p.v.AuthenticateClient(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		return err
	}
	if !ok {
		return ClientUnauthorized("client authentication failed")
	}
	return nil
}

func newBearerPayload() (*BearerTokenPayload, error) {
	access, err := NewTokenValue(AccessTokenPrefix)
	if err != nil {
		return nil, err
	}
	refresh, err := NewTokenValue(RefreshTokenPrefix)
	if err != nil {
		return nil, err
	}
	return &BearerTokenPayload{
		AccessToken:           access,
		TokenType:             "Bearer",
		ExpiresIn:             int(AccessTokenTTL.Seconds()),
		RefreshToken:          refresh,
		Scope:                 strings.Join(DefaultScopes(), " "),
		RefreshTokenExpiresIn: int(RefreshTokenTTL.Seconds()),
	}, nil
}

func buildCodeRedirect(redirectURI, code, state string) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", InvalidRequest("redirect_uri is not a valid URL")
	}
	q := u.Query()
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
