package oauth

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// GrantTokenLeeway tolerates clock skew between the token issuer and
	// this server on nbf/exp/iat comparisons.
	GrantTokenLeeway = 10 * time.Second

	// MaxGrantTokenLifetime caps exp-nbf. The bound is checked before the
	// signature to limit protocol abuse independent of cryptographic
	// validity.
	MaxGrantTokenLifetime = 10 * time.Minute
)

// GrantToken is a structurally decoded but unverified JWT bearer grant.
// Only the issuer may be read before Verify succeeds.
type GrantToken struct {
	raw    string
	claims jwt.MapClaims
	now    func() time.Time
}

// ParseGrantToken decodes a JWT without checking its signature, sufficient
// only to read the issuer claim.
func ParseGrantToken(raw string) (*GrantToken, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, MalformedToken("grant token format is invalid")
	}
	return &GrantToken{raw: raw, claims: claims, now: time.Now}, nil
}

// Issuer returns the iss claim of the unverified token.
func (t *GrantToken) Issuer() (string, error) {
	iss, err := t.claims.GetIssuer()
	if err != nil || iss == "" {
		return "", MissingClaim("iss", "grant token issuer is missing")
	}
	return iss, nil
}

// Verify checks the token's signature against the given HS256 key and
// validates its claims for the given audience. Each failure mode is a
// distinct typed error so callers can build precise OAuth2 responses.
func (t *GrantToken) Verify(key []byte, audience string) (*VerifiedGrant, error) {
	now := t.now()

	exp, err := t.claims.GetExpirationTime()
	if err != nil {
		return nil, InvalidClaim("exp", "grant token expiry is invalid")
	}
	nbf, err := t.claims.GetNotBefore()
	if err != nil {
		return nil, InvalidClaim("nbf", "grant token start time is invalid")
	}
	if exp != nil && nbf != nil && exp.Sub(nbf.Time) > MaxGrantTokenLifetime {
		return nil, InvalidGrant("grant token lifetime is too long")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithoutClaimsValidation(),
	)
	if _, err := parser.Parse(t.raw, func(*jwt.Token) (any, error) {
		return key, nil
	}); err != nil {
		return nil, InvalidGrant("grant token signature is invalid")
	}

	aud, err := t.claims.GetAudience()
	if err != nil {
		return nil, InvalidClaim("aud", "grant token audience is invalid")
	}
	if len(aud) == 0 {
		return nil, MissingClaim("aud", "grant token audience is missing")
	}
	if exp == nil {
		return nil, MissingClaim("exp", "grant token expiry is missing")
	}
	if nbf == nil {
		return nil, MissingClaim("nbf", "grant token start time is missing")
	}

	if !slices.Contains(aud, audience) {
		return nil, InvalidClaim("aud", "grant token audience is invalid")
	}
	if nbf.After(now.Add(GrantTokenLeeway)) {
		return nil, InvalidGrant("grant token is not yet valid")
	}
	if exp.Before(now.Add(-GrantTokenLeeway)) {
		return nil, InvalidGrant("grant token is expired")
	}

	iat, err := t.claims.GetIssuedAt()
	if err != nil {
		return nil, InvalidClaim("iat", "grant token issue time is invalid")
	}
	if iat != nil && iat.After(now.Add(GrantTokenLeeway)) {
		return nil, InvalidGrant("grant token issue time is in the future")
	}

	return &VerifiedGrant{claims: t.claims}, nil
}

// VerifiedGrant is a grant token whose signature and claims have been
// validated.
type VerifiedGrant struct {
	claims jwt.MapClaims
}

// Subject returns the sub claim of the verified token.
func (g *VerifiedGrant) Subject() (string, error) {
	sub, err := g.claims.GetSubject()
	if err != nil || sub == "" {
		return "", MissingClaim("sub", "grant token subject is missing")
	}
	return sub, nil
}
