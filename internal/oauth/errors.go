package oauth

import (
	"fmt"
	"net/http"
)

// Kind discriminates the validation failure taxonomy. Callers switch on it
// to build RFC 6749 error responses; the wire code and HTTP status are
// derived from it.
type Kind int

const (
	// KindUnsupportedGrantType: unknown or missing grant_type.
	KindUnsupportedGrantType Kind = iota
	// KindInvalidRequest: a required request parameter is missing or malformed.
	KindInvalidRequest
	// KindMalformedToken: the grant token could not be structurally decoded.
	KindMalformedToken
	// KindMissingClaim: the grant token lacks a required claim.
	KindMissingClaim
	// KindInvalidClaim: a grant token claim is present but invalid.
	KindInvalidClaim
	// KindUnknownClient: the client/issuer id does not resolve.
	KindUnknownClient
	// KindInvalidGrant: expired or not-yet-valid token, signature mismatch,
	// authority mismatch, or a code/refresh token that is not found or expired.
	KindInvalidGrant
	// KindClientUnauthorized: failed client authentication, or a grant or
	// response type the client is not registered for.
	KindClientUnauthorized
)

// Error is a typed OAuth2 protocol error. Claim carries the offending JWT
// claim name where applicable.
type Error struct {
	Kind        Kind
	Claim       string
	Description string
}

func (e *Error) Error() string {
	if e.Claim != "" {
		return fmt.Sprintf("%s (claim %q): %s", e.WireCode(), e.Claim, e.Description)
	}
	return fmt.Sprintf("%s: %s", e.WireCode(), e.Description)
}

// WireCode returns the stable OAuth2 `error` code for the response body.
func (e *Error) WireCode() string {
	switch e.Kind {
	case KindUnsupportedGrantType:
		return "unsupported_grant_type"
	case KindInvalidRequest:
		return "invalid_request"
	case KindUnknownClient, KindClientUnauthorized:
		return "invalid_client"
	default:
		return "invalid_grant"
	}
}

// HTTPStatus returns the HTTP status code the error maps to.
func (e *Error) HTTPStatus() int {
	if e.Kind == KindClientUnauthorized {
		return http.StatusUnauthorized
	}
	return http.StatusBadRequest
}

func newError(kind Kind, description string) *Error {
	return &Error{Kind: kind, Description: description}
}

// UnsupportedGrantType builds a KindUnsupportedGrantType error.
func UnsupportedGrantType(description string) *Error {
	return newError(KindUnsupportedGrantType, description)
}

// InvalidRequest builds a KindInvalidRequest error.
func InvalidRequest(description string) *Error {
	return newError(KindInvalidRequest, description)
}

// MalformedToken builds a KindMalformedToken error.
func MalformedToken(description string) *Error {
	return newError(KindMalformedToken, description)
}

// MissingClaim builds a KindMissingClaim error naming the absent claim.
func MissingClaim(claim, description string) *Error {
	return &Error{Kind: KindMissingClaim, Claim: claim, Description: description}
}

// InvalidClaim builds a KindInvalidClaim error naming the offending claim.
func InvalidClaim(claim, description string) *Error {
	return &Error{Kind: KindInvalidClaim, Claim: claim, Description: description}
}

// UnknownClient builds a KindUnknownClient error.
func UnknownClient(description string) *Error {
	return newError(KindUnknownClient, description)
}

// InvalidGrant builds a KindInvalidGrant error.
func InvalidGrant(description string) *Error {
	return newError(KindInvalidGrant, description)
}

// ClientUnauthorized builds a KindClientUnauthorized error.
func ClientUnauthorized(description string) *Error {
	return newError(KindClientUnauthorized, description)
}
