package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

// Token values carry a kind prefix so lookups and revocation can tell
// access, refresh, and developer tokens apart from the string alone.
const (
	AccessTokenPrefix    = "5768-"
	RefreshTokenPrefix   = "4657-"
	DeveloperTokenPrefix = "6879-"
)

// NewTokenValue generates a random token value with the given kind prefix:
// 32 random bytes, base64url encoded.
func NewTokenValue(prefix string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	return prefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// NewCodeValue generates a random authorization code value.
func NewCodeValue() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// IsRefreshTokenValue reports whether the value carries the refresh token
// prefix.
func IsRefreshTokenValue(value string) bool {
	return strings.HasPrefix(value, RefreshTokenPrefix)
}
