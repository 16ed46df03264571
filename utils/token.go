package utils

import (
	"time"

	"github.com/dgrijalva/jwt-go"
)

// TokenClaims is the subset of the upstream API's access-token claims the
// client cares about. Tokens are issued server-side; the client only
// inspects expiry to decide when to refresh.
type TokenClaims struct {
	ID   int    `json:"id"`
	Role string `json:"role"`
	jwt.StandardClaims
}

// ParseTokenClaims decodes a JWT without verifying its signature. The
// client is not the token's audience-of-trust, it just needs the expiry.
func ParseTokenClaims(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parser := jwt.Parser{SkipClaimsValidation: true}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// TokenExpiresWithin reports whether the token expires within the given
// window. A token that cannot be parsed counts as expiring, so callers
// refresh rather than send a request doomed to 401.
func TokenExpiresWithin(token string, window time.Duration) bool {
	if token == "" {
		return true
	}
	claims, err := ParseTokenClaims(token)
	if err != nil {
		return true
	}
	if claims.ExpiresAt == 0 {
		return false
	}
	return time.Until(time.Unix(claims.ExpiresAt, 0)) < window
}
