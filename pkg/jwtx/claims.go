package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is the lifetime of a staff session cookie.
const DefaultSessionTTL = 24 * time.Hour

// Claims carried by a session cookie: sub is the admin id and jti the
// opaque session token. Everything else about the session lives server-side.
type Claims struct {
	jwt.RegisteredClaims
}

// NewSessionClaims stamps a cookie for adminID valid for ttl from now.
func NewSessionClaims(adminID, token, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   adminID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        token,
		},
	}
}

// Validate checks that a session cookie names an admin and a token, comes
// from issuer (when set) and is inside its validity window at now, give or
// take leeway.
func (c *Claims) Validate(now time.Time, issuer string, leeway time.Duration) error {
	switch {
	case c.ID == "" || c.Subject == "":
		return ErrInvalidClaim
	case issuer != "" && c.Issuer != issuer:
		return ErrIssuer
	case c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)):
		return ErrExpired
	case c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)):
		return ErrNotYetValid
	}
	return nil
}
