package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// VerifyOptions captures common expectations used by verifiers.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Leeway allows small clock skew when validating exp/nbf.
	Leeway time.Duration

	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// HS256Verifier validates session cookies signed by an HS256Signer.
// Previous secrets are accepted so a secret can be rotated without logging
// everyone out.
type HS256Verifier struct {
	secrets [][]byte
	opts    VerifyOptions
}

// NewVerifierHS256 accepts tokens signed with the current secret or any of
// the previous ones.
func NewVerifierHS256(opts VerifyOptions, current []byte, previous ...[]byte) *HS256Verifier {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &HS256Verifier{
		secrets: append([][]byte{current}, previous...),
		opts:    opts,
	}
}

// Verify checks the signature, then issuer and expiry.
func (v *HS256Verifier) Verify(tokenStr string) (Claims, error) {
	// exp/nbf are checked below against the injectable clock.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	var lastErr error
	for _, secret := range v.secrets {
		claims := &Claims{}
		_, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
			return secret, nil
		})
		if err == nil {
			return v.validate(claims)
		}
		lastErr = err
		if !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			break
		}
	}

	switch {
	case errors.Is(lastErr, jwt.ErrTokenSignatureInvalid):
		return Claims{}, ErrInvalidSig
	case errors.Is(lastErr, jwt.ErrTokenUnverifiable):
		return Claims{}, fmt.Errorf("%w: %w", ErrAlgMismatch, lastErr)
	default:
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, lastErr)
	}
}

func (v *HS256Verifier) validate(claims *Claims) (Claims, error) {
	if err := claims.Validate(v.opts.Now(), v.opts.Issuer, v.opts.Leeway); err != nil {
		return Claims{}, err
	}
	return *claims, nil
}
