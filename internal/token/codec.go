// Package token issues and verifies the signed session tokens carried in the
// auth-token cookie.
//
// Tokens are HS256 JWTs with the user ID as subject and a fixed expiry.
// Verification collapses every failure mode -- missing, malformed, bad
// signature, expired -- into a single "no session" result so callers treat
// an invalid cookie exactly like an absent one.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Codec signs and verifies session tokens with a server-held secret.
// Construct with NewCodec; the zero value panics on use.
type Codec struct {
	secret []byte
	ttl    time.Duration

	// now is injectable for expiry tests; defaults to time.Now.
	now func() time.Time
}

// NewCodec returns a Codec signing with secret, issuing tokens valid for ttl.
func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// NewCodecAt is NewCodec with an injected clock. Test-only constructor.
func NewCodecAt(secret string, ttl time.Duration, now func() time.Time) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl, now: now}
}

// Issue produces a signed token for userID, expiring ttl from now.
// Pure function aside from reading the clock; the caller owns cookie placement.
func (c *Codec) Issue(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user ID is required")
	}
	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Verify validates signature and expiry, returning the embedded user ID.
// Returns ("", false) on any failure; callers never learn why. Expired vs
// tampered is deliberately not distinguished -- both mean "log in again".
func (c *Codec) Verify(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(
		// Pin HS256 -- rejects alg-confusion tokens ("none", RS256 with the
		// HMAC key as a public key) before the keyfunc runs.
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	tok, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil || !tok.Valid || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}
