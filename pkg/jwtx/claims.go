package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token use values carried in the "use" claim. A refresh token presented
// where an access token is expected (or the other way around) is rejected at
// verification time, before any session lookup happens.
const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// Default token lifetimes. Short access tokens bound the damage of a leaked
// bearer credential; the refresh horizon is what actually ends a session.
const (
	DefaultAccessTokenTTL  = 30 * time.Minute
	DefaultRefreshTokenTTL = 14 * 24 * time.Hour
)

var (
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrTokenUse    = errors.New("jwtx: wrong token use")
)

// Claims are the claims both token kinds carry. The subject is the account
// id; sid binds the token to a persisted session row, which is how refresh
// rotation finds its session without a token column in the database.
type Claims struct {
	jwt.RegisteredClaims

	// SID is the session id the token is bound to.
	SID string `json:"sid,omitempty"`

	// Role is the principal role tag ("admin", "moderator", "member").
	// Callers validate it against their closed role set.
	Role string `json:"role,omitempty"`

	// Use distinguishes access tokens from refresh tokens.
	Use string `json:"use,omitempty"`

	// Email of the authenticated account, so resource services can render
	// identity without a database round-trip.
	Email string `json:"email,omitempty"`
}

// NewClaims builds claims for one token of the pair. The random jti makes
// two same-instant issuances for the same account distinct byte strings.
func NewClaims(subject, sid, role, use, email, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		SID:   sid,
		Role:  role,
		Use:   use,
		Email: email,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks the issuer when one is expected.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected != "" && c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateUse ensures the token was minted for the expected purpose.
func (c *Claims) ValidateUse(expected string) error {
	if expected != "" && c.Use != expected {
		return ErrTokenUse
	}
	return nil
}

// ValidateExpiry checks exp and nbf against the given clock.
func (c *Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}
