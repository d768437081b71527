package domain

import "time"

// TokenPair is what a successful login or refresh returns: a short-lived
// access JWT and a long-lived, single-use refresh JWT, with their absolute
// expiries.
type TokenPair struct {
	AccessToken  string    `json:"access"`
	RefreshToken string    `json:"refresh"`
	ExpiresAt    time.Time `json:"expired_at"`        // access token expiry
	RefreshUntil time.Time `json:"refreshable_until"` // refresh token expiry
}
