package domain

import "time"

// Session binds one refresh-token lineage to an account. A new row is
// created at login and at every rotation; the superseded row stays behind
// with RevokedAt set, which gives the audit trail one row per issued
// refresh token.
type Session struct {
	ID        string
	AccountID string
	Role      Role

	// RefreshTokenHash is the SHA-256 fingerprint of the refresh JWT bound
	// to this row. The token itself is never stored.
	RefreshTokenHash string

	ExpiresAt      time.Time // refresh horizon
	LastActivityAt time.Time
	RevokedAt      *time.Time
	CreatedAt      time.Time
}

// Valid reports whether the session can still be refreshed at the given
// instant: not revoked and not past its horizon.
func (s Session) Valid(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}
