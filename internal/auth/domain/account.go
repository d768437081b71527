package domain

import "time"

// Account is a login-capable principal. One row per user regardless of role;
// the role tag decides which endpoint family the account can authenticate
// against and which login preconditions apply.
type Account struct {
	ID       string
	Email    string
	Username string // optional, unique when set
	Role     Role

	PasswordHash string // argon2id PHC string, never serialized outward

	Active        bool
	EmailVerified bool

	Lockout LockoutState

	LastLoginAt     *time.Time
	LastLoginSource string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LockoutState is the brute-force bookkeeping carried on the account row.
// It is read and written through a single conditional update so concurrent
// login attempts cannot under-count failures.
type LockoutState struct {
	// FailedAttempts is the number of consecutive failures in the current
	// failure window.
	FailedAttempts int

	// WindowStartedAt is when the current failure window opened. Nil when
	// there have been no failures since the last reset.
	WindowStartedAt *time.Time

	// LockedUntil is set when FailedAttempts reached the threshold. Only a
	// successful login or the passage of time clears a lock.
	LockedUntil *time.Time
}

// Locked reports whether the account is locked at the given instant.
func (s LockoutState) Locked(now time.Time) bool {
	return s.LockedUntil != nil && s.LockedUntil.After(now)
}
