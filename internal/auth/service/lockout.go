package service

import (
	"time"

	"github.com/lanternworks/gatehouse/internal/auth/domain"
)

// Lockout defaults. All three are overridable through app config.
const (
	DefaultLockoutThreshold = 5
	DefaultFailureWindow    = 15 * time.Minute
	DefaultLockDuration     = 30 * time.Minute
)

// LockoutPolicy decides how consecutive login failures escalate into a
// temporary lock. It is a pure value type: callers read the current
// LockoutState off the account row, run it through the policy, and persist
// the result with a conditional update.
type LockoutPolicy struct {
	// Threshold is the number of failures inside Window that triggers a
	// lock.
	Threshold int

	// Window bounds how long failures accumulate. A failure after the
	// window has passed starts a fresh count.
	Window time.Duration

	// LockDuration is how long a triggered lock lasts.
	LockDuration time.Duration
}

// DefaultLockoutPolicy returns the stock policy.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		Threshold:    DefaultLockoutThreshold,
		Window:       DefaultFailureWindow,
		LockDuration: DefaultLockDuration,
	}
}

// Precheck reports whether the account is locked at now. It runs before any
// password verification so a locked account never reaches the verifier.
func (p LockoutPolicy) Precheck(st domain.LockoutState, now time.Time) bool {
	return st.Locked(now)
}

// RetryAfter returns how long until the lock clears, zero when not locked.
func (p LockoutPolicy) RetryAfter(st domain.LockoutState, now time.Time) time.Duration {
	if !st.Locked(now) {
		return 0
	}
	return st.LockedUntil.Sub(now)
}

// OnFailure returns the bookkeeping state after one more failed attempt at
// now. The count resets when the failure window has lapsed; reaching the
// threshold stamps locked_until and keeps the count for auditability.
func (p LockoutPolicy) OnFailure(st domain.LockoutState, now time.Time) domain.LockoutState {
	next := domain.LockoutState{
		FailedAttempts:  st.FailedAttempts + 1,
		WindowStartedAt: st.WindowStartedAt,
		LockedUntil:     st.LockedUntil,
	}

	if st.WindowStartedAt == nil || now.Sub(*st.WindowStartedAt) > p.Window {
		start := now
		next.FailedAttempts = 1
		next.WindowStartedAt = &start
	}

	if next.FailedAttempts >= p.Threshold {
		until := now.Add(p.LockDuration)
		next.LockedUntil = &until
	}

	return next
}

// OnSuccess returns the zeroed state a successful login resets to.
func (p LockoutPolicy) OnSuccess(now time.Time) domain.LockoutState {
	return domain.LockoutState{}
}
