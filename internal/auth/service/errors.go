package service

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned by the auth and token services. The HTTP layer
// maps them to status codes with errors.Is; anything unmatched becomes a
// generic 500.
var (
	// ErrInvalidCredentials covers unknown identifier, wrong password and
	// role mismatch alike so responses cannot be used to enumerate
	// accounts.
	ErrInvalidCredentials = errors.New("service: invalid credentials")

	// ErrAccountLocked means too many recent failures. Concrete instances
	// are *LockedError values carrying the remaining lock time.
	ErrAccountLocked = errors.New("service: account locked")

	// ErrAccountInactive means the account exists but may not log in.
	ErrAccountInactive = errors.New("service: account inactive")

	// ErrEmailNotVerified means the role requires a verified email and the
	// account does not have one.
	ErrEmailNotVerified = errors.New("service: email not verified")

	// ErrInvalidToken means the presented JWT failed signature, expiry,
	// issuer or use validation.
	ErrInvalidToken = errors.New("service: invalid token")

	// ErrSessionInvalid means the token verified but its session is gone,
	// revoked, expired or bound to a different token.
	ErrSessionInvalid = errors.New("service: session invalid")
)

// LockedError carries how long the caller has to wait. errors.Is matches it
// against ErrAccountLocked.
type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("service: account locked, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}
