package store

import (
	"context"
	"errors"
	"time"

	"github.com/lanternworks/gatehouse/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement it. Sub-repositories keep concerns separated and let a Tx expose
// the same surface as the root store.
type Store interface {
	Accounts() Accounts
	Sessions() Sessions

	ApplyMigrations() error

	// Tx starts a read/write transaction scoped to the returned Store.
	// The caller MUST Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn inside a transaction, committing when fn returns nil
	// and rolling back otherwise. Refresh rotation depends on this being a
	// real transaction: the conditional revoke and the replacement insert
	// must land together or not at all.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases underlying resources.
	Close() error

	// Ping verifies the database connection is alive.
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped Store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// GetAccountByID returns an account by id.
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByEmail looks an account up by its unique email.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// GetAccountByUsername looks an account up by its optional username.
	GetAccountByUsername(ctx context.Context, username string) (domain.Account, error)

	// CreateAccount inserts a new account (id is a ULID provided by the
	// caller). Returns ErrAlreadyExists on an email or username collision.
	CreateAccount(ctx context.Context, a domain.Account) error

	// UpdateLockoutState conditionally replaces the lockout bookkeeping.
	// The write only applies when the row's failed_attempts still equals
	// expectAttempts; applied reports whether this caller won. Losing means
	// a concurrent attempt got there first and the caller should re-read.
	UpdateLockoutState(ctx context.Context, accountID string, expectAttempts int, next domain.LockoutState) (applied bool, err error)

	// RecordLoginSuccess clears the lockout bookkeeping and stamps the
	// last-login audit fields in a single write.
	RecordLoginSuccess(ctx context.Context, accountID string, now time.Time, source string) error

	// UpdatePasswordHash replaces the password hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, accountID, newHash string) error

	// SetEmailVerified flips the email_verified flag.
	SetEmailVerified(ctx context.Context, accountID string, verified bool) error

	// SetActive flips the active flag (suspension is a soft state change,
	// accounts are never hard-deleted).
	SetActive(ctx context.Context, accountID string, active bool) error
}

type Sessions interface {
	// CreateSession inserts a new session row.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByID returns a session regardless of its lifecycle state;
	// validity checks belong to the caller.
	GetSessionByID(ctx context.Context, id string) (domain.Session, error)

	// TouchSession updates last_activity_at.
	TouchSession(ctx context.Context, id string, now time.Time) error

	// RevokeSession sets revoked_at only when it is not already set.
	// Exactly one of any number of concurrent callers observes applied ==
	// true, which is what makes refresh tokens single-use under replay.
	RevokeSession(ctx context.Context, id string, now time.Time) (applied bool, err error)

	// RevokeAllAccountSessions bulk-revokes every active session of an
	// account (password change, account suspension).
	RevokeAllAccountSessions(ctx context.Context, accountID string, now time.Time) error

	// DeleteExpiredSessions removes rows past their refresh horizon.
	// Housekeeping only; rotation never depends on it.
	DeleteExpiredSessions(ctx context.Context, now time.Time) error
}
