package sqlite

import (
	"context"
	"time"

	"github.com/lanternworks/gatehouse/internal/auth/domain"
)

type accountsRepo struct {
	q querier
}

const accountColumns = `id, email, username, role, password_hash, active, email_verified,
	failed_attempts, failure_window_started_at, locked_until,
	last_login_at, last_login_source, created_at, updated_at`

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) GetAccountByUsername(ctx context.Context, username string) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = ?`, username)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO accounts (
			id, email, username, role, password_hash, active, email_verified,
			failed_attempts, failure_window_started_at, locked_until,
			last_login_at, last_login_source, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.Email,
		mapStringNull(a.Username),
		a.Role.String(),
		a.PasswordHash,
		a.Active,
		a.EmailVerified,
		a.Lockout.FailedAttempts,
		mapOptionalTime(a.Lockout.WindowStartedAt),
		mapOptionalTime(a.Lockout.LockedUntil),
		mapOptionalTime(a.LastLoginAt),
		a.LastLoginSource,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return mapConstraint(err)
}

// UpdateLockoutState is the conditional bookkeeping write. The WHERE clause
// re-checks the previously-read failed_attempts so two interleaved login
// attempts cannot both apply their increment on top of the same base value.
func (r *accountsRepo) UpdateLockoutState(
	ctx context.Context,
	accountID string,
	expectAttempts int,
	next domain.LockoutState,
) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts
		SET failed_attempts = ?,
		    failure_window_started_at = ?,
		    locked_until = ?,
		    updated_at = ?
		WHERE id = ? AND failed_attempts = ?`,
		next.FailedAttempts,
		mapOptionalTime(next.WindowStartedAt),
		mapOptionalTime(next.LockedUntil),
		time.Now().UTC(),
		accountID,
		expectAttempts,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *accountsRepo) RecordLoginSuccess(ctx context.Context, accountID string, now time.Time, source string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts
		SET failed_attempts = 0,
		    failure_window_started_at = NULL,
		    locked_until = NULL,
		    last_login_at = ?,
		    last_login_source = ?,
		    updated_at = ?
		WHERE id = ?`,
		now, source, now, accountID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *accountsRepo) UpdatePasswordHash(ctx context.Context, accountID, newHash string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), accountID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *accountsRepo) SetEmailVerified(ctx context.Context, accountID string, verified bool) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE accounts SET email_verified = ?, updated_at = ? WHERE id = ?`,
		verified, time.Now().UTC(), accountID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *accountsRepo) SetActive(ctx context.Context, accountID string, active bool) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE accounts SET active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), accountID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}
