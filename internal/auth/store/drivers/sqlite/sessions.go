package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/lanternworks/gatehouse/internal/auth/domain"
	"github.com/lanternworks/gatehouse/internal/auth/store"
)

type sessionsRepo struct {
	q querier
}

const sessionColumns = `id, account_id, role, refresh_token_hash,
	expires_at, last_activity_at, revoked_at, created_at`

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO sessions (
			id, account_id, role, refresh_token_hash,
			expires_at, last_activity_at, revoked_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID,
		s.AccountID,
		s.Role.String(),
		s.RefreshTokenHash,
		s.ExpiresAt,
		s.LastActivityAt,
		mapOptionalTime(s.RevokedAt),
		s.CreatedAt,
	)
	return mapConstraint(err)
}

func (r *sessionsRepo) GetSessionByID(ctx context.Context, id string) (domain.Session, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return s, nil
}

func (r *sessionsRepo) TouchSession(ctx context.Context, id string, now time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE sessions SET last_activity_at = ? WHERE id = ?`,
		now, id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// RevokeSession only flips rows that are still unrevoked; with concurrent
// replays of one refresh token, exactly one caller sees applied == true.
func (r *sessionsRepo) RevokeSession(ctx context.Context, id string, now time.Time) (bool, error) {
	res, err := r.q.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`,
		now, id,
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

func (r *sessionsRepo) RevokeAllAccountSessions(ctx context.Context, accountID string, now time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = ? WHERE account_id = ? AND revoked_at IS NULL`,
		now, accountID,
	)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, now)
	return err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
