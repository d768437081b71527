package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lanternworks/gatehouse/internal/auth/domain"
	"github.com/lanternworks/gatehouse/internal/auth/store"

	_ "modernc.org/sqlite"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// the repositories work identically inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type Store struct {
	db *sql.DB
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Single connection: sqlite serialises writers anyway, and a :memory:
	// database only exists on the connection that opened it.
	db.SetMaxOpenConns(1)

	// Enforce FKs; sqlite defaults them off
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &txStore{tx: tx}, nil
}

// WithTx executes fn within a transaction, handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	// Rollback after commit is a no-op, so the defer is safe on all paths.
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Accounts() store.Accounts { return &accountsRepo{q: s.db} }
func (s *Store) Sessions() store.Sessions { return &sessionsRepo{q: s.db} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func mapConstraint(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

func mapNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func mapStringNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func mapNullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		t := nt.Time
		return &t
	}
	return nil
}

func mapOptionalTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func scanAccount(row interface{ Scan(...any) error }) (domain.Account, error) {
	var (
		a               domain.Account
		username        sql.NullString
		role            string
		windowStartedAt sql.NullTime
		lockedUntil     sql.NullTime
		lastLoginAt     sql.NullTime
	)

	err := row.Scan(
		&a.ID,
		&a.Email,
		&username,
		&role,
		&a.PasswordHash,
		&a.Active,
		&a.EmailVerified,
		&a.Lockout.FailedAttempts,
		&windowStartedAt,
		&lockedUntil,
		&lastLoginAt,
		&a.LastLoginSource,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, err
	}

	a.Username = mapNullString(username)
	a.Role = domain.Role(role)
	a.Lockout.WindowStartedAt = mapNullTimePtr(windowStartedAt)
	a.Lockout.LockedUntil = mapNullTimePtr(lockedUntil)
	a.LastLoginAt = mapNullTimePtr(lastLoginAt)
	return a, nil
}

func scanSession(row interface{ Scan(...any) error }) (domain.Session, error) {
	var (
		s         domain.Session
		role      string
		revokedAt sql.NullTime
	)

	err := row.Scan(
		&s.ID,
		&s.AccountID,
		&role,
		&s.RefreshTokenHash,
		&s.ExpiresAt,
		&s.LastActivityAt,
		&revokedAt,
		&s.CreatedAt,
	)
	if err != nil {
		return domain.Session{}, err
	}

	s.Role = domain.Role(role)
	s.RevokedAt = mapNullTimePtr(revokedAt)
	return s, nil
}
