package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lanternworks/gatehouse/internal/auth/domain"
	"github.com/lanternworks/gatehouse/internal/auth/store"
	"github.com/lanternworks/gatehouse/pkg/cryptox"
	"github.com/lanternworks/gatehouse/pkg/idx"
	"github.com/lanternworks/gatehouse/pkg/slogx"
)

const minPasswordLength = 8

// lockoutWriteRetries bounds how often a failure write is retried after
// losing the conditional update to a concurrent attempt.
const lockoutWriteRetries = 3

// ErrWeakPassword is returned by Register and ChangePassword when the new
// password does not meet the minimum length.
var ErrWeakPassword = errors.New("service: password too weak")

// AuthService orchestrates credential verification and the account
// lifecycle. One instance serves every role; the role arrives with the
// request and is checked against the account row.
type AuthService struct {
	Store   store.Store
	Tokens  *TokenService
	Lockout LockoutPolicy

	// Now is the service clock. Defaults to time.Now; tests inject one.
	Now func() time.Time
}

// LoginRequest carries one authentication attempt.
type LoginRequest struct {
	Role       domain.Role
	Identifier string // email or username
	Password   string
	Source     string // client address, audit only
}

// LoginResult is a successful authentication: the account plus the freshly
// issued token pair and its backing session.
type LoginResult struct {
	Account domain.Account
	Pair    domain.TokenPair
	Session domain.Session
}

// RegisterRequest carries a signup.
type RegisterRequest struct {
	Role     domain.Role
	Email    string
	Username string
	Password string
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// decoyHash is verified against when the identifier matches no account, so
// a miss costs the same argon2id work as a wrong password does.
var (
	decoyOnce sync.Once
	decoyPHC  string
)

func decoyHash() string {
	decoyOnce.Do(func() {
		h, err := cryptox.HashPassword(cryptox.MustGenerateToken(cryptox.TokenSize128))
		if err == nil {
			decoyPHC = h
		}
	})
	return decoyPHC
}

// Login verifies credentials for one role-scoped endpoint family.
//
// Unknown identifier, wrong password and role mismatch all return
// ErrInvalidCredentials with equal hashing work performed, so neither the
// response nor its timing reveals whether the account exists. The lockout
// precheck runs before the verifier; inactive and unverified checks run
// after it, since those signals are not brute-force sensitive.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	now := s.now()

	account, err := s.lookup(ctx, req.Identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = cryptox.VerifyPassword(req.Password, decoyHash())
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if account.Role != req.Role {
		_ = cryptox.VerifyPassword(req.Password, decoyHash())
		return LoginResult{}, ErrInvalidCredentials
	}

	if s.Lockout.Precheck(account.Lockout, now) {
		return LoginResult{}, &LockedError{RetryAfter: s.Lockout.RetryAfter(account.Lockout, now)}
	}

	if err := cryptox.VerifyPassword(req.Password, account.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			s.recordFailure(ctx, account, now)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if !account.Active {
		return LoginResult{}, ErrAccountInactive
	}
	if account.Role.Policy().RequireVerifiedEmail && !account.EmailVerified {
		return LoginResult{}, ErrEmailNotVerified
	}

	var result LoginResult
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().RecordLoginSuccess(ctx, account.ID, now, req.Source); err != nil {
			return err
		}
		pair, session, err := s.Tokens.IssuePair(ctx, tx, account)
		if err != nil {
			return err
		}
		result = LoginResult{Account: account, Pair: pair, Session: session}
		return nil
	})
	if err != nil {
		return LoginResult{}, err
	}
	return result, nil
}

// lookup resolves an identifier to an account, trying email first and
// falling back to username.
func (s *AuthService) lookup(ctx context.Context, identifier string) (domain.Account, error) {
	account, err := s.Store.Accounts().GetAccountByEmail(ctx, identifier)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, err
	}
	return s.Store.Accounts().GetAccountByUsername(ctx, identifier)
}

// recordFailure persists one failed attempt. The conditional update only
// applies when the stored count still matches what this attempt read; on a
// lost race the row is re-read and the write retried a bounded number of
// times so concurrent attempts never under-count.
func (s *AuthService) recordFailure(ctx context.Context, account domain.Account, now time.Time) {
	st := account.Lockout
	for i := 0; i < lockoutWriteRetries; i++ {
		next := s.Lockout.OnFailure(st, now)
		applied, err := s.Store.Accounts().UpdateLockoutState(ctx, account.ID, st.FailedAttempts, next)
		if err != nil {
			slogx.FromContext(ctx).Error("lockout bookkeeping write failed",
				"account_id", account.ID, "error", err)
			return
		}
		if applied {
			return
		}

		fresh, err := s.Store.Accounts().GetAccountByID(ctx, account.ID)
		if err != nil {
			slogx.FromContext(ctx).Error("lockout bookkeeping re-read failed",
				"account_id", account.ID, "error", err)
			return
		}
		st = fresh.Lockout
	}
	slogx.FromContext(ctx).Warn("lockout bookkeeping gave up after retries",
		"account_id", account.ID, "retries", lockoutWriteRetries)
}

// Register creates a new account in the given role family. Email and
// username collisions surface as store.ErrAlreadyExists.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (domain.Account, error) {
	if !req.Role.Valid() {
		return domain.Account{}, ErrInvalidCredentials
	}
	if len(req.Password) < minPasswordLength {
		return domain.Account{}, ErrWeakPassword
	}

	hash, err := cryptox.HashPassword(req.Password)
	if err != nil {
		return domain.Account{}, err
	}

	now := s.now()
	account := domain.Account{
		ID:           idx.NewAt(now).String(),
		Email:        req.Email,
		Username:     req.Username,
		Role:         req.Role,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Accounts().CreateAccount(ctx, account); err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

// Logout revokes the session behind the refresh token. Idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshJWT string) error {
	return s.Tokens.Revoke(ctx, refreshJWT)
}

// Profile returns the account for an authenticated subject.
func (s *AuthService) Profile(ctx context.Context, accountID string) (domain.Account, error) {
	return s.Store.Accounts().GetAccountByID(ctx, accountID)
}

// ChangePassword verifies the current password, swaps in the new hash and
// revokes every outstanding session of the account in one transaction.
func (s *AuthService) ChangePassword(ctx context.Context, accountID, current, next string) error {
	if len(next) < minPasswordLength {
		return ErrWeakPassword
	}

	account, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if err := cryptox.VerifyPassword(current, account.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return ErrInvalidCredentials
		}
		return err
	}

	hash, err := cryptox.HashPassword(next)
	if err != nil {
		return err
	}

	now := s.now()
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().UpdatePasswordHash(ctx, accountID, hash); err != nil {
			return err
		}
		return tx.Sessions().RevokeAllAccountSessions(ctx, accountID, now)
	})
}
