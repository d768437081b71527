package service

import (
	"context"
	"errors"
	"time"

	"github.com/lanternworks/gatehouse/internal/auth/domain"
	"github.com/lanternworks/gatehouse/internal/auth/store"
	"github.com/lanternworks/gatehouse/pkg/cryptox"
	"github.com/lanternworks/gatehouse/pkg/idx"
	"github.com/lanternworks/gatehouse/pkg/jwtx"
)

// TokenService signs access/refresh pairs and rotates refresh tokens. Every
// refresh token is bound to exactly one session row through the sid claim
// and the stored fingerprint; rotation replaces the row, so a refresh token
// is spendable at most once no matter how many copies exist.
type TokenService struct {
	Keys  *jwtx.KeyManager
	Store store.Store

	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now is the service clock. Defaults to time.Now; tests inject one.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *TokenService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *TokenService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// IssuePair signs a fresh access/refresh pair for the account and records
// the backing session through st, which may be the root store or an open
// transaction when the caller needs the session to land atomically with
// other writes.
func (s *TokenService) IssuePair(ctx context.Context, st store.Store, account domain.Account) (domain.TokenPair, domain.Session, error) {
	now := s.now()
	sessionID := idx.NewAt(now).String()

	pair, refreshJWT, err := s.signPair(account, sessionID, now)
	if err != nil {
		return domain.TokenPair{}, domain.Session{}, err
	}

	session := domain.Session{
		ID:               sessionID,
		AccountID:        account.ID,
		Role:             account.Role,
		RefreshTokenHash: cryptox.FingerprintToken(refreshJWT),
		ExpiresAt:        now.Add(s.refreshTTL()),
		LastActivityAt:   now,
		CreatedAt:        now,
	}
	if err := st.Sessions().CreateSession(ctx, session); err != nil {
		return domain.TokenPair{}, domain.Session{}, err
	}

	return pair, session, nil
}

// Refresh spends a refresh token: it revokes the old session and issues a
// new pair bound to a replacement session, all in one transaction. Replaying
// the same token, concurrently or later, yields ErrSessionInvalid for every
// caller but one. A token minted under a different role family than role is
// rejected before anything is spent.
func (s *TokenService) Refresh(ctx context.Context, refreshJWT string, role domain.Role) (domain.TokenPair, domain.Session, error) {
	now := s.now()

	claims, err := s.verifyRefresh(refreshJWT)
	if err != nil {
		return domain.TokenPair{}, domain.Session{}, err
	}
	if domain.Role(claims.Role) != role {
		return domain.TokenPair{}, domain.Session{}, ErrInvalidToken
	}

	session, err := s.Store.Sessions().GetSessionByID(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, domain.Session{}, ErrSessionInvalid
		}
		return domain.TokenPair{}, domain.Session{}, err
	}
	if !session.Valid(now) {
		return domain.TokenPair{}, domain.Session{}, ErrSessionInvalid
	}
	if !cryptox.FingerprintEqual(session.RefreshTokenHash, cryptox.FingerprintToken(refreshJWT)) {
		return domain.TokenPair{}, domain.Session{}, ErrSessionInvalid
	}

	account, err := s.Store.Accounts().GetAccountByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, domain.Session{}, ErrSessionInvalid
		}
		return domain.TokenPair{}, domain.Session{}, err
	}
	if !account.Active {
		return domain.TokenPair{}, domain.Session{}, ErrAccountInactive
	}
	if account.Role.Policy().RequireVerifiedEmail && !account.EmailVerified {
		return domain.TokenPair{}, domain.Session{}, ErrAccountInactive
	}

	var (
		pair domain.TokenPair
		next domain.Session
	)
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		applied, err := tx.Sessions().RevokeSession(ctx, session.ID, now)
		if err != nil {
			return err
		}
		if !applied {
			// Lost the race against a concurrent spend of the same token.
			return ErrSessionInvalid
		}

		pair, next, err = s.IssuePair(ctx, tx, account)
		return err
	})
	if err != nil {
		return domain.TokenPair{}, domain.Session{}, err
	}

	return pair, next, nil
}

// Revoke ends the session a refresh token is bound to. It is idempotent:
// a malformed token, a missing session or an already-revoked session all
// succeed silently, so a logout never fails for token reasons.
func (s *TokenService) Revoke(ctx context.Context, refreshJWT string) error {
	claims, err := s.verifyRefresh(refreshJWT)
	if err != nil {
		return nil
	}

	session, err := s.Store.Sessions().GetSessionByID(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if !cryptox.FingerprintEqual(session.RefreshTokenHash, cryptox.FingerprintToken(refreshJWT)) {
		return nil
	}

	_, err = s.Store.Sessions().RevokeSession(ctx, session.ID, s.now())
	return err
}

func (s *TokenService) verifyRefresh(refreshJWT string) (jwtx.Claims, error) {
	claims, err := s.Keys.Verifier.Verify(refreshJWT)
	if err != nil {
		return jwtx.Claims{}, ErrInvalidToken
	}
	if err := claims.ValidateUse(jwtx.TokenUseRefresh); err != nil {
		return jwtx.Claims{}, ErrInvalidToken
	}
	if !domain.Role(claims.Role).Valid() || claims.SID == "" {
		return jwtx.Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func (s *TokenService) signPair(account domain.Account, sessionID string, now time.Time) (domain.TokenPair, string, error) {
	signer := s.Keys.GetSigner()

	accessClaims := jwtx.NewClaims(
		account.ID, sessionID, account.Role.String(), jwtx.TokenUseAccess,
		account.Email, s.Issuer, s.accessTTL(), now,
	)
	accessJWT, err := signer.Sign(accessClaims)
	if err != nil {
		return domain.TokenPair{}, "", err
	}

	refreshClaims := jwtx.NewClaims(
		account.ID, sessionID, account.Role.String(), jwtx.TokenUseRefresh,
		account.Email, s.Issuer, s.refreshTTL(), now,
	)
	refreshJWT, err := signer.Sign(refreshClaims)
	if err != nil {
		return domain.TokenPair{}, "", err
	}

	return domain.TokenPair{
		AccessToken:  accessJWT,
		RefreshToken: refreshJWT,
		ExpiresAt:    now.Add(s.accessTTL()),
		RefreshUntil: now.Add(s.refreshTTL()),
	}, refreshJWT, nil
}
