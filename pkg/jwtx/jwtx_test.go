package jwtx_test

import (
	"testing"
	"time"

	"github.com/lanternworks/gatehouse/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "gatehouse-test"

func newManager(t *testing.T, numKeys int) *jwtx.KeyManager {
	t.Helper()
	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Issuer:  testIssuer,
		NumKeys: numKeys,
	})
	require.NoError(t, err)
	return km
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	km := newManager(t, 1)
	now := time.Now().UTC()

	claims := jwtx.NewClaims(
		"account-1", "session-1", "member", jwtx.TokenUseAccess,
		"a@x.com", testIssuer, time.Hour, now,
	)

	token, err := km.GetSigner().Sign(claims)
	require.NoError(t, err)

	got, err := km.Verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "account-1", got.Subject)
	require.Equal(t, "session-1", got.SID)
	require.Equal(t, "member", got.Role)
	require.Equal(t, jwtx.TokenUseAccess, got.Use)
	require.Equal(t, "a@x.com", got.Email)
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	t.Parallel()

	issuing := newManager(t, 1)
	verifying := newManager(t, 1)

	claims := jwtx.NewClaims("a", "s", "member", jwtx.TokenUseAccess, "", testIssuer, time.Hour, time.Now().UTC())
	token, err := issuing.GetSigner().Sign(claims)
	require.NoError(t, err)

	_, err = verifying.Verifier.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	t.Parallel()

	km := newManager(t, 1)
	past := time.Now().UTC().Add(-2 * time.Hour)

	claims := jwtx.NewClaims("a", "s", "member", jwtx.TokenUseAccess, "", testIssuer, time.Hour, past)
	token, err := km.GetSigner().Sign(claims)
	require.NoError(t, err)

	_, err = km.Verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	km := newManager(t, 1)

	claims := jwtx.NewClaims("a", "s", "member", jwtx.TokenUseAccess, "", "someone-else", time.Hour, time.Now().UTC())
	token, err := km.GetSigner().Sign(claims)
	require.NoError(t, err)

	_, err = km.Verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestValidateUse(t *testing.T) {
	t.Parallel()

	claims := jwtx.NewClaims("a", "s", "member", jwtx.TokenUseRefresh, "", testIssuer, time.Hour, time.Now().UTC())
	require.NoError(t, claims.ValidateUse(jwtx.TokenUseRefresh))
	require.ErrorIs(t, claims.ValidateUse(jwtx.TokenUseAccess), jwtx.ErrTokenUse)
}

func TestNewClaimsAssignsUniqueJTI(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	a := jwtx.NewClaims("a", "s", "member", jwtx.TokenUseAccess, "", testIssuer, time.Hour, now)
	b := jwtx.NewClaims("a", "s", "member", jwtx.TokenUseAccess, "", testIssuer, time.Hour, now)
	require.NotEqual(t, a.ID, b.ID)
}

func TestMultiKeyManagerPublishesAllKeys(t *testing.T) {
	t.Parallel()

	km := newManager(t, 3)
	require.Len(t, km.KeySet.PublicJWKS().Keys, 3)
	require.True(t, km.KeySet.IsReady())

	// Any signer's tokens must verify against the shared key set.
	for range 10 {
		claims := jwtx.NewClaims("a", "s", "member", jwtx.TokenUseAccess, "", testIssuer, time.Hour, time.Now().UTC())
		token, err := km.GetSigner().Sign(claims)
		require.NoError(t, err)
		_, err = km.Verifier.Verify(token)
		require.NoError(t, err)
	}
}
