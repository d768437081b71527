package cryptox_test

import (
	"testing"

	"github.com/lanternworks/gatehouse/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	a, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)
	b, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)

	require.NotEmpty(t, a)
	require.NotEqual(t, a, b)

	_, err = cryptox.GenerateToken(0)
	require.Error(t, err)
}

func TestFingerprintTokenIsDeterministic(t *testing.T) {
	t.Parallel()

	fp1 := cryptox.FingerprintToken("some-token")
	fp2 := cryptox.FingerprintToken("some-token")
	other := cryptox.FingerprintToken("other-token")

	require.Equal(t, fp1, fp2)
	require.NotEqual(t, fp1, other)
	require.True(t, cryptox.FingerprintEqual(fp1, fp2))
	require.False(t, cryptox.FingerprintEqual(fp1, other))
}
