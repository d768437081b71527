package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// Token size constants, in bytes before encoding.
const (
	// TokenSize128 provides 128 bits of entropy.
	TokenSize128 = 16
	// TokenSize256 provides 256 bits of entropy, the default for anything
	// that gates authentication.
	TokenSize256 = 32
)

// GenerateToken returns a cryptographically random, base64url-encoded token
// of the given byte length.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// MustGenerateToken is GenerateToken for values that must exist, panicking
// when the system randomness source fails.
func MustGenerateToken(size int) string {
	tok, err := GenerateToken(size)
	if err != nil {
		panic(err)
	}
	return tok
}

// FingerprintToken returns the deterministic SHA-256 fingerprint of a token,
// base64url-encoded. Session rows store this instead of the token itself so
// a database leak does not leak usable refresh tokens.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// FingerprintEqual compares two fingerprints in constant time.
func FingerprintEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
