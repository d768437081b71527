package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	mrand "math/rand/v2"
	"sync"
)

// KeyManager owns the signing keys for one process. Keys are ephemeral:
// generated at startup, never persisted, which means every outstanding token
// dies with a restart. That is an accepted property here since the session
// table, not the token, is the source of truth for refresh validity.
type KeyManager struct {
	Verifier Verifier
	KeySet   *KeySet

	mu      sync.RWMutex
	signers []Signer
}

// KeyManagerOptions configures the KeyManager.
type KeyManagerOptions struct {
	// Issuer is the iss claim stamped into and validated on tokens. Required.
	Issuer string

	// NumKeys is how many signing keys to generate. Signing is spread
	// randomly across them. Defaults to 3; clamped to [1, 10].
	NumKeys int
}

// NewEphemeralKeyManager generates NumKeys Ed25519 keypairs and wires up
// the KeySet and verifier around them.
func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, fmt.Errorf("jwtx: Issuer is required")
	}

	numKeys := opts.NumKeys
	if numKeys <= 0 {
		numKeys = 3
	}
	if numKeys > 10 {
		numKeys = 10
	}

	keySet := NewKeySet()
	signers := make([]Signer, 0, numKeys)

	for i := 0; i < numKeys; i++ {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("jwtx: generate Ed25519 key: %w", err)
		}

		kid, err := randomKID()
		if err != nil {
			return nil, err
		}

		signer, err := NewSignerEdDSA(kid, priv)
		if err != nil {
			return nil, err
		}
		if err := keySet.AddSigner(signer); err != nil {
			return nil, err
		}
		signers = append(signers, signer)
	}

	return &KeyManager{
		Verifier: NewVerifierEdDSA(keySet, opts.Issuer),
		KeySet:   keySet,
		signers:  signers,
	}, nil
}

// GetSigner returns one of the signing keys, chosen randomly to spread load.
func (m *KeyManager) GetSigner() Signer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.signers) == 1 {
		return m.signers[0]
	}
	return m.signers[mrand.IntN(len(m.signers))]
}

func randomKID() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("jwtx: generate kid: %w", err)
	}
	return fmt.Sprintf("key-%x", b), nil
}
