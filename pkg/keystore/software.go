package keystore

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"sync"

	"github.com/lestrrat-go/jwx/v3/jwk"

	"github.com/eudiwallet/core/pkg/signing"
)

// softwareSigningKey is an in-memory P-256 key backed by a
// signing.SoftwareSigner: keystore owns the alias-keyed lookup and JWK
// encoding, signing.SoftwareSigner owns the actual hash-then-sign step.
type softwareSigningKey struct {
	public *ecdsa.PublicKey
	signer *signing.SoftwareSigner
}

// NewSoftwareSigningKey wraps an ECDSA P-256 private key as a SigningKey.
// Intended for tests and local development; production host apps supply a
// KeyStore backed by a real hardware or remote key boundary.
func NewSoftwareSigningKey(private *ecdsa.PrivateKey) (SigningKey, error) {
	signer, err := signing.NewSoftwareSigner(private, "")
	if err != nil {
		return nil, fmt.Errorf("keystore: %w", err)
	}
	return &softwareSigningKey{public: &private.PublicKey, signer: signer}, nil
}

func (s *softwareSigningKey) JWK() (string, error) {
	key, err := jwk.Import(s.public)
	if err != nil {
		return "", fmt.Errorf("keystore: import public key: %w", err)
	}
	data, err := jwk.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("keystore: marshal jwk: %w", err)
	}
	return string(data), nil
}

// Sign delegates to the underlying signing.SoftwareSigner, which for a
// P-256 key already produces the raw fixed-width r||s encoding this wallet
// core uses for both JOSE and COSE signatures.
func (s *softwareSigningKey) Sign(ctx context.Context, data []byte) ([]byte, error) {
	return s.signer.Sign(ctx, data)
}

// MemoryKeyStore is an in-memory KeyStore test double keyed by alias,
// grounded on pkg/signing.Signer's alias-addressed shape.
type MemoryKeyStore struct {
	mu   sync.RWMutex
	keys map[string]SigningKey
}

func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{keys: make(map[string]SigningKey)}
}

func (m *MemoryKeyStore) Put(alias string, key SigningKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[alias] = key
}

func (m *MemoryKeyStore) GetSigningKey(ctx context.Context, alias string) (SigningKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key, ok := m.keys[alias]
	if !ok {
		return nil, &ErrKeyNotFound{Alias: alias}
	}
	return key, nil
}
