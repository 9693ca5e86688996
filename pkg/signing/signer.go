// Package signing provides interfaces and implementations for cryptographic signing operations.
package signing

import "context"

// Signer defines the interface for cryptographic signing operations.
// Implementations can use software keys, a secure enclave, cloud KMS, etc.
type Signer interface {
	// Sign signs the provided data and returns the signature.
	Sign(ctx context.Context, data []byte) ([]byte, error)

	// Algorithm returns the JWT algorithm name (e.g., "RS256", "ES256").
	Algorithm() string

	// KeyID returns the key identifier for the JWT kid header.
	KeyID() string

	// PublicKey returns the public key for verification purposes.
	PublicKey() any
}
