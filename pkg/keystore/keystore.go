// Package keystore defines the wallet core's external signing capability.
// It is a thin, opaque boundary: the core never inspects or holds private
// key material, only asks a SigningKey to sign bytes and to report its
// public JWK. Grounded on pkg/signing.Signer's interface shape, generalized
// from a JWT-algorithm-reporting signer to the alias-keyed lookup this spec
// requires.
package keystore

import "context"

// SigningKey is a single P-256 ECDSA signing capability addressed by alias.
// Sign may block (it may reach hardware or a remote HSM); callers must
// treat it as a suspension point, never assume it returns immediately.
type SigningKey interface {
	// JWK returns the public key as a JSON Web Key string.
	JWK() (string, error)

	// Sign signs data and returns the signature bytes. The signature may be
	// raw (64-byte r||s) or DER-encoded; see pkg/mdlsession's
	// NormalizeToRawSignature, which turns either form into the canonical raw
	// encoding.
	Sign(ctx context.Context, data []byte) ([]byte, error)
}

// KeyStore resolves a key alias to a SigningKey. Implementations are
// supplied by the host application; the core treats every KeyStore as
// trusted and opaque.
type KeyStore interface {
	GetSigningKey(ctx context.Context, alias string) (SigningKey, error)
}

// ErrKeyNotFound is returned by a KeyStore implementation when an alias has
// no corresponding signing key.
type ErrKeyNotFound struct {
	Alias string
}

func (e *ErrKeyNotFound) Error() string {
	return "keystore: no signing key for alias " + e.Alias
}
