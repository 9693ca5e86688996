package trust

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/multiformats/go-multibase"

	"github.com/eudiwallet/core/pkg/pki"
)

// WalletTrustEvaluator is the wallet core's trust evaluator. It validates an
// x5c two-certificate chain (document signer + IACA/issuer root) against a
// configured root bundle, and falls back to resolving a bare public key from
// a did:key or did:jwk subject identifier when no certificate chain is
// present. Grounded on pkg/mdoc/iaca.go's IACATrustList.IsTrusted for the
// chain-validation shape and pkg/keyresolver's LocalResolver for the DID
// decode logic, narrowed to the P-256 curve this wallet core signs with.
//
// CRL and OCSP revocation checking are deliberately not implemented; a
// WalletTrustEvaluator only checks chain validity and key usage.
type WalletTrustEvaluator struct {
	roots []*x509.Certificate
}

// NewWalletTrustEvaluator builds an evaluator over the given trusted root
// certificates (e.g. an IACA or issuer CA bundle loaded by the host app).
func NewWalletTrustEvaluator(roots []*x509.Certificate) *WalletTrustEvaluator {
	return &WalletTrustEvaluator{roots: roots}
}

// NewWalletTrustEvaluatorFromPEMBundle builds an evaluator from a PEM file
// of trust anchors, the form Config.TrustedRootsPath points at.
func NewWalletTrustEvaluatorFromPEMBundle(path string) (*WalletTrustEvaluator, error) {
	roots, err := pki.LoadTrustedRoots(path)
	if err != nil {
		return nil, fmt.Errorf("trust: loading trusted roots: %w", err)
	}
	return NewWalletTrustEvaluator(roots), nil
}

// SupportsKeyType reports support for both x5c chains and bare JWK/DID keys.
func (e *WalletTrustEvaluator) SupportsKeyType(kt KeyType) bool {
	return kt == KeyTypeX5C || kt == KeyTypeJWK
}

// Evaluate validates req.Key, expected to be a two-certificate chain
// ([]*x509.Certificate{signer, root} or an X5CCertChain of the same shape),
// against e.roots. It tries every trusted root whose subject matches the
// signer's issuer, accumulating a failure reason per root attempted so a
// caller can see exactly why each candidate root was rejected.
func (e *WalletTrustEvaluator) Evaluate(ctx context.Context, req *EvaluationRequest) (*TrustDecision, error) {
	if req == nil {
		return nil, fmt.Errorf("trust: evaluation request is nil")
	}

	chain, err := asCertChain(req.Key)
	if err != nil {
		return &TrustDecision{Trusted: false, Reason: err.Error()}, nil
	}
	if len(chain) != 2 {
		return &TrustDecision{
			Trusted: false,
			Reason:  fmt.Sprintf("expected a two-certificate chain (signer, root), got %d", len(chain)),
		}, nil
	}

	signer := chain[0]

	if len(e.roots) == 0 {
		return &TrustDecision{Trusted: false, Reason: "no trusted roots configured"}, nil
	}

	var trail []string
	now := time.Now()
	for _, root := range e.roots {
		if reason := validatePair(signer, root, now); reason != "" {
			trail = append(trail, fmt.Sprintf("root %s: %s", root.Subject.CommonName, reason))
			continue
		}
		return &TrustDecision{
			Trusted:        true,
			Reason:         "signer verified against root " + root.Subject.CommonName,
			TrustFramework: "x509-chain",
		}, nil
	}

	return &TrustDecision{
		Trusted: false,
		Reason:  "no trusted root validated the chain: " + strings.Join(trail, "; "),
	}, nil
}

// validatePair checks a single (signer, root) candidate and returns an empty
// string on success, or the reason it was rejected. Verification uses the
// signature bytes carried in the signer certificate itself (standard X.509
// DER ASN.1, via x509.CheckSignatureFrom) against the root's P-256 key;
// certificates are always DER-signed by construction, so this is the
// concrete form "the signer's raw signature bytes" takes at the X.509 layer,
// as opposed to the raw r||s convention this wallet core otherwise uses for
// COSE and JOSE signatures (see DESIGN.md).
func validatePair(signer, root *x509.Certificate, now time.Time) string {
	if signer.Issuer.String() != root.Subject.String() {
		return "issuer/subject mismatch"
	}
	if now.Before(root.NotBefore) || now.After(root.NotAfter) {
		return "root certificate outside its validity window"
	}
	if now.Before(signer.NotBefore) || now.After(signer.NotAfter) {
		return "signer certificate outside its validity window"
	}
	if !root.IsCA || root.KeyUsage&x509.KeyUsageCertSign == 0 {
		return "root lacks keyCertSign usage"
	}
	if signer.KeyUsage&x509.KeyUsageDigitalSignature == 0 {
		return "signer lacks digitalSignature usage"
	}
	if _, ok := root.PublicKey.(*ecdsa.PublicKey); !ok {
		return "root public key is not ECDSA"
	}
	if err := signer.CheckSignatureFrom(root); err != nil {
		return "signature verification failed: " + err.Error()
	}
	return ""
}

// ResolveKey implements KeyResolver for subjects without an x5c chain: a
// did:key or did:jwk identifier carrying a P-256 public key directly.
func (e *WalletTrustEvaluator) ResolveKey(ctx context.Context, verificationMethod string) (crypto.PublicKey, error) {
	did := verificationMethod
	if idx := strings.Index(did, "#"); idx >= 0 {
		did = did[:idx]
	}

	switch {
	case strings.HasPrefix(did, "did:key:"):
		return decodeDidKeyECDSA(strings.TrimPrefix(did, "did:key:"))
	case strings.HasPrefix(did, "did:jwk:"):
		return decodeDidJwkECDSA(strings.TrimPrefix(did, "did:jwk:"))
	default:
		return nil, fmt.Errorf("trust: unsupported DID method for %q", verificationMethod)
	}
}

// decodeDidKeyECDSA decodes a did:key multibase-multicodec P-256 public key,
// grounded on pkg/keyresolver's did_helpers.go decodeMultikeyECDSA.
func decodeDidKeyECDSA(multikey string) (*ecdsa.PublicKey, error) {
	_, decoded, err := multibase.Decode(multikey)
	if err != nil {
		return nil, fmt.Errorf("trust: decode did:key multibase: %w", err)
	}
	if len(decoded) < 3 || decoded[0] != 0x80 || decoded[1] != 0x24 {
		return nil, fmt.Errorf("trust: did:key is not a P-256 multicodec key")
	}
	x, y := elliptic.UnmarshalCompressed(elliptic.P256(), decoded[2:])
	if x == nil {
		return nil, fmt.Errorf("trust: invalid compressed P-256 point in did:key")
	}
	return &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}, nil
}

// decodeDidJwkECDSA decodes a did:jwk identifier's base64url JWK body into a
// P-256 public key, grounded on pkg/keyresolver's resolver.go parseDidJwk and
// JWKToECDSA.
func decodeDidJwkECDSA(encoded string) (*ecdsa.PublicKey, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		raw, err = base64.URLEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("trust: decode did:jwk: %w", err)
		}
	}

	var jwk struct {
		Kty string `json:"kty"`
		Crv string `json:"crv"`
		X   string `json:"x"`
		Y   string `json:"y"`
	}
	if err := json.Unmarshal(raw, &jwk); err != nil {
		return nil, fmt.Errorf("trust: parse did:jwk JSON: %w", err)
	}
	if jwk.Kty != "EC" || jwk.Crv != "P-256" {
		return nil, fmt.Errorf("trust: did:jwk is not a P-256 EC key")
	}

	xb, err := base64.RawURLEncoding.DecodeString(jwk.X)
	if err != nil {
		return nil, fmt.Errorf("trust: decode did:jwk x coordinate: %w", err)
	}
	yb, err := base64.RawURLEncoding.DecodeString(jwk.Y)
	if err != nil {
		return nil, fmt.Errorf("trust: decode did:jwk y coordinate: %w", err)
	}

	curve := elliptic.P256()
	x := new(big.Int).SetBytes(xb)
	y := new(big.Int).SetBytes(yb)
	if !curve.IsOnCurve(x, y) {
		return nil, fmt.Errorf("trust: did:jwk point is not on P-256")
	}
	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}

// asCertChain normalises the various shapes an EvaluationRequest.Key may
// take for x5c requests into a plain certificate slice.
func asCertChain(key any) ([]*x509.Certificate, error) {
	switch v := key.(type) {
	case []*x509.Certificate:
		return v, nil
	case X5CCertChain:
		return []*x509.Certificate(v), nil
	default:
		return nil, fmt.Errorf("trust: expected an x5c certificate chain, got %T", key)
	}
}
