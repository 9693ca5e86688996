package mdlsession

import (
	"encoding/asn1"
	"fmt"
	"math/big"
)

// p256SignatureLen is the raw r||s encoding length of a P-256 ECDSA
// signature (32 bytes each for r and s).
const p256SignatureLen = 64

type asn1ECDSASignature struct {
	R, S *big.Int
}

// NormalizeToRawSignature accepts either a raw 64-byte r||s ECDSA signature
// or a DER ASN.1-encoded one and returns the raw r||s form, padded to
// p256SignatureLen. External key stores (particularly hardware-backed
// ones) commonly return DER; the wallet's COSE/mdoc layer and the JSON-LD
// presentation signer both need raw, so this generalizes
// pkg/mdoc/cose.go's convertECDSASignatureToRaw/parseASN1Signature pair into
// a signer-agnostic probe shared by both callers.
func NormalizeToRawSignature(sig []byte) ([]byte, error) {
	if len(sig) == p256SignatureLen {
		return sig, nil
	}

	var parsed asn1ECDSASignature
	if _, err := asn1.Unmarshal(sig, &parsed); err != nil {
		return nil, fmt.Errorf("signature is neither raw %d-byte r||s nor valid DER: %w", p256SignatureLen, err)
	}

	raw := make([]byte, p256SignatureLen)
	rBytes := parsed.R.Bytes()
	sBytes := parsed.S.Bytes()
	if len(rBytes) > p256SignatureLen/2 || len(sBytes) > p256SignatureLen/2 {
		return nil, fmt.Errorf("DER signature component too large for P-256")
	}
	copy(raw[p256SignatureLen/2-len(rBytes):p256SignatureLen/2], rBytes)
	copy(raw[p256SignatureLen-len(sBytes):], sBytes)
	return raw, nil
}
