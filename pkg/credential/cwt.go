package credential

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	walletcbor "github.com/eudiwallet/core/pkg/cbor"
	"github.com/eudiwallet/core/pkg/mdoc"
)

// Cwt is a parsed CBOR Web Token credential, carried over the wire as a
// multibase-prefixed, base-10 encoded, raw-DEFLATE compressed CBOR
// COSE_Sign1 blob (no zlib header).
// Grounded on pkg/mdoc/cose.go's COSESign1 CBOR (de)serialization for the
// COSE layer; the multibase/base10/deflate transport encoding has no teacher
// counterpart and is decoded with the standard library (see DESIGN.md).
type Cwt struct {
	ID         uuid.UUID
	RawPayload []byte
	CoseSign1  *mdoc.COSESign1
	Claims     map[string]any
	KeyAlias   string
}

// NewCwt parses a transport-encoded CWT string: a leading '9' multibase
// prefix, the remainder a base-10 integer whose big-endian byte
// representation is a raw-DEFLATE compressed CBOR COSE_Sign1.
func NewCwt(encoded string, keyAlias string) (*Cwt, error) {
	if len(encoded) == 0 || encoded[0] != '9' {
		return nil, &CwtError{Kind: CwtErrorBadPrefix, Err: fmt.Errorf("missing '9' multibase prefix")}
	}
	digits := encoded[1:]

	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, &CwtError{Kind: CwtErrorBadDigits, Err: fmt.Errorf("not a base-10 integer")}
	}
	deflated := n.Bytes()

	raw, err := inflate(deflated)
	if err != nil {
		return nil, &CwtError{Kind: CwtErrorInflateFailed, Err: err}
	}

	var sign1 mdoc.COSESign1
	if err := cbor.Unmarshal(raw, &sign1); err != nil {
		return nil, &CwtError{Kind: CwtErrorBadCBOR, Err: err}
	}

	var rawClaims map[int]any
	if err := cbor.Unmarshal(sign1.Payload, &rawClaims); err != nil {
		return nil, &CwtError{Kind: CwtErrorBadCBOR, Err: err}
	}

	claims := make(map[string]any, len(rawClaims))
	for k, v := range rawClaims {
		claims[walletcbor.KeyToString(walletcbor.ClaimKey(k))] = v
	}

	c := &Cwt{
		ID:         uuid.New(),
		RawPayload: raw,
		CoseSign1:  &sign1,
		Claims:     claims,
		KeyAlias:   keyAlias,
	}

	if err := c.checkExpiry(); err != nil {
		return nil, err
	}
	return c, nil
}

func inflate(deflated []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(deflated))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// checkExpiry eagerly enforces the exp claim, if present. Other temporal
// claims (nbf, iat) are reported through Claims but not enforced here.
func (c *Cwt) checkExpiry() error {
	expRaw, ok := c.Claims[walletcbor.KeyToString(walletcbor.ClaimExpiration)]
	if !ok {
		return nil
	}
	var expUnix int64
	switch v := expRaw.(type) {
	case int64:
		expUnix = v
	case uint64:
		expUnix = int64(v)
	case int:
		expUnix = int64(v)
	default:
		return nil
	}
	if time.Now().After(time.Unix(expUnix, 0)) {
		return &CwtError{Kind: CwtErrorExpired, Err: fmt.Errorf("expired at %s", time.Unix(expUnix, 0))}
	}
	return nil
}
