// Package credential implements the wallet core's format-agnostic credential
// envelope and its three payload variants: a W3C VCDM JSON credential, an
// ISO 18013-5 mdoc, and a CWT. Grounded on pkg/vc20/credential.VerifiableCredential
// for the JSON-LD variant and pkg/mdoc for the mdoc variant.
package credential

import (
	"time"

	"github.com/google/uuid"
)

// Format identifies the wire representation and proof mechanism of a
// Credential's payload.
type Format string

const (
	FormatMsoMdoc      Format = "mso_mdoc"
	FormatLdpVc        Format = "ldp_vc"
	FormatJwtVc        Format = "jwt_vc"
	FormatJwtVcJsonLd  Format = "jwt_vc_json-ld"
	FormatVCDM2SdJwt   Format = "vc+sd-jwt"
	FormatCwt          Format = "cwt"
)

// Credential is the storage envelope around a parsed credential payload. It
// is created once on receipt and is otherwise immutable except when
// re-keyed to a different signing alias.
type Credential struct {
	ID        uuid.UUID
	Format    Format
	Type      string
	Payload   []byte
	KeyAlias  string
	CreatedAt time.Time
}

// NewCredential builds a Credential envelope, stamping a fresh ID and the
// current time.
func NewCredential(format Format, typ string, payload []byte, keyAlias string) *Credential {
	return &Credential{
		ID:        uuid.New(),
		Format:    format,
		Type:      typ,
		Payload:   payload,
		KeyAlias:  keyAlias,
		CreatedAt: time.Now(),
	}
}

// Rekey returns a copy of the envelope bound to a different signing alias.
func (c *Credential) Rekey(alias string) *Credential {
	clone := *c
	clone.KeyAlias = alias
	return &clone
}
