package credential

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/eudiwallet/core/pkg/mdoc"
)

// Mdoc is a parsed ISO 18013-5 mobile document, grounded on pkg/mdoc's
// IssuerSigned/Document/MobileSecurityObject types. It is accepted from one
// of three encodings a holder may receive a document in: a base64url
// IssuerSigned structure (the common OID4VP presentation shape), a legacy
// JSON-stringified Document (kept for compatibility with older issuers), or
// raw CBOR-encoded Document bytes.
type Mdoc struct {
	ID         uuid.UUID
	DocType    string
	NameSpaces map[string][]mdoc.IssuerSignedItem
	IssuerAuth []byte
	MSO        *mdoc.MobileSecurityObject
	KeyAlias   string
}

// NewMdocFromIssuerSigned builds an Mdoc from a base64url-encoded,
// CBOR-serialized IssuerSigned structure.
func NewMdocFromIssuerSigned(docType string, encoded string, keyAlias string) (*Mdoc, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		raw, err = base64.URLEncoding.DecodeString(encoded)
		if err != nil {
			return nil, &MdocInitError{Kind: MdocInitInvalidEncoding, Err: err}
		}
	}

	var issuerSigned mdoc.IssuerSigned
	if err := cbor.Unmarshal(raw, &issuerSigned); err != nil {
		return nil, &MdocInitError{Kind: MdocInitInvalidEncoding, Err: err}
	}
	return newMdoc(docType, &issuerSigned, keyAlias)
}

// NewMdocFromLegacyDocument builds an Mdoc from a legacy stringified
// Document: a JSON rendering of pkg/mdoc.Document, as produced by older
// issuer integrations that had not yet moved to the CBOR IssuerSigned
// exchange shape.
func NewMdocFromLegacyDocument(jsonDoc string, keyAlias string) (*Mdoc, error) {
	var doc mdoc.Document
	if err := json.Unmarshal([]byte(jsonDoc), &doc); err != nil {
		return nil, &MdocInitError{Kind: MdocInitInvalidEncoding, Err: err}
	}
	return newMdoc(doc.DocType, &doc.IssuerSigned, keyAlias)
}

// NewMdocFromDocumentCBOR builds an Mdoc from CBOR-encoded Document bytes,
// the shape a Document takes inside a DeviceResponse.
func NewMdocFromDocumentCBOR(docBytes []byte, keyAlias string) (*Mdoc, error) {
	var doc mdoc.Document
	if err := cbor.Unmarshal(docBytes, &doc); err != nil {
		return nil, &MdocInitError{Kind: MdocInitInvalidEncoding, Err: err}
	}
	return newMdoc(doc.DocType, &doc.IssuerSigned, keyAlias)
}

func newMdoc(docType string, issuerSigned *mdoc.IssuerSigned, keyAlias string) (*Mdoc, error) {
	if len(issuerSigned.NameSpaces) == 0 {
		return nil, &MdocInitError{Kind: MdocInitEmptyNamespaces}
	}
	if len(issuerSigned.IssuerAuth) == 0 {
		return nil, &MdocInitError{Kind: MdocInitMissingMSO}
	}

	var signedMSO mdoc.COSESign1
	if err := cbor.Unmarshal(issuerSigned.IssuerAuth, &signedMSO); err != nil {
		return nil, &MdocInitError{Kind: MdocInitMalformedMSO, Err: err}
	}
	mso, err := decodeTag24MSO(signedMSO.Payload)
	if err != nil {
		return nil, &MdocInitError{Kind: MdocInitMalformedMSO, Err: err}
	}

	return &Mdoc{
		ID:         uuid.New(),
		DocType:    docType,
		NameSpaces: issuerSigned.NameSpaces,
		IssuerAuth: issuerSigned.IssuerAuth,
		MSO:        mso,
		KeyAlias:   keyAlias,
	}, nil
}

// decodeTag24MSO decodes a COSE_Sign1 payload as a tag 24 encoded-CBOR
// MobileSecurityObject, falling back to a direct (untagged) decode for MSO
// payloads produced without the tag 24 wrapper.
func decodeTag24MSO(payload []byte) (*mdoc.MobileSecurityObject, error) {
	var wrapped mdoc.EncodedCBORBytes
	if err := cbor.Unmarshal(payload, &wrapped); err == nil {
		var mso mdoc.MobileSecurityObject
		if err := cbor.Unmarshal(wrapped, &mso); err == nil {
			return &mso, nil
		}
	}

	var mso mdoc.MobileSecurityObject
	if err := cbor.Unmarshal(payload, &mso); err != nil {
		return nil, fmt.Errorf("payload is not a tag 24 MobileSecurityObject: %w", err)
	}
	return &mso, nil
}

// ValidityInfo returns the MSO's display-oriented validity summary.
func (m *Mdoc) ValidityInfo() mdoc.MSOInfo {
	return mdoc.GetMSOInfo(m.MSO)
}

// Element is a single namespace element rendered for display.
type Element struct {
	Identifier string `json:"identifier"`
	Value      any    `json:"value"`
}

// Details renders every namespace element for UI consumption. Byte string
// values are rewritten as data URIs so a caller can render them directly;
// the portrait element's MIME is corrected from the generic
// application/octet-stream to image/jpeg, matching how ISO 18013-5 issuers
// encode the portrait element in practice.
func (m *Mdoc) Details() map[string][]Element {
	out := make(map[string][]Element, len(m.NameSpaces))
	for ns, items := range m.NameSpaces {
		rendered := make([]Element, 0, len(items))
		for _, item := range items {
			rendered = append(rendered, Element{
				Identifier: item.ElementIdentifier,
				Value:      renderElementValue(item.ElementIdentifier, item.ElementValue),
			})
		}
		out[ns] = rendered
	}
	return out
}

func renderElementValue(identifier string, value any) any {
	b, ok := value.([]byte)
	if !ok {
		return value
	}
	mime := "application/octet-stream"
	if identifier == "portrait" {
		mime = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(b))
}
