package credential

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/eudiwallet/core/pkg/mdoc"
)

func buildTestIssuerSigned(t *testing.T) ([]byte, *ecdsa.PrivateKey) {
	t.Helper()

	issuerKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	mso := mdoc.MobileSecurityObject{
		Version:         "1.0",
		DigestAlgorithm: "SHA-256",
		ValueDigests: map[string]map[uint][]byte{
			"org.iso.18013.5.1": {1: []byte("digest-one")},
		},
		DeviceKeyInfo: mdoc.DeviceKeyInfo{},
		DocType:       "org.iso.18013.5.1.mDL",
		ValidityInfo: mdoc.ValidityInfo{
			Signed:     time.Now(),
			ValidFrom:  time.Now(),
			ValidUntil: time.Now().Add(24 * time.Hour),
		},
	}
	msoBytes, err := cbor.Marshal(mso)
	if err != nil {
		t.Fatalf("Marshal(mso) error = %v", err)
	}

	signedMSO, err := mdoc.Sign1(msoBytes, issuerKey, mdoc.AlgorithmES256, nil, nil)
	if err != nil {
		t.Fatalf("Sign1() error = %v", err)
	}
	issuerAuth, err := cbor.Marshal(signedMSO)
	if err != nil {
		t.Fatalf("Marshal(signedMSO) error = %v", err)
	}

	issuerSigned := mdoc.IssuerSigned{
		NameSpaces: map[string][]mdoc.IssuerSignedItem{
			"org.iso.18013.5.1": {
				{
					DigestID:          1,
					Random:            []byte("0123456789abcdef"),
					ElementIdentifier: "given_name",
					ElementValue:      "Erika",
				},
				{
					DigestID:          2,
					Random:            []byte("0123456789abcdef"),
					ElementIdentifier: "portrait",
					ElementValue:      []byte{0xff, 0xd8, 0xff},
				},
			},
		},
		IssuerAuth: issuerAuth,
	}
	encoded, err := cbor.Marshal(issuerSigned)
	if err != nil {
		t.Fatalf("Marshal(issuerSigned) error = %v", err)
	}
	return encoded, issuerKey
}

func TestNewMdocFromIssuerSigned(t *testing.T) {
	encoded, _ := buildTestIssuerSigned(t)
	b64 := base64.RawURLEncoding.EncodeToString(encoded)

	doc, err := NewMdocFromIssuerSigned("org.iso.18013.5.1.mDL", b64, "alias-1")
	if err != nil {
		t.Fatalf("NewMdocFromIssuerSigned() error = %v", err)
	}
	if doc.DocType != "org.iso.18013.5.1.mDL" {
		t.Errorf("DocType = %q", doc.DocType)
	}
	if doc.MSO.DocType != "org.iso.18013.5.1.mDL" {
		t.Errorf("MSO.DocType = %q", doc.MSO.DocType)
	}
	if doc.KeyAlias != "alias-1" {
		t.Errorf("KeyAlias = %q", doc.KeyAlias)
	}
	if doc.ID == uuid.Nil {
		t.Error("ID was not generated")
	}
}

func TestNewMdocFromIssuerSigned_InvalidEncoding(t *testing.T) {
	_, err := NewMdocFromIssuerSigned("org.iso.18013.5.1.mDL", "not base64!!", "alias-1")
	var initErr *MdocInitError
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.As(err, &initErr) || initErr.Kind != MdocInitInvalidEncoding {
		t.Errorf("err = %v, want MdocInitInvalidEncoding", err)
	}
}

func TestNewMdocFromDocumentCBOR(t *testing.T) {
	issuerSignedBytes, _ := buildTestIssuerSigned(t)
	var issuerSigned mdoc.IssuerSigned
	if err := cbor.Unmarshal(issuerSignedBytes, &issuerSigned); err != nil {
		t.Fatalf("Unmarshal(issuerSigned) error = %v", err)
	}

	doc := mdoc.Document{
		DocType:      "org.iso.18013.5.1.mDL",
		IssuerSigned: issuerSigned,
	}
	docBytes, err := cbor.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal(doc) error = %v", err)
	}

	parsed, err := NewMdocFromDocumentCBOR(docBytes, "")
	if err != nil {
		t.Fatalf("NewMdocFromDocumentCBOR() error = %v", err)
	}
	if parsed.DocType != "org.iso.18013.5.1.mDL" {
		t.Errorf("DocType = %q", parsed.DocType)
	}
}

func TestMdoc_Details_PortraitMime(t *testing.T) {
	encoded, _ := buildTestIssuerSigned(t)
	b64 := base64.RawURLEncoding.EncodeToString(encoded)

	doc, err := NewMdocFromIssuerSigned("org.iso.18013.5.1.mDL", b64, "")
	if err != nil {
		t.Fatalf("NewMdocFromIssuerSigned() error = %v", err)
	}

	details := doc.Details()
	elements := details["org.iso.18013.5.1"]
	found := false
	for _, el := range elements {
		if el.Identifier == "portrait" {
			found = true
			s, ok := el.Value.(string)
			if !ok {
				t.Fatalf("portrait value is %T, want string", el.Value)
			}
			if want := "data:image/jpeg;base64,"; len(s) < len(want) || s[:len(want)] != want {
				t.Errorf("portrait rendering = %q, want prefix %q", s, want)
			}
		}
	}
	if !found {
		t.Fatal("portrait element not found in details")
	}
}

func TestMdoc_EmptyNamespaces(t *testing.T) {
	_, err := newMdoc("org.iso.18013.5.1.mDL", &mdoc.IssuerSigned{IssuerAuth: []byte{0x01}}, "")
	var initErr *MdocInitError
	if !errors.As(err, &initErr) || initErr.Kind != MdocInitEmptyNamespaces {
		t.Errorf("err = %v, want MdocInitEmptyNamespaces", err)
	}
}
