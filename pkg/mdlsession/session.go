// Package mdlsession implements the holder side of an ISO/IEC 18013-5 mDL
// proximity presentation: device engagement, session establishment, and a
// signed DeviceResponse, driven through a detached-signing state machine so
// the session never holds the holder's private key. Grounded on
// pkg/mdoc/engagement.go, device_auth.go, selective_disclosure.go, cose.go
// and mso.go, which implement the same protocol from the issuer/verifier
// side; this package inverts the direction to the holder.
package mdlsession

import (
	"crypto/ecdsa"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/eudiwallet/core/pkg/credential"
	"github.com/eudiwallet/core/pkg/mdoc"
)

// RequestedItem is a single namespace/element pair a reader asked for,
// surfaced to the holder UI for a disclosure decision.
type RequestedItem struct {
	DocType      string
	Namespace    string
	Element      string
	IntentRetain bool
}

type inProcessState struct {
	itemsRequest      *mdoc.ItemsRequest
	sessionTranscript []byte
	sessionEncryption *mdoc.SessionEncryption

	disclosedIssuerSigned *mdoc.IssuerSigned
	sigStructure          []byte
	protectedHeaderBytes  []byte
	awaitingSignature     bool
}

// Session is a single mDL holder presentation session. All state
// transitions are guarded by mu; concurrent callers serialize rather than
// race, and a second handle_request call replaces (does not merge with)
// whatever the prior call cached.
type Session struct {
	mu sync.Mutex

	state State

	mdocDocType  string
	issuerSigned *mdoc.IssuerSigned

	eDeviceKey            *ecdsa.PrivateKey
	deviceEngagement      *mdoc.DeviceEngagement
	deviceEngagementBytes []byte

	qrCodeURI string
	bleIdent  []byte

	inProcess *inProcessState
}

// NewSession creates a session and immediately runs initialize, producing
// device engagement for m over BLE central client mode with bleUUID as the
// client identifier.
func NewSession(m *credential.Mdoc, bleUUID string) (*Session, error) {
	s := &Session{
		state:        StateInitial,
		mdocDocType:  m.DocType,
		issuerSigned: &mdoc.IssuerSigned{NameSpaces: m.NameSpaces, IssuerAuth: m.IssuerAuth},
	}
	if err := s.initialize(bleUUID); err != nil {
		return nil, err
	}
	return s, nil
}

// initialize builds device engagement advertising BLE central client mode
// with bleUUID, and a BLE identifier derived from a fresh random UUID.
// Peripheral server mode is left unset, per the holder-only profile this
// session implements.
func (s *Session) initialize(bleUUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInitial {
		return &StateError{Op: "initialize", Have: s.state, Expected: StateInitial}
	}

	builder, err := mdoc.NewEngagementBuilder().GenerateEphemeralKey()
	if err != nil {
		return fmt.Errorf("mdlsession: generate ephemeral key: %w", err)
	}
	builder = builder.WithBLE(mdoc.BLEOptions{
		SupportsCentralMode: true,
		CentralClientUUID:   &bleUUID,
	})
	engagement, eDeviceKey, err := builder.Build()
	if err != nil {
		return fmt.Errorf("mdlsession: build device engagement: %w", err)
	}

	engagementBytes, err := mdoc.EncodeDeviceEngagement(engagement)
	if err != nil {
		return fmt.Errorf("mdlsession: encode device engagement: %w", err)
	}
	qrURI, err := mdoc.DeviceEngagementToQRCode(engagement)
	if err != nil {
		return fmt.Errorf("mdlsession: encode QR code: %w", err)
	}

	identUUID := uuid.New()

	s.eDeviceKey = eDeviceKey
	s.deviceEngagement = engagement
	s.deviceEngagementBytes = engagementBytes
	s.qrCodeURI = qrURI
	s.bleIdent = identUUID[:]
	s.state = StateEngaged
	return nil
}

// QRCodeURI returns the engagement QR code payload.
func (s *Session) QRCodeURI() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.qrCodeURI
}

// BLEIdent returns the BLE identifier advertised in device engagement.
func (s *Session) BLEIdent() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bleIdent
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// HandleRequest decodes a CBOR SessionEstablishment, derives the session
// keys against the reader's ephemeral key, decrypts the enclosed
// ItemsRequest, and caches both in the session's in_process slot. A second
// call with new bytes replaces the cache outright rather than merging with
// whatever a prior call produced.
func (s *Session) HandleRequest(raw []byte) ([]RequestedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateEngaged && s.state != StateInProcess {
		return nil, &StateError{Op: "handle_request", Have: s.state, Expected: StateEngaged}
	}

	var establishment mdoc.SessionEstablishment
	if err := cbor.Unmarshal(raw, &establishment); err != nil {
		return nil, fmt.Errorf("mdlsession: decode SessionEstablishment: %w", err)
	}

	eReaderPub, err := extractCOSEPublicKey(establishment.EReaderKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("mdlsession: extract reader ephemeral key: %w", err)
	}

	sessionTranscript, err := mdoc.BuildSessionTranscript(
		s.deviceEngagementBytes, establishment.EReaderKeyBytes, mdoc.QRHandover())
	if err != nil {
		return nil, fmt.Errorf("mdlsession: build session transcript: %w", err)
	}

	sessionEncryption, err := mdoc.NewSessionEncryptionDevice(s.eDeviceKey, eReaderPub, sessionTranscript)
	if err != nil {
		return nil, fmt.Errorf("mdlsession: derive session keys: %w", err)
	}

	plaintext, err := sessionEncryption.Decrypt(establishment.Data)
	if err != nil {
		return nil, fmt.Errorf("mdlsession: decrypt session establishment data: %w", err)
	}

	var deviceRequest mdoc.DeviceRequest
	if err := cbor.Unmarshal(plaintext, &deviceRequest); err != nil {
		return nil, fmt.Errorf("mdlsession: decode DeviceRequest: %w", err)
	}
	if len(deviceRequest.DocRequests) == 0 {
		return nil, fmt.Errorf("mdlsession: DeviceRequest carries no document requests")
	}
	if len(deviceRequest.DocRequests) > 1 {
		return nil, &TooManyDocumentsError{Count: len(deviceRequest.DocRequests)}
	}

	var itemsRequest mdoc.ItemsRequest
	if err := cbor.Unmarshal(deviceRequest.DocRequests[0].ItemsRequest, &itemsRequest); err != nil {
		return nil, fmt.Errorf("mdlsession: decode ItemsRequest: %w", err)
	}

	s.inProcess = &inProcessState{
		itemsRequest:      &itemsRequest,
		sessionTranscript: sessionTranscript,
		sessionEncryption: sessionEncryption,
	}
	s.state = StateInProcess

	var requested []RequestedItem
	for ns, elems := range itemsRequest.NameSpaces {
		for elem, retain := range elems {
			requested = append(requested, RequestedItem{
				DocType:      itemsRequest.DocType,
				Namespace:    ns,
				Element:      elem,
				IntentRetain: retain,
			})
		}
	}
	return requested, nil
}

// extractCOSEPublicKey unwraps a tag 24 COSE_Key and converts it to an
// ECDSA public key, mirroring pkg/mdoc/engagement.go's ExtractEDeviceKey
// for the reader's ephemeral key rather than the device's.
func extractCOSEPublicKey(taggedKeyBytes []byte) (*ecdsa.PublicKey, error) {
	var keyMap map[int64]any
	if err := mdoc.UnwrapEncodedCBOR(mdoc.EncodedCBORBytes(taggedKeyBytes), &keyMap); err != nil {
		return nil, fmt.Errorf("unwrap COSE key: %w", err)
	}

	coseKey := &mdoc.COSEKey{}
	if err := coseKey.FromMap(keyMap); err != nil {
		return nil, fmt.Errorf("parse COSE key: %w", err)
	}

	pub, err := coseKey.ToPublicKey()
	if err != nil {
		return nil, err
	}
	ecdsaPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("expected an ECDSA public key")
	}
	return ecdsaPub, nil
}
