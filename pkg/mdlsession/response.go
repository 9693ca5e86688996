package mdlsession

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/eudiwallet/core/pkg/mdoc"
)

// GenerateResponse scopes the in-process request to the permitted subset
// and returns the detached Sig_structure bytes an external key store must
// sign. The session never holds a private key: this is the boundary where
// control passes out to the holder's key store and back.
func (s *Session) GenerateResponse(permitted map[string]map[string][]string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProcess || s.inProcess == nil {
		return nil, &StateError{Op: "generate_response", Have: s.state, Expected: StateInProcess}
	}

	elements, ok := permitted[s.mdocDocType]
	if !ok {
		return nil, fmt.Errorf("mdlsession: no permitted elements for doc type %q", s.mdocDocType)
	}

	sd, err := mdoc.NewSelectiveDisclosure(s.issuerSigned)
	if err != nil {
		return nil, &SigningError{Op: "generate_response", Err: err}
	}
	disclosed, err := sd.Disclose(elements)
	if err != nil {
		return nil, &SigningError{Op: "generate_response", Err: err}
	}

	deviceNameSpacesBytes, err := cbor.Marshal(map[string]any{})
	if err != nil {
		return nil, &SigningError{Op: "generate_response", Err: err}
	}

	deviceAuth := []any{
		"DeviceAuthentication",
		s.inProcess.sessionTranscript,
		s.mdocDocType,
		deviceNameSpacesBytes,
	}
	deviceAuthBytes, err := cbor.Marshal(deviceAuth)
	if err != nil {
		return nil, &SigningError{Op: "generate_response", Err: err}
	}

	protected := map[int64]any{mdoc.HeaderAlgorithm: mdoc.AlgorithmES256}
	protectedBytes, err := cbor.Marshal(protected)
	if err != nil {
		return nil, &SigningError{Op: "generate_response", Err: err}
	}

	sigStructure := []any{"Signature1", protectedBytes, nil, deviceAuthBytes}
	sigStructureBytes, err := cbor.Marshal(sigStructure)
	if err != nil {
		return nil, &SigningError{Op: "generate_response", Err: err}
	}

	s.inProcess.disclosedIssuerSigned = disclosed
	s.inProcess.sigStructure = sigStructureBytes
	s.inProcess.protectedHeaderBytes = protectedBytes
	s.inProcess.awaitingSignature = true

	return sigStructureBytes, nil
}

// SubmitResponse accepts the signature produced over the bytes returned by
// GenerateResponse, normalizes it to raw r||s form, assembles the encrypted
// DeviceResponse, and advances the session toward termination. Only one
// document is supported per call; a request for more than one is already
// rejected by HandleRequest with TooManyDocumentsError.
func (s *Session) SubmitResponse(signature []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProcess || s.inProcess == nil || !s.inProcess.awaitingSignature {
		return nil, &StateError{Op: "submit_response", Have: s.state, Expected: StateInProcess}
	}

	rawSig, err := NormalizeToRawSignature(signature)
	if err != nil {
		return nil, &SigningError{Op: "submit_response", Err: err}
	}

	deviceNameSpacesBytes, err := cbor.Marshal(map[string]any{})
	if err != nil {
		return nil, &SigningError{Op: "submit_response", Err: err}
	}

	sign1 := &mdoc.COSESign1{
		Protected:   s.inProcess.protectedHeaderBytes,
		Unprotected: make(map[any]any),
		Payload:     nil,
		Signature:   rawSig,
	}
	sign1Bytes, err := cbor.Marshal(sign1)
	if err != nil {
		return nil, &SigningError{Op: "submit_response", Err: err}
	}

	doc := mdoc.Document{
		DocType:      s.mdocDocType,
		IssuerSigned: *s.inProcess.disclosedIssuerSigned,
		DeviceSigned: mdoc.DeviceSigned{
			NameSpaces: deviceNameSpacesBytes,
			DeviceAuth: mdoc.DeviceAuth{DeviceSignature: sign1Bytes},
		},
	}

	deviceResponse := &mdoc.DeviceResponse{
		Version:   "1.0",
		Documents: []mdoc.Document{doc},
		Status:    0,
	}

	deviceResponseBytes, err := mdoc.EncodeDeviceResponse(deviceResponse)
	if err != nil {
		return nil, &SigningError{Op: "submit_response", Err: err}
	}

	ciphertext, err := s.inProcess.sessionEncryption.Encrypt(deviceResponseBytes)
	if err != nil {
		return nil, &SigningError{Op: "submit_response", Err: err}
	}

	sessionData := mdoc.SessionData{Data: ciphertext}
	sessionDataBytes, err := cbor.Marshal(sessionData)
	if err != nil {
		return nil, &SigningError{Op: "submit_response", Err: err}
	}

	s.state = StateTerminated
	return sessionDataBytes, nil
}

// TerminateSession emits a CBOR SessionData carrying the session
// termination status, for a holder-initiated abort rather than a
// completed presentation.
func (s *Session) TerminateSession() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := mdoc.SessionStatusSessionTerminated
	sessionData := mdoc.SessionData{Status: &status}
	data, err := cbor.Marshal(sessionData)
	if err != nil {
		return nil, fmt.Errorf("mdlsession: encode termination SessionData: %w", err)
	}

	s.state = StateTerminated
	s.inProcess = nil
	return data, nil
}
