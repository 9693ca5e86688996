package oid4vp

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/multiformats/go-multibase"
	"github.com/piprate/json-gold/ld"

	walletcred "github.com/eudiwallet/core/pkg/credential"
	"github.com/eudiwallet/core/pkg/keystore"
	"github.com/eudiwallet/core/pkg/mdlsession"
	"github.com/eudiwallet/core/pkg/mdoc"
	vcecdsa "github.com/eudiwallet/core/pkg/vc20/crypto/ecdsa"
	vcmodel "github.com/eudiwallet/core/pkg/vc20/credential"
)

// acceptedCryptosuites is the set of Data Integrity cryptosuites this
// wallet core will re-sign a presentation under, per spec.md §4.H.
var acceptedCryptosuites = map[string]bool{
	vcecdsa.Cryptosuite2019: true,
}

// compatProofTypeEcdsaSecp256r1Signature2019 is accepted for backward
// compatibility with verifiers that still expect the pre-Data-Integrity
// JSON-LD signature suite name rather than a DataIntegrityProof/cryptosuite
// pairing.
const compatProofTypeEcdsaSecp256r1Signature2019 = "EcdsaSecp256r1Signature2019"

// LDPresentationOptions configures the data-integrity proof a JSON-LD
// verifiable presentation is signed with.
type LDPresentationOptions struct {
	Holder             string
	VerificationMethod string
	ProofPurpose       string
	Domain             string
	Challenge          string

	// V2StripUnaccepted drops any embedded credential proof whose
	// cryptosuite (or, for the compatibility signature type, proof type)
	// is outside acceptedCryptosuites, so the verifier sees a coherent
	// proof set across the whole presentation.
	V2StripUnaccepted bool
}

// BuildLDPresentation assembles an unsigned JSON-LD verifiable
// presentation from the selected credentials, canonicalises it, hands the
// detached signing bytes to the external key store, and attaches the
// resulting proof. Grounded on pkg/vc20/crypto/ecdsa/suite.go's Sign,
// generalized from a direct *ecdsa.PrivateKey call into the detached
// keystore.SigningKey boundary the wallet core uses everywhere else;
// SigningKey.Sign hashes its input internally (see
// pkg/signing/software.go's signECDSA), so the bytes handed to it here
// are the proof-hash/doc-hash concatenation suite.Sign computes, the same
// pre-image an external key store would be asked to sign.
func BuildLDPresentation(ctx context.Context, credentials []json.RawMessage, opts LDPresentationOptions, signingKey keystore.SigningKey) ([]byte, error) {
	vcs := make([]interface{}, 0, len(credentials))
	for _, raw := range credentials {
		var vcMap map[string]interface{}
		if err := json.Unmarshal(raw, &vcMap); err != nil {
			return nil, fmt.Errorf("oid4vp: decoding embedded credential: %w", err)
		}
		if opts.V2StripUnaccepted {
			stripUnacceptedProofs(vcMap)
		}
		vcs = append(vcs, vcMap)
	}

	vp := &vcmodel.VerifiablePresentation{
		Context:              []string{"https://www.w3.org/ns/credentials/v2"},
		Type:                 []string{vcmodel.TypeVerifiablePresentation},
		Holder:               opts.Holder,
		VerifiableCredential: vcs,
	}

	vpBytes, err := json.Marshal(vp)
	if err != nil {
		return nil, fmt.Errorf("oid4vp: marshaling presentation: %w", err)
	}

	ldOpts := ld.NewJsonLdOptions("")
	ldOpts.DocumentLoader = vcmodel.GetGlobalLoader()
	ldOpts.Algorithm = ld.AlgorithmURDNA2015

	created := time.Now().UTC()
	purpose := opts.ProofPurpose
	if purpose == "" {
		purpose = "authentication"
	}
	proofConfig := map[string]interface{}{
		"@context":           "https://www.w3.org/ns/credentials/v2",
		"type":               vcecdsa.ProofType,
		"cryptosuite":        vcecdsa.Cryptosuite2019,
		"verificationMethod": opts.VerificationMethod,
		"proofPurpose":       purpose,
		"created":            created.Format(time.RFC3339),
	}
	if opts.Domain != "" {
		proofConfig["domain"] = opts.Domain
	}
	if opts.Challenge != "" {
		proofConfig["challenge"] = opts.Challenge
	}

	combined, err := ldCombinedHash(vpBytes, proofConfig, ldOpts)
	if err != nil {
		return nil, err
	}

	signature, err := signingKey.Sign(ctx, combined)
	if err != nil {
		return nil, fmt.Errorf("oid4vp: signing presentation: %w", err)
	}
	rawSig, err := mdlsession.NormalizeToRawSignature(signature)
	if err != nil {
		return nil, fmt.Errorf("oid4vp: normalising presentation signature: %w", err)
	}

	proofValue, err := multibase.Encode(multibase.Base58BTC, rawSig)
	if err != nil {
		return nil, fmt.Errorf("oid4vp: encoding proof value: %w", err)
	}
	proofConfig["proofValue"] = proofValue

	var vpMap map[string]interface{}
	if err := json.Unmarshal(vpBytes, &vpMap); err != nil {
		return nil, fmt.Errorf("oid4vp: re-decoding presentation: %w", err)
	}
	vpMap["proof"] = proofConfig

	return json.Marshal(vpMap)
}

// ldCombinedHash reproduces pkg/vc20/crypto/ecdsa/suite.go Sign's
// proofHash||docHash concatenation: canonicalise the document and the
// proof configuration separately, SHA-256 each, and concatenate
// proof-then-document.
func ldCombinedHash(docJSON []byte, proofConfig map[string]interface{}, ldOpts *ld.JsonLdOptions) ([]byte, error) {
	docCred, err := vcmodel.NewRDFCredentialFromJSON(docJSON, ldOpts)
	if err != nil {
		return nil, fmt.Errorf("oid4vp: canonicalising presentation: %w", err)
	}
	docCanonical, err := docCred.GetCanonicalForm()
	if err != nil {
		return nil, fmt.Errorf("oid4vp: canonicalising presentation: %w", err)
	}

	proofConfigBytes, err := json.Marshal(proofConfig)
	if err != nil {
		return nil, fmt.Errorf("oid4vp: marshaling proof config: %w", err)
	}
	proofCred, err := vcmodel.NewRDFCredentialFromJSON(proofConfigBytes, ldOpts)
	if err != nil {
		return nil, fmt.Errorf("oid4vp: canonicalising proof config: %w", err)
	}
	proofCanonical, err := proofCred.GetCanonicalForm()
	if err != nil {
		return nil, fmt.Errorf("oid4vp: canonicalising proof config: %w", err)
	}

	docHash := sha256.Sum256([]byte(docCanonical))
	proofHash := sha256.Sum256([]byte(proofCanonical))
	return append(proofHash[:], docHash[:]...), nil
}

// stripUnacceptedProofs removes an embedded credential's proof (or the
// subset of a proof array) whose cryptosuite is not in
// acceptedCryptosuites, so a v2 presentation always carries a coherent
// proof set.
func stripUnacceptedProofs(vcMap map[string]interface{}) {
	proof, ok := vcMap["proof"]
	if !ok {
		return
	}

	switch p := proof.(type) {
	case map[string]interface{}:
		if !proofAccepted(p) {
			delete(vcMap, "proof")
		}
	case []interface{}:
		kept := make([]interface{}, 0, len(p))
		for _, entry := range p {
			if m, ok := entry.(map[string]interface{}); ok && proofAccepted(m) {
				kept = append(kept, m)
			}
		}
		if len(kept) == 0 {
			delete(vcMap, "proof")
		} else {
			vcMap["proof"] = kept
		}
	}
}

func proofAccepted(proof map[string]interface{}) bool {
	if cryptosuite, ok := proof["cryptosuite"].(string); ok {
		return acceptedCryptosuites[cryptosuite]
	}
	if proofType, ok := proof["type"].(string); ok {
		return proofType == compatProofTypeEcdsaSecp256r1Signature2019
	}
	return false
}

// DCAPIHandover computes the OpenID4VPDCAPIHandover session-transcript
// binding a Digital Credentials API presentation carries, per spec.md §3:
// ("OpenID4VPDCAPIHandover", sha256(cbor([origin, client_id, nonce]))).
func DCAPIHandover(origin, clientID, nonce string) ([]byte, error) {
	encoder, err := mdoc.NewCBOREncoder()
	if err != nil {
		return nil, fmt.Errorf("oid4vp: creating cbor encoder: %w", err)
	}

	inputBytes, err := encoder.Marshal([]any{origin, clientID, nonce})
	if err != nil {
		return nil, fmt.Errorf("oid4vp: encoding handover input: %w", err)
	}
	digest := sha256.Sum256(inputBytes)

	return encoder.Marshal([]any{"OpenID4VPDCAPIHandover", digest[:]})
}

// DCAPISessionTranscript builds the ISO 18013-7 Annex B session transcript
// for a Digital Credentials API presentation. Unlike the BLE/NFC proximity
// flows pkg/mdlsession.Session drives (which carry a device engagement and
// ephemeral reader key), a DC-API presentation has neither, so the first
// two transcript members are CBOR null rather than tagged engagement
// bytes; only the handover differs from the proximity transcript shape
// pkg/mdoc/engagement.go's BuildSessionTranscript produces.
func DCAPISessionTranscript(origin, clientID, nonce string) ([]byte, error) {
	handover, err := DCAPIHandover(origin, clientID, nonce)
	if err != nil {
		return nil, err
	}

	encoder, err := mdoc.NewCBOREncoder()
	if err != nil {
		return nil, fmt.Errorf("oid4vp: creating cbor encoder: %w", err)
	}
	return encoder.Marshal([]any{nil, nil, handover})
}

// DCAPIMdocPresentation is a signed mdoc DeviceResponse ready to be placed
// in an OpenID4VP vp_token entry.
type DCAPIMdocPresentation struct {
	DeviceResponse []byte
	Base64URL      string
}

// BuildMdocDCAPIPresentation drives the selective-disclosure and
// detached-signing pipeline pkg/mdlsession.Session.GenerateResponse/
// SubmitResponse implement for the BLE/NFC proximity flows, but against
// the OpenID4VPDCAPIHandover session transcript instead of a device
// engagement, per spec.md §4.H: no MdlPresentationSession is needed since
// a Digital Credentials API presentation has no engagement phase to
// track. The resulting CBOR DeviceResponse is base64url-encoded for
// placement in a vp_token entry keyed by the DCQL credential id.
func BuildMdocDCAPIPresentation(ctx context.Context, cred *walletcred.Mdoc, permitted map[string][]string, origin, clientID, nonce string, signingKey keystore.SigningKey) (*DCAPIMdocPresentation, error) {
	issuerSigned := &mdoc.IssuerSigned{NameSpaces: cred.NameSpaces, IssuerAuth: cred.IssuerAuth}

	sd, err := mdoc.NewSelectiveDisclosure(issuerSigned)
	if err != nil {
		return nil, fmt.Errorf("oid4vp: preparing selective disclosure: %w", err)
	}
	disclosed, err := sd.Disclose(permitted)
	if err != nil {
		return nil, fmt.Errorf("oid4vp: disclosing elements: %w", err)
	}

	transcript, err := DCAPISessionTranscript(origin, clientID, nonce)
	if err != nil {
		return nil, err
	}

	deviceNameSpacesBytes, err := cbor.Marshal(map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("oid4vp: encoding device namespaces: %w", err)
	}

	deviceAuth := []any{"DeviceAuthentication", transcript, cred.DocType, deviceNameSpacesBytes}
	deviceAuthBytes, err := cbor.Marshal(deviceAuth)
	if err != nil {
		return nil, fmt.Errorf("oid4vp: encoding device authentication: %w", err)
	}

	protected := map[int64]any{mdoc.HeaderAlgorithm: mdoc.AlgorithmES256}
	protectedBytes, err := cbor.Marshal(protected)
	if err != nil {
		return nil, fmt.Errorf("oid4vp: encoding protected header: %w", err)
	}

	sigStructure := []any{"Signature1", protectedBytes, nil, deviceAuthBytes}
	sigStructureBytes, err := cbor.Marshal(sigStructure)
	if err != nil {
		return nil, fmt.Errorf("oid4vp: encoding signature structure: %w", err)
	}

	signature, err := signingKey.Sign(ctx, sigStructureBytes)
	if err != nil {
		return nil, fmt.Errorf("oid4vp: signing device response: %w", err)
	}
	rawSig, err := mdlsession.NormalizeToRawSignature(signature)
	if err != nil {
		return nil, fmt.Errorf("oid4vp: normalising device response signature: %w", err)
	}

	sign1 := &mdoc.COSESign1{
		Protected:   protectedBytes,
		Unprotected: make(map[any]any),
		Payload:     nil,
		Signature:   rawSig,
	}
	sign1Bytes, err := cbor.Marshal(sign1)
	if err != nil {
		return nil, fmt.Errorf("oid4vp: encoding device signature: %w", err)
	}

	doc := mdoc.Document{
		DocType:      cred.DocType,
		IssuerSigned: *disclosed,
		DeviceSigned: mdoc.DeviceSigned{
			NameSpaces: deviceNameSpacesBytes,
			DeviceAuth: mdoc.DeviceAuth{DeviceSignature: sign1Bytes},
		},
	}

	deviceResponse := &mdoc.DeviceResponse{Version: "1.0", Documents: []mdoc.Document{doc}, Status: 0}
	deviceResponseBytes, err := mdoc.EncodeDeviceResponse(deviceResponse)
	if err != nil {
		return nil, fmt.Errorf("oid4vp: encoding device response: %w", err)
	}

	return &DCAPIMdocPresentation{
		DeviceResponse: deviceResponseBytes,
		Base64URL:      base64.RawURLEncoding.EncodeToString(deviceResponseBytes),
	}, nil
}
