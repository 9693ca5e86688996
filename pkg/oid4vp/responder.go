package oid4vp

import (
	"encoding/json"
	"fmt"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwe"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// vpTokenPayload is the authorization response body shared by both
// Responder implementations. Field order matches OpenID4VP's vp_token/state
// response shape; direct_post.go's ErrorResponse neighbours this same shape
// for the error case.
type vpTokenPayload struct {
	VPToken map[string]interface{} `json:"vp_token"`
	State   string                 `json:"state,omitempty"`
}

// Responder packages a VP token into the wire form the verifier's
// response_mode demands and returns the bytes to POST to response_uri (or,
// for response_mode=dc_api*, to hand back across the DC API bridge).
type Responder interface {
	Respond(vpToken map[string]interface{}) ([]byte, error)
}

// JSONResponder implements response_mode "dc_api" and "direct_post": the
// vp_token (plus state, when the request carried one) is sent as plain
// JSON, unencrypted and unsigned.
type JSONResponder struct {
	State string
}

func (r *JSONResponder) Respond(vpToken map[string]interface{}) ([]byte, error) {
	return json.Marshal(vpTokenPayload{VPToken: vpToken, State: r.State})
}

// JWEResponder implements response_mode "dc_api.jwt" and "direct_post.jwt":
// the vp_token payload is JSON-encoded and then encrypted to the verifier's
// ephemeral key, carried in the request's client_metadata.jwks. Only the
// ECDH-ES/A128GCM pairing is supported; selectResponder rejects any
// other alg/enc combination before a JWEResponder is ever constructed.
type JWEResponder struct {
	Alg         string
	Enc         string
	State       string
	VerifierJWK jwk.Key
}

func (r *JWEResponder) Respond(vpToken map[string]interface{}) ([]byte, error) {
	if r.VerifierJWK == nil {
		return nil, fmt.Errorf("oid4vp: encrypted response requires a verifier key")
	}
	if r.Alg != "ECDH-ES" || r.Enc != "A128GCM" {
		return nil, fmt.Errorf("oid4vp: unsupported encryption alg/enc %s/%s", r.Alg, r.Enc)
	}

	payload, err := json.Marshal(vpTokenPayload{VPToken: vpToken, State: r.State})
	if err != nil {
		return nil, fmt.Errorf("oid4vp: marshaling response payload: %w", err)
	}

	encrypted, err := jwe.Encrypt(
		payload,
		jwe.WithKey(jwa.ECDH_ES(), r.VerifierJWK),
		jwe.WithContentEncryption(jwa.A128GCM()),
	)
	if err != nil {
		return nil, fmt.Errorf("oid4vp: encrypting response: %w", err)
	}
	return encrypted, nil
}
