package oid4vp

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"testing"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwe"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONResponder_Respond(t *testing.T) {
	responder := &JSONResponder{State: "xyz"}

	raw, err := responder.Respond(map[string]interface{}{"hello": "world"})
	require.NoError(t, err)

	var got vpTokenPayload
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "xyz", got.State)
	assert.Equal(t, "world", got.VPToken["hello"])
}

func TestJWEResponder_Respond(t *testing.T) {
	verifierPriv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	verifierJWK, err := jwk.Import(verifierPriv.Public())
	require.NoError(t, err)

	responder := &JWEResponder{
		Alg:         "ECDH-ES",
		Enc:         "A128GCM",
		State:       "abc",
		VerifierJWK: verifierJWK,
	}

	raw, err := responder.Respond(map[string]interface{}{"hello": "world"})
	require.NoError(t, err)
	assert.NotEmpty(t, raw)

	verifierPrivJWK, err := jwk.Import(verifierPriv)
	require.NoError(t, err)

	decrypted, err := jwe.Decrypt(raw, jwe.WithKey(jwa.ECDH_ES(), verifierPrivJWK))
	require.NoError(t, err)

	var got vpTokenPayload
	require.NoError(t, json.Unmarshal(decrypted, &got))
	assert.Equal(t, "abc", got.State)
	assert.Equal(t, "world", got.VPToken["hello"])
}

func TestJWEResponder_Respond_RejectsUnsupportedAlg(t *testing.T) {
	verifierPriv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	verifierJWK, err := jwk.Import(verifierPriv.Public())
	require.NoError(t, err)

	responder := &JWEResponder{Alg: "RSA-OAEP-256", Enc: "A128GCM", VerifierJWK: verifierJWK}
	_, err = responder.Respond(map[string]interface{}{"a": 1})
	assert.Error(t, err)
}

func TestJWEResponder_Respond_RequiresKey(t *testing.T) {
	responder := &JWEResponder{Alg: "ECDH-ES", Enc: "A128GCM"}
	_, err := responder.Respond(map[string]interface{}{"a": 1})
	assert.Error(t, err)
}
