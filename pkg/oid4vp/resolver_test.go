package oid4vp

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/stretchr/testify/assert"
)

// stubDoer is a fixed-response HTTPDoer, standing in for request_uri fetches
// in tests without exercising a real network call.
type stubDoer struct {
	body   []byte
	status int
}

func (d *stubDoer) Do(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: d.status,
		Body:       io.NopCloser(bytes.NewReader(d.body)),
	}, nil
}

func createResolverTestCertChain(t *testing.T, dnsName string) (*x509.Certificate, *x509.Certificate, *ecdsa.PrivateKey) {
	t.Helper()

	rootKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	rootTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Test Root CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
	}
	rootDER, err := x509.CreateCertificate(rand.Reader, rootTemplate, rootTemplate, &rootKey.PublicKey, rootKey)
	require.NoError(t, err)
	rootCert, err := x509.ParseCertificate(rootDER)
	require.NoError(t, err)

	leafKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	leafTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: dnsName},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		DNSNames:     []string{dnsName},
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTemplate, rootCert, &leafKey.PublicKey, rootKey)
	require.NoError(t, err)
	leafCert, err := x509.ParseCertificate(leafDER)
	require.NoError(t, err)

	return leafCert, rootCert, leafKey
}

func signRequestJWT(t *testing.T, leaf *x509.Certificate, leafKey *ecdsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["x5c"] = []string{base64.StdEncoding.EncodeToString(leaf.Raw)}

	signed, err := token.SignedString(leafKey)
	require.NoError(t, err)
	return signed
}

func TestResolver_Resolve_ClientIDSchemeNone(t *testing.T) {
	resolver := NewResolver(nil, nil)

	raw, err := json.Marshal(&RequestObject{
		ISS:          "https://verifier.example",
		AUD:          "https://wallet.example",
		IAT:          1700000000,
		ResponseType: "code",
		ClientID:     "some-client",
		Nonce:        "abc123",
		ResponseMode: "direct_post",
		ResponseURI:  "https://verifier.example/response",
	})
	require.NoError(t, err)

	got, err := resolver.Resolve(context.Background(), string(raw), "https://verifier.example")
	require.NoError(t, err)
	assert.Equal(t, "web-origin:https://verifier.example", got.EffectiveClientID)
	assert.IsType(t, &JSONResponder{}, got.Responder)
}

func TestResolver_Resolve_ClientIDSchemeNone_RequiresOrigin(t *testing.T) {
	resolver := NewResolver(nil, nil)

	raw, err := json.Marshal(&RequestObject{
		ISS: "https://verifier.example", AUD: "https://wallet.example", IAT: 1,
		ResponseType: "code", ClientID: "some-client", Nonce: "abc",
		ResponseMode: "direct_post", ResponseURI: "https://verifier.example/response",
	})
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), string(raw), "")
	assert.Error(t, err)
}

func TestResolver_Resolve_X509SANDNS(t *testing.T) {
	leaf, root, leafKey := createResolverTestCertChain(t, "verifier.example")

	resolver := NewResolver(nil, []*x509.Certificate{root})

	signed := signRequestJWT(t, leaf, leafKey, jwt.MapClaims{
		"iss":           "https://verifier.example",
		"aud":           "https://wallet.example",
		"response_type": "code",
		"client_id":     "x509_san_dns:verifier.example",
		"nonce":         "abc123",
		"response_mode": "direct_post",
		"response_uri":  "https://verifier.example/response",
	})

	got, err := resolver.Resolve(context.Background(), signed, "https://verifier.example")
	require.NoError(t, err)
	assert.Equal(t, "verifier.example", got.EffectiveClientID)
}

func TestResolver_Resolve_X509SANDNS_UntrustedRoot(t *testing.T) {
	leaf, _, leafKey := createResolverTestCertChain(t, "verifier.example")
	_, otherRoot, _ := createResolverTestCertChain(t, "other.example")

	resolver := NewResolver(nil, []*x509.Certificate{otherRoot})

	signed := signRequestJWT(t, leaf, leafKey, jwt.MapClaims{
		"iss": "https://verifier.example", "client_id": "x509_san_dns:verifier.example",
		"response_type": "code", "nonce": "abc", "response_mode": "direct_post",
		"response_uri": "https://verifier.example/response",
	})

	_, err := resolver.Resolve(context.Background(), signed, "https://verifier.example")
	assert.Error(t, err)
}

func TestResolver_Resolve_X509SANDNS_WrongSAN(t *testing.T) {
	leaf, root, leafKey := createResolverTestCertChain(t, "someone-else.example")

	resolver := NewResolver(nil, []*x509.Certificate{root})

	signed := signRequestJWT(t, leaf, leafKey, jwt.MapClaims{
		"iss": "https://verifier.example", "client_id": "x509_san_dns:verifier.example",
		"response_type": "code", "nonce": "abc", "response_mode": "direct_post",
		"response_uri": "https://verifier.example/response",
	})

	_, err := resolver.Resolve(context.Background(), signed, "https://verifier.example")
	assert.Error(t, err)
}

func TestResolver_Resolve_RequestURI(t *testing.T) {
	raw, err := json.Marshal(&RequestObject{
		ISS: "https://verifier.example", AUD: "https://wallet.example", IAT: 1,
		ResponseType: "code", ClientID: "some-client", Nonce: "abc",
		ResponseMode: "direct_post", ResponseURI: "https://verifier.example/response",
	})
	require.NoError(t, err)

	resolver := NewResolver(&stubDoer{body: raw, status: http.StatusOK}, nil)

	got, err := resolver.Resolve(context.Background(), "openid4vp://?request_uri=https://verifier.example/request", "https://verifier.example")
	require.NoError(t, err)
	assert.Equal(t, "some-client", got.Request.ClientID)
}

func TestResolver_Resolve_UnsupportedResponseMode(t *testing.T) {
	resolver := NewResolver(nil, nil)

	raw, err := json.Marshal(&RequestObject{
		ISS: "https://verifier.example", AUD: "https://wallet.example", IAT: 1,
		ResponseType: "code", ClientID: "some-client", Nonce: "abc",
		ResponseMode: "fragment", ResponseURI: "https://verifier.example/response",
	})
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), string(raw), "https://verifier.example")
	assert.Error(t, err)
}
