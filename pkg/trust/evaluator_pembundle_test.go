package trust

import (
	"context"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWalletTrustEvaluatorFromPEMBundle(t *testing.T) {
	chain, rootCert, _ := createTestCertChain(t)

	bundlePath := filepath.Join(t.TempDir(), "roots.pem")
	rootPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: rootCert.Raw})
	require.NoError(t, os.WriteFile(bundlePath, rootPEM, 0o600))

	eval, err := NewWalletTrustEvaluatorFromPEMBundle(bundlePath)
	require.NoError(t, err)

	decision, err := eval.Evaluate(context.Background(), &EvaluationRequest{
		KeyType: KeyTypeX5C,
		Key:     chain,
	})
	require.NoError(t, err)
	assert.True(t, decision.Trusted)
}

func TestNewWalletTrustEvaluatorFromPEMBundle_MissingFile(t *testing.T) {
	_, err := NewWalletTrustEvaluatorFromPEMBundle(filepath.Join(t.TempDir(), "missing.pem"))
	assert.Error(t, err)
}
