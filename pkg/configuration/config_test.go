package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mockConfig = []byte(`
---
trusted_roots_path: /etc/wallet/roots.pem
wallet_service_url: https://wallet.example.com/api/v1
http_timeout_seconds: 15
production: false
`)

func TestNew(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "test.yaml")
	require.NoError(t, os.WriteFile(path, mockConfig, 0o600))
	t.Setenv("WALLET_CONFIG_YAML", path)

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "/etc/wallet/roots.pem", cfg.TrustedRootsPath)
	assert.Equal(t, "https://wallet.example.com/api/v1", cfg.WalletServiceURL)
	assert.Equal(t, 15, cfg.HTTPTimeoutSeconds)
	assert.False(t, cfg.Production)
}

func TestNew_MissingRequiredField(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte("production: true\n"), 0o600))
	t.Setenv("WALLET_CONFIG_YAML", path)

	_, err := New()
	assert.Error(t, err)
}

func TestNew_ConfigIsDirectory(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("WALLET_CONFIG_YAML", tempDir)

	_, err := New()
	assert.Error(t, err)
}
