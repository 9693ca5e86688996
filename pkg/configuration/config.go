package configuration

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/eudiwallet/core/pkg/helpers"
	"github.com/eudiwallet/core/pkg/logger"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/creasty/defaults"
)

// Config is the wallet core's own configuration surface. It carries only the
// ambient settings a host application must supply to construct the library's
// collaborators (trust evaluator, wallet-service client, logger) — it never
// describes server-side concerns like listen addresses or datastores.
type Config struct {
	// Production selects the zap encoder the logger builds with.
	Production bool `yaml:"production" envconfig:"PRODUCTION" default:"false"`

	// LogPath, when set, writes component logs to <LogPath>/<name>.log
	// instead of stdout.
	LogPath string `yaml:"log_path" envconfig:"LOG_PATH"`

	// TrustedRootsPath points at a PEM bundle of IACA/trust-anchor
	// certificates the trust evaluator is seeded with at startup.
	TrustedRootsPath string `yaml:"trusted_roots_path" envconfig:"TRUSTED_ROOTS_PATH" validate:"required"`

	// WalletServiceURL is the base URL of the wallet provider's
	// wallet-service API (nonce/login/issuance).
	WalletServiceURL string `yaml:"wallet_service_url" envconfig:"WALLET_SERVICE_URL" validate:"required"`

	// HTTPTimeoutSeconds bounds outbound HTTP calls the wallet-service
	// client makes; zero falls back to the client's own default.
	HTTPTimeoutSeconds int `yaml:"http_timeout_seconds" envconfig:"HTTP_TIMEOUT_SECONDS" default:"10"`

	// PresentationRequestsDir, when set, is loaded via
	// LoadPresentationRequests at startup.
	PresentationRequestsDir string `yaml:"presentation_requests_dir" envconfig:"PRESENTATION_REQUESTS_DIR"`
}

type envVars struct {
	ConfigYAML string `envconfig:"WALLET_CONFIG_YAML" required:"true"`
}

// New parses the config file referenced by the WALLET_CONFIG_YAML
// environment variable, applying defaults and struct validation the same
// way the rest of the module validates request configs.
func New() (*Config, error) {
	log := logger.NewSimple("Configuration")
	log.Info("reading environment variable")

	env := envVars{}
	if err := envconfig.Process("", &env); err != nil {
		return nil, err
	}

	configPath := env.ConfigYAML

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, err
	}

	configFile, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return nil, err
	}

	fileInfo, err := os.Stat(configPath)
	if err != nil {
		return nil, err
	}
	if fileInfo.IsDir() {
		return nil, errors.New("config is a folder")
	}

	if err := yaml.Unmarshal(configFile, cfg); err != nil {
		return nil, err
	}

	if err := helpers.CheckSimple(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
