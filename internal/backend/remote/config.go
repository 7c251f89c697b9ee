package remote

import (
	"time"

	"go.uber.org/zap"

	"github.com/rwx-research/flakeguard/internal/errors"
)

// ClientConfig is the configuration object for the quarantine API client
type ClientConfig struct {
	Debug    bool
	Host     string
	Insecure bool
	Log      *zap.SugaredLogger
	Token    string
	Timeout  time.Duration
}

// Validate checks the configuration for errors
func (cfg ClientConfig) Validate() error {
	if cfg.Log == nil {
		return errors.NewInternalError("missing logger")
	}

	if cfg.Token == "" {
		return errors.NewDetailedConfigurationError(
			"Missing API token",
			"Fetching the quarantine configuration requires an API token.",
			"Set the FLAKEGUARD_TOKEN environment variable, or use '--local' to read quarantined tests from "+
				"'.flakeguard/quarantines.yaml' instead.",
		)
	}

	return nil
}

// WithDefaults returns a copy of the configuration with defaults applied where necessary.
func (cfg ClientConfig) WithDefaults() ClientConfig {
	if cfg.Host == "" {
		cfg.Host = defaultHost
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return cfg
}
