package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override, e.g. TABOOWIKI_API_URL.
const EnvPrefix = "taboowiki"

// envOverrides are the settings that can be changed from the environment.
// Unset variables leave the loaded value alone.
type envOverrides struct {
	APIURL       string `envconfig:"API_URL"`
	ClientID     string `envconfig:"CLIENT_ID"`
	CallbackPort *int   `envconfig:"CALLBACK_PORT"`
	StorageDir   string `envconfig:"SESSION_DIR"`
	NoBrowser    *bool  `envconfig:"NO_BROWSER"`
}

// ApplyEnv applies TABOOWIKI_* environment variables to cfg.
func ApplyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}

	if env.APIURL != "" {
		cfg.Backend.URL = env.APIURL
	}
	if env.ClientID != "" {
		cfg.OAuth.ClientID = env.ClientID
	}
	if env.CallbackPort != nil {
		cfg.OAuth.CallbackPort = *env.CallbackPort
	}
	if env.StorageDir != "" {
		cfg.Session.StorageDir = env.StorageDir
	}
	if env.NoBrowser != nil {
		cfg.Popup.NoBrowser = *env.NoBrowser
	}
	return nil
}
