package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"taboowiki/pkg/logging"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/taboowiki"
	configFileName = "config.yaml"
)

// GetDefaultConfigPath returns ~/.config/taboowiki.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// LoadConfig loads config.yaml from configPath over the defaults, applies
// TABOOWIKI_* environment overrides and validates the result.
// An empty configPath means the default directory.
func LoadConfig(configPath string) (Config, error) {
	if configPath == "" {
		p, err := GetDefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		configPath = p
	}

	config := GetDefaultConfig()
	configFilePath := filepath.Join(configPath, configFileName)

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("Config", "No config.yaml found at %s, using defaults", configFilePath)
			if err := ApplyEnv(&config); err != nil {
				return Config{}, err
			}
			config.expandPaths()
			return config, config.Validate()
		}
		return Config{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}
	if err := ApplyEnv(&config); err != nil {
		return Config{}, err
	}
	config.expandPaths()

	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", configFilePath, err)
	}

	logging.Info("Config", "Loaded configuration from %s", configFilePath)
	return config, nil
}

// SaveConfig writes cfg to configPath/config.yaml, creating the directory if needed.
func SaveConfig(configPath string, cfg Config) error {
	if err := os.MkdirAll(configPath, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(configPath, configFileName), data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPaths resolves a leading ~ in path settings.
func (c *Config) expandPaths() {
	c.Session.StorageDir = expandHome(c.Session.StorageDir)
}

func expandHome(p string) string {
	expanded, err := homedir.Expand(p)
	if err != nil {
		return p
	}
	return expanded
}
