package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0644))
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	tempDir := t.TempDir()

	cfg, err := LoadConfig(tempDir)
	require.NoError(t, err)

	assert.Equal(t, GetDefaultConfig(), cfg)
	assert.Equal(t, DefaultCallbackPath, cfg.OAuth.CallbackPath)
	assert.True(t, cfg.Session.Persist)
}

func TestLoadConfig_UserOverride(t *testing.T) {
	tempDir := t.TempDir()
	writeConfigFile(t, tempDir, `
backend:
  url: https://api.example.com
oauth:
  clientId: my-client
  callbackPort: 0
  allowedOrigins:
    - http://localhost:4000
popup:
  pollInterval: 250ms
`)

	cfg, err := LoadConfig(tempDir)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.Backend.URL)
	assert.Equal(t, DefaultRequestTimeout, cfg.Backend.Timeout, "unset fields keep defaults")
	assert.Equal(t, "my-client", cfg.OAuth.ClientID)
	assert.Equal(t, 0, cfg.OAuth.CallbackPort)
	assert.Equal(t, []string{"http://localhost:4000"}, cfg.OAuth.AllowedOrigins)
	assert.Equal(t, 250*time.Millisecond, cfg.Popup.PollInterval)
	assert.Equal(t, DefaultAuthorizeURL, cfg.OAuth.AuthorizeURL)
}

func TestLoadConfig_Malformed(t *testing.T) {
	tempDir := t.TempDir()
	writeConfigFile(t, tempDir, "backend: [unclosed")

	_, err := LoadConfig(tempDir)
	assert.Error(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tempDir := t.TempDir()
	writeConfigFile(t, tempDir, `
backend:
  url: not a url
`)

	_, err := LoadConfig(tempDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend.url")
}

func TestLoadConfig_ExpandsHome(t *testing.T) {
	tempDir := t.TempDir()
	home := t.TempDir()

	homedir.DisableCache = true
	defer func() { homedir.DisableCache = false }()
	t.Setenv("HOME", home)

	writeConfigFile(t, tempDir, `
session:
  storageDir: ~/tokens
`)

	cfg, err := LoadConfig(tempDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "tokens"), cfg.Session.StorageDir)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "nested")

	cfg := GetDefaultConfig()
	cfg.Backend.URL = "https://backend.example.com"
	require.NoError(t, SaveConfig(tempDir, cfg))

	loaded, err := LoadConfig(tempDir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
