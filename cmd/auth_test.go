package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taboowiki/internal/cli"
	"taboowiki/internal/session"
)

func TestAuthLogin(t *testing.T) {
	backend := newTestBackend(t)
	configDir, sessionDir := writeTestConfig(t, backend.URL)

	loginOpener = &githubOpener{code: "abc123"}
	t.Cleanup(func() { loginOpener = nil })

	_, err := executeCommand(t, "auth", "login", "-q", "--config", configDir)
	require.NoError(t, err)

	token, ok := storedToken(t, sessionDir)
	require.True(t, ok)
	assert.Equal(t, "admin-token", token)
	assert.Equal(t, 1, backend.hitCount("/api/auth/oauth2/success"))

	out, err := executeCommand(t, "auth", "whoami", "--config", configDir)
	require.NoError(t, err)
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "admin")
}

func TestAuthLogin_Denied(t *testing.T) {
	backend := newTestBackend(t)
	configDir, sessionDir := writeTestConfig(t, backend.URL)

	loginOpener = &githubOpener{code: "wrong"}
	t.Cleanup(func() { loginOpener = nil })

	_, err := executeCommand(t, "auth", "login", "-q", "--config", configDir)
	require.Error(t, err)

	var failed *cli.AuthFailedError
	assert.ErrorAs(t, err, &failed)
	assert.Contains(t, err.Error(), "bad code")
	assert.Equal(t, cli.ExitCodeAuthFailed, cli.ExitCode(err))

	_, ok := storedToken(t, sessionDir)
	assert.False(t, ok)
}

func TestAuthStatus(t *testing.T) {
	backend := newTestBackend(t)

	t.Run("not logged in", func(t *testing.T) {
		configDir, _ := writeTestConfig(t, backend.URL)
		before := backend.totalHits()

		out, err := executeCommand(t, "auth", "status", "--config", configDir)
		require.NoError(t, err)
		assert.Contains(t, out, "Not authenticated")
		assert.Equal(t, before, backend.totalHits(), "no request without a token")
	})

	t.Run("valid session", func(t *testing.T) {
		configDir, sessionDir := writeTestConfig(t, backend.URL)
		seedSession(t, sessionDir, "user-token", nil)

		out, err := executeCommand(t, "auth", "status", "-o", "json", "--config", configDir)
		require.NoError(t, err)

		var report statusReport
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		assert.Equal(t, "authenticated", report.Status)
		assert.Equal(t, "bob", report.User.Username)
	})

	t.Run("expired session is cleared", func(t *testing.T) {
		configDir, sessionDir := writeTestConfig(t, backend.URL)
		seedSession(t, sessionDir, "stale-token", &session.User{Username: "alice"})

		out, err := executeCommand(t, "auth", "status", "--config", configDir)
		require.NoError(t, err)
		assert.Contains(t, out, "Session expired")

		_, ok := storedToken(t, sessionDir)
		assert.False(t, ok)
	})

	t.Run("unreachable backend keeps the session", func(t *testing.T) {
		configDir, sessionDir := writeTestConfig(t, backend.URL)
		seedSession(t, sessionDir, "user-token", nil)

		out, err := executeCommand(t, "auth", "status", "--config", configDir, "--api-url", "http://127.0.0.1:1")
		require.NoError(t, err)
		assert.Contains(t, out, "Connection failed")

		_, ok := storedToken(t, sessionDir)
		assert.True(t, ok)
	})
}

func TestAuthStatus_Watch(t *testing.T) {
	backend := newTestBackend(t)
	configDir, sessionDir := writeTestConfig(t, backend.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &lockedBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- executeCommandContext(ctx, out, "auth", "status", "--watch", "-o", "json", "--config", configDir)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), `"not-authenticated"`)
	}, 5*time.Second, 10*time.Millisecond)

	// A login from another terminal shows up without rerunning the command.
	storage, err := session.NewFileStorage(sessionDir)
	require.NoError(t, err)
	store := session.NewTokenStore(storage)
	require.Eventually(t, func() bool {
		_ = store.Save("user-token")
		return strings.Contains(out.String(), `"authenticated"`)
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("auth status --watch did not stop")
	}
	assert.Contains(t, out.String(), `"username": "bob"`)
}

func TestAuthStatus_WatchNeedsPersistentStorage(t *testing.T) {
	backend := newTestBackend(t)
	configDir, _ := writeTestConfig(t, backend.URL)

	cfgFile := filepath.Join(configDir, "config.yaml")
	data, err := os.ReadFile(cfgFile)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfgFile, []byte(strings.Replace(string(data), "persist: true", "persist: false", 1)), 0o600))

	_, err = executeCommand(t, "auth", "status", "--watch", "--config", configDir)
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrWatchUnsupported)
}

func TestAuthWhoami_NotLoggedIn(t *testing.T) {
	backend := newTestBackend(t)
	configDir, _ := writeTestConfig(t, backend.URL)

	_, err := executeCommand(t, "auth", "whoami", "--config", configDir)
	var required *cli.AuthRequiredError
	require.ErrorAs(t, err, &required)
	assert.Equal(t, cli.ExitCodeAuthRequired, cli.ExitCode(err))
	assert.Equal(t, 0, backend.totalHits())
}

func TestAuthLogout(t *testing.T) {
	backend := newTestBackend(t)
	configDir, sessionDir := writeTestConfig(t, backend.URL)
	seedSession(t, sessionDir, "user-token", testUsers["user-token"])

	out, err := executeCommand(t, "auth", "logout", "--config", configDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	_, ok := storedToken(t, sessionDir)
	assert.False(t, ok)

	out, err = executeCommand(t, "auth", "logout", "--config", configDir)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "Not logged in"))
}

func TestAuthRefresh_Rejected(t *testing.T) {
	backend := newTestBackend(t)
	configDir, sessionDir := writeTestConfig(t, backend.URL)
	seedSession(t, sessionDir, "user-token", nil)

	_, err := executeCommand(t, "auth", "refresh", "--config", configDir)
	var expired *cli.AuthExpiredError
	require.ErrorAs(t, err, &expired)
	assert.Equal(t, 1, backend.hitCount(session.RefreshPath))

	_, ok := storedToken(t, sessionDir)
	assert.False(t, ok)
}
