package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taboowiki/internal/cli"
	"taboowiki/internal/session"
)

func TestSponsorsPublic(t *testing.T) {
	backend := newTestBackend(t)
	configDir, _ := writeTestConfig(t, backend.URL)

	out, err := executeCommand(t, "sponsors", "donations", "--config", configDir)
	require.NoError(t, err)
	assert.Contains(t, out, "carol")
	assert.Contains(t, out, "¥50.00")
	assert.Contains(t, out, "Page 1 of 3 (41 total)")

	out, err = executeCommand(t, "sponsors", "stats", "-o", "json", "--config", configDir)
	require.NoError(t, err)
	var stats map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 12.5, stats["balance"])
}

func TestDonationsRequireLogin(t *testing.T) {
	backend := newTestBackend(t)
	configDir, _ := writeTestConfig(t, backend.URL)

	_, err := executeCommand(t, "donations", "list", "--config", configDir)
	var required *cli.AuthRequiredError
	require.ErrorAs(t, err, &required)
	assert.Equal(t, 0, backend.totalHits())
}

func TestDonationsAndRewardsList(t *testing.T) {
	backend := newTestBackend(t)
	configDir, sessionDir := writeTestConfig(t, backend.URL)
	seedSession(t, sessionDir, "user-token", nil)

	out, err := executeCommand(t, "donations", "list", "--config", configDir)
	require.NoError(t, err)
	assert.Contains(t, out, "¥20.00")
	assert.Contains(t, out, "PENDING")

	out, err = executeCommand(t, "rewards", "list", "-o", "plain", "--config", configDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Documentation")
	assert.Contains(t, out, "65/70")
}

func TestDonationsSubmit_Validation(t *testing.T) {
	backend := newTestBackend(t)
	configDir, sessionDir := writeTestConfig(t, backend.URL)
	seedSession(t, sessionDir, "user-token", nil)

	_, err := executeCommand(t, "donations", "submit", "--amount", "-5", "--proof", "tx", "--config", configDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount must be greater than 0")
	assert.Equal(t, 0, backend.totalHits())
}

func TestAdminRequiresAdmin(t *testing.T) {
	backend := newTestBackend(t)
	configDir, sessionDir := writeTestConfig(t, backend.URL)
	seedSession(t, sessionDir, "user-token", nil)

	_, err := executeCommand(t, "admin", "donations", "list", "--config", configDir)
	var forbidden *cli.ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Equal(t, "bob", forbidden.Username)
	assert.Equal(t, cli.ExitCodeAuthRequired, cli.ExitCode(err))
	assert.Equal(t, 0, backend.hitCount("/admin/api/sponsor/donations"))

	// Insufficient privilege does not end the session.
	_, ok := storedToken(t, sessionDir)
	assert.True(t, ok)
}

func TestAdminReview(t *testing.T) {
	backend := newTestBackend(t)
	configDir, sessionDir := writeTestConfig(t, backend.URL)
	seedSession(t, sessionDir, "admin-token", &session.User{Username: "alice", IsAdmin: true})

	out, err := executeCommand(t, "admin", "donations", "list", "--status", "pending", "--config", configDir)
	require.NoError(t, err)
	assert.Contains(t, out, "dave")
	assert.Contains(t, out, "tx-1")

	out, err = executeCommand(t, "admin", "donations", "approve", "9", "--remark", "ok", "--config", configDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Donation 9 approved")
	assert.Equal(t, 1, backend.hitCount("/admin/api/sponsor/donations/9/approve"))

	out, err = executeCommand(t, "admin", "rewards", "pay", "9", "--at", "2024-05-01 10:00", "--config", configDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Reward 9 marked as paid")

	_, err = executeCommand(t, "admin", "rewards", "approve", "abc", "--amount", "1", "--score", "1", "--config", configDir)
	assert.Error(t, err)
}
