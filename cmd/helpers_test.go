package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"taboowiki/internal/cli"
	"taboowiki/internal/oauth"
	"taboowiki/internal/session"
)

// executeCommand runs rootCmd with args and returns everything it printed.
// Flag variables are reset first since cobra keeps them between runs.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	err := executeCommandContext(context.Background(), &buf, args...)
	return buf.String(), err
}

// executeCommandContext runs rootCmd with ctx, writing all output to out.
func executeCommandContext(ctx context.Context, out io.Writer, args ...string) error {
	rootFlags.configPath = ""
	rootFlags.apiURL = ""
	rootFlags.logLevel = "warn"
	rootFlags.quiet = false
	rootFlags.requestTimeout = 0
	outputFlags = cli.CommandFlags{OutputFormat: string(cli.OutputFormatTable)}
	loginFlags.noBrowser = false
	loginFlags.timeout = 0
	loginFlags.port = -1
	statusFlags.watch = false
	selfUpdateFlags.check = false
	resetHelpFlags(rootCmd)

	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// lockedBuffer is a bytes.Buffer that a running command and the test can
// share.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func resetHelpFlags(c *cobra.Command) {
	if f := c.Flags().Lookup("help"); f != nil {
		_ = f.Value.Set("false")
	}
	for _, sub := range c.Commands() {
		resetHelpFlags(sub)
	}
}

// testBackend fakes the taboowiki backend.
type testBackend struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

var testUsers = map[string]*session.User{
	"admin-token": {Username: "alice", IsAdmin: true, GitHubUsername: "alice-gh"},
	"user-token":  {Username: "bob", Nickname: "Bobby"},
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()
	b := &testBackend{hits: map[string]int{}}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Close)
	return b
}

func (b *testBackend) hitCount(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

func (b *testBackend) totalHits() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.hits {
		n += c
	}
	return n
}

func (b *testBackend) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.hits[r.URL.Path]++
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	user := testUsers[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]

	reply := func(status int, body any) {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
	ok := func(data any) { reply(http.StatusOK, map[string]any{"success": true, "data": data}) }

	switch {
	case r.URL.Path == oauth.SuccessPath:
		if r.URL.Query().Get("code") != "abc123" {
			reply(http.StatusOK, map[string]any{"success": false, "message": "bad code"})
			return
		}
		reply(http.StatusOK, map[string]any{"success": true, "token": "admin-token", "user": testUsers["admin-token"]})
	case r.URL.Path == session.MePath:
		if user == nil {
			reply(http.StatusUnauthorized, map[string]any{"success": false, "message": "token expired"})
			return
		}
		reply(http.StatusOK, map[string]any{"success": true, "user": user})
	case r.URL.Path == session.RefreshPath:
		reply(http.StatusUnauthorized, map[string]any{"success": false, "message": "refresh token expired"})
	case r.URL.Path == "/api/sponsor/statistics":
		ok(map[string]any{"totalDonations": 150, "totalRewards": 137.5, "balance": 12.5, "rewardCount": 3})
	case r.URL.Path == "/api/sponsor/donations":
		ok(map[string]any{
			"items":      []map[string]any{{"id": 1, "donorName": "carol", "amount": 50, "status": "APPROVED", "message": "Great docs"}},
			"total":      41,
			"totalPages": 3,
		})
	case strings.HasPrefix(r.URL.Path, "/api/sponsor/"):
		if user == nil {
			reply(http.StatusUnauthorized, map[string]any{"success": false})
			return
		}
		switch r.URL.Path {
		case "/api/sponsor/donations/my":
			ok([]map[string]any{{"id": 5, "amount": 20, "status": "PENDING"}})
		case "/api/sponsor/rewards/my-applications":
			ok([]map[string]any{{"id": 6, "rewardType": "DOCUMENTATION", "selfScore": 70, "status": "APPROVED", "finalScore": 65, "amount": 30}})
		default:
			ok(nil)
		}
	case strings.HasPrefix(r.URL.Path, "/admin/"):
		if user == nil || !user.IsAdmin {
			reply(http.StatusForbidden, map[string]any{"success": false, "message": "admin only"})
			return
		}
		if r.Method == http.MethodGet {
			ok(map[string]any{"content": []map[string]any{{"id": 9, "donorName": "dave", "amount": 99, "status": "PENDING", "paymentProof": "tx-1"}}, "total": 1, "totalPages": 1})
			return
		}
		ok(map[string]any{"id": 9})
	default:
		http.NotFound(w, r)
	}
}

// writeTestConfig writes a config directory pointing at backendURL and
// returns it together with the session directory.
func writeTestConfig(t *testing.T, backendURL string) (configDir, sessionDir string) {
	t.Helper()
	configDir = t.TempDir()
	sessionDir = filepath.Join(configDir, "session")

	content := fmt.Sprintf(`backend:
  url: %s
  timeout: 5s
oauth:
  callbackPort: 0
  loginTimeout: 10s
session:
  storageDir: %s
  persist: true
popup:
  pollInterval: 20ms
`, backendURL, sessionDir)
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0o600))
	return configDir, sessionDir
}

// seedSession stores token (and optionally user) as a previous login would.
func seedSession(t *testing.T, sessionDir, token string, user *session.User) {
	t.Helper()
	storage, err := session.NewFileStorage(sessionDir)
	require.NoError(t, err)
	store := session.NewTokenStore(storage)
	require.NoError(t, store.Save(token))
	if user != nil {
		require.NoError(t, store.SaveUser(user))
	}
}

func storedToken(t *testing.T, sessionDir string) (string, bool) {
	t.Helper()
	storage, err := session.NewFileStorage(sessionDir)
	require.NoError(t, err)
	return session.NewTokenStore(storage).Get()
}

// githubOpener plays the browser and GitHub: it follows the authorization
// URL straight back to the callback route with the given code.
type githubOpener struct {
	code string
}

type testPopup struct {
	mu     sync.Mutex
	closed bool
}

func (p *testPopup) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *testPopup) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (o *githubOpener) Open(_ context.Context, authURL string, _ oauth.Geometry) (oauth.Popup, error) {
	u, err := url.Parse(authURL)
	if err != nil {
		return nil, err
	}
	q := url.Values{"code": {o.code}, "state": {u.Query().Get("state")}}
	target := u.Query().Get("redirect_uri") + "?" + q.Encode()

	go func() {
		resp, err := http.Get(target)
		if err != nil {
			return
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
	return &testPopup{}, nil
}
