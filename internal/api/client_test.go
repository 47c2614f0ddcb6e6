package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taboowiki/internal/session"
)

// recordedRequest is what the fake backend saw.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]any
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recordedRequest
	reply    func(r *http.Request) (int, any)
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Auth:   r.Header.Get("Authorization"),
	}
	if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
		_ = json.Unmarshal(raw, &rec.Body)
	}
	b.mu.Lock()
	b.requests = append(b.requests, rec)
	b.mu.Unlock()

	status, body := http.StatusOK, any(map[string]any{"success": true, "data": nil})
	if b.reply != nil {
		status, body = b.reply(r)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (b *fakeBackend) last(t *testing.T) recordedRequest {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	require.NotEmpty(t, b.requests)
	return b.requests[len(b.requests)-1]
}

func newTestClient(t *testing.T, b *fakeBackend) (*Client, *session.Controller) {
	t.Helper()
	server := httptest.NewServer(b)
	t.Cleanup(server.Close)

	s := session.NewController(session.ControllerConfig{BaseURL: server.URL, Storage: session.NewMemoryStorage()})
	require.NoError(t, s.Adopt("tok", nil))
	return NewClient(s), s
}

func ok(data any) (int, any) {
	return http.StatusOK, map[string]any{"success": true, "data": data}
}

func TestPublicDonations(t *testing.T) {
	b := &fakeBackend{reply: func(*http.Request) (int, any) {
		return ok(map[string]any{
			"items": []map[string]any{
				{"id": 1, "donorName": "alice", "amount": 50.5, "status": "APPROVED", "donationTime": 1700000000000},
			},
			"total":      1,
			"totalPages": 1,
		})
	}}
	c, _ := newTestClient(t, b)

	page, err := c.PublicDonations(context.Background(), 1, 100)
	require.NoError(t, err)
	require.Len(t, page.List(), 1)

	d := page.List()[0]
	assert.Equal(t, "alice", d.DonorName)
	assert.Equal(t, 50.5, d.Amount)
	assert.Equal(t, StatusApproved, d.Status)
	assert.Equal(t, int64(1700000000000), d.DonationTime.UnixMilli())

	req := b.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/api/sponsor/donations", req.Path)
	assert.Equal(t, "page=1&size=100", req.Query)
	assert.Equal(t, "Bearer tok", req.Auth)
}

func TestPage_ContentFallback(t *testing.T) {
	b := &fakeBackend{reply: func(*http.Request) (int, any) {
		return ok(map[string]any{"content": []map[string]any{{"id": 7, "rewardType": "BUG_FIX", "selfScore": 80}}})
	}}
	c, _ := newTestClient(t, b)

	page, err := c.PendingRewards(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, page.List(), 1)
	assert.Equal(t, RewardBugFix, page.List()[0].RewardType)
	assert.Equal(t, "page=1&size=20", b.last(t).Query)
}

func TestEndpoints(t *testing.T) {
	paid := time.UnixMilli(1700000000000)

	tests := []struct {
		name   string
		call   func(c *Client) error
		method string
		path   string
		query  string
		body   map[string]any
	}{
		{
			name:   "statistics",
			call:   func(c *Client) error { _, err := c.Statistics(context.Background()); return err },
			method: http.MethodGet, path: "/api/sponsor/statistics",
		},
		{
			name:   "my donations",
			call:   func(c *Client) error { _, err := c.MyDonations(context.Background()); return err },
			method: http.MethodGet, path: "/api/sponsor/donations/my",
		},
		{
			name:   "edit message",
			call:   func(c *Client) error { _, err := c.EditDonationMessage(context.Background(), 3, "thanks"); return err },
			method: http.MethodPut, path: "/api/sponsor/donations/3/message",
			body: map[string]any{"message": "thanks"},
		},
		{
			name:   "my reward applications",
			call:   func(c *Client) error { _, err := c.MyRewardApplications(context.Background()); return err },
			method: http.MethodGet, path: "/api/sponsor/rewards/my-applications",
		},
		{
			name: "admin donations filtered",
			call: func(c *Client) error {
				_, err := c.AdminDonations(context.Background(), StatusPending, 2, 20)
				return err
			},
			method: http.MethodGet, path: "/admin/api/sponsor/donations", query: "page=2&size=20&status=PENDING",
		},
		{
			name:   "approve donation",
			call:   func(c *Client) error { _, err := c.ApproveDonation(context.Background(), 9, "ok"); return err },
			method: http.MethodPut, path: "/admin/api/sponsor/donations/9/approve",
			body: map[string]any{"remark": "ok"},
		},
		{
			name:   "reject donation",
			call:   func(c *Client) error { _, err := c.RejectDonation(context.Background(), 9, "no proof"); return err },
			method: http.MethodPut, path: "/admin/api/sponsor/donations/9/reject",
			body: map[string]any{"remark": "no proof"},
		},
		{
			name:   "reset edit permission",
			call:   func(c *Client) error { _, err := c.ResetEditPermission(context.Background(), 9, "typo"); return err },
			method: http.MethodPut, path: "/admin/api/sponsor/donations/9/reset-edit-permission",
			body: map[string]any{"reason": "typo"},
		},
		{
			name: "admin rewards filtered",
			call: func(c *Client) error {
				_, err := c.AdminRewards(context.Background(), StatusApproved, RewardDocumentation, 1, 10)
				return err
			},
			method: http.MethodGet, path: "/admin/api/sponsor/rewards",
			query: "page=1&rewardType=DOCUMENTATION&size=10&status=APPROVED",
		},
		{
			name:   "approve reward",
			call:   func(c *Client) error { _, err := c.ApproveReward(context.Background(), 4, 12.5, 90, ""); return err },
			method: http.MethodPut, path: "/admin/api/sponsor/rewards/4/approve",
			body: map[string]any{"amount": 12.5, "finalScore": float64(90)},
		},
		{
			name:   "reject reward",
			call:   func(c *Client) error { _, err := c.RejectReward(context.Background(), 4, "dup"); return err },
			method: http.MethodPut, path: "/admin/api/sponsor/rewards/4/reject",
			body: map[string]any{"remark": "dup"},
		},
		{
			name:   "mark paid",
			call:   func(c *Client) error { _, err := c.MarkRewardPaid(context.Background(), 4, paid, "sent"); return err },
			method: http.MethodPut, path: "/admin/api/sponsor/rewards/4/pay",
			body: map[string]any{"rewardTime": float64(1700000000000), "remark": "sent"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{}
			c, _ := newTestClient(t, b)

			require.NoError(t, tt.call(c))
			req := b.last(t)
			assert.Equal(t, tt.method, req.Method)
			assert.Equal(t, tt.path, req.Path)
			assert.Equal(t, tt.query, req.Query)
			assert.Equal(t, tt.body, req.Body)
			assert.Equal(t, "Bearer tok", req.Auth)
		})
	}
}

func TestSubmitDonation(t *testing.T) {
	b := &fakeBackend{reply: func(*http.Request) (int, any) {
		return ok(map[string]any{"id": 11, "amount": 20, "status": "PENDING"})
	}}
	c, _ := newTestClient(t, b)

	d, err := c.SubmitDonation(context.Background(), DonationRequest{Amount: 20, PaymentProof: "https://img/1.png"})
	require.NoError(t, err)
	assert.Equal(t, int64(11), d.ID)
	assert.Equal(t, StatusPending, d.Status)

	req := b.last(t)
	assert.Equal(t, "/api/sponsor/donations/submit", req.Path)
	assert.Equal(t, float64(20), req.Body["amount"])
	assert.NotNil(t, req.Body["donationTime"])
}

func TestValidationFailsBeforeRequest(t *testing.T) {
	b := &fakeBackend{}
	c, _ := newTestClient(t, b)
	ctx := context.Background()

	_, err := c.SubmitDonation(ctx, DonationRequest{Amount: 0, PaymentProof: "x"})
	assert.Error(t, err)
	_, err = c.ApplyReward(ctx, RewardRequest{RewardType: RewardBugFix, Description: "fix", ProofURL: "not-a-url", SelfScore: 50})
	assert.Error(t, err)
	_, err = c.ApproveReward(ctx, 1, 1, 101, "")
	assert.Error(t, err)

	assert.Empty(t, b.requests)

	_, err = c.ApplyReward(ctx, RewardRequest{RewardType: RewardBugFix, Description: "fix", ProofURL: "https://github.com/x/pull/1", SelfScore: 50})
	require.NoError(t, err)
	assert.Equal(t, "/api/sponsor/rewards/apply", b.last(t).Path)
}

func TestAPIErrors(t *testing.T) {
	t.Run("success false", func(t *testing.T) {
		b := &fakeBackend{reply: func(*http.Request) (int, any) {
			return http.StatusOK, map[string]any{"success": false, "message": "message already edited"}
		}}
		c, _ := newTestClient(t, b)

		_, err := c.EditDonationMessage(context.Background(), 1, "again")
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "message already edited", apiErr.Message)
		assert.Contains(t, err.Error(), "message already edited")
	})

	t.Run("forbidden", func(t *testing.T) {
		b := &fakeBackend{reply: func(*http.Request) (int, any) {
			return http.StatusForbidden, map[string]any{"success": false, "message": "admin only"}
		}}
		c, s := newTestClient(t, b)

		_, err := c.AdminDonations(context.Background(), "", 1, 20)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.True(t, apiErr.Forbidden())
		assert.True(t, s.HasToken())
	})

	t.Run("unauthorized after failed refresh", func(t *testing.T) {
		b := &fakeBackend{reply: func(*http.Request) (int, any) {
			return http.StatusUnauthorized, map[string]any{"success": false}
		}}
		c, s := newTestClient(t, b)

		_, err := c.MyDonations(context.Background())
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.True(t, apiErr.Unauthorized())
		assert.False(t, s.HasToken())
	})
}

func TestTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{`1700000000000`, time.UnixMilli(1700000000000)},
		{`"2024-05-01T10:00:00Z"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{`"2024-05-01T10:00:00"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{`"2024-05-01 10:00:00"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{`null`, time.Time{}},
	}
	for _, tt := range tests {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(tt.in), &ts), tt.in)
		assert.True(t, tt.want.Equal(ts.Time), tt.in)
	}

	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestParse(t *testing.T) {
	st, err := ParseStatus("pending")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, st)
	_, err = ParseStatus("done")
	assert.Error(t, err)

	rt, err := ParseRewardType("major-contribution")
	require.NoError(t, err)
	assert.Equal(t, RewardMajorContribution, rt)
	assert.Equal(t, "Major contribution", rt.Label())
	_, err = ParseRewardType("art")
	assert.Error(t, err)
}
