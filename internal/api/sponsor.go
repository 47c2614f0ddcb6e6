package api

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const (
	pathDonations        = "/api/sponsor/donations"
	pathRewards          = "/api/sponsor/rewards"
	pathStatistics       = "/api/sponsor/statistics"
	pathMyDonations      = "/api/sponsor/donations/my"
	pathSubmitDonation   = "/api/sponsor/donations/submit"
	pathMyRewards        = "/api/sponsor/rewards/my-applications"
	pathApplyReward      = "/api/sponsor/rewards/apply"
	pathDonationMessageF = "/api/sponsor/donations/%d/message"
)

// PublicDonations lists approved donations. No session is needed.
func (c *Client) PublicDonations(ctx context.Context, page, size int) (*Page[Donation], error) {
	return call[*Page[Donation]](ctx, c, http.MethodGet, pathDonations, pageQuery(page, size), nil)
}

// PublicRewards lists paid rewards. No session is needed.
func (c *Client) PublicRewards(ctx context.Context, page, size int) (*Page[Reward], error) {
	return call[*Page[Reward]](ctx, c, http.MethodGet, pathRewards, pageQuery(page, size), nil)
}

// Statistics returns the ledger totals.
func (c *Client) Statistics(ctx context.Context) (*Statistics, error) {
	return call[*Statistics](ctx, c, http.MethodGet, pathStatistics, nil, nil)
}

// MyDonations lists the current user's donations.
func (c *Client) MyDonations(ctx context.Context) ([]Donation, error) {
	return call[[]Donation](ctx, c, http.MethodGet, pathMyDonations, nil, nil)
}

// SubmitDonation submits a donation for review.
func (c *Client) SubmitDonation(ctx context.Context, r DonationRequest) (*Donation, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.DonationTime.IsZero() {
		r.DonationTime = Timestamp{time.Now()}
	}
	return call[*Donation](ctx, c, http.MethodPost, pathSubmitDonation, nil, r)
}

// EditDonationMessage replaces the message of one of the user's donations.
// The backend allows this once unless an admin resets the permission.
func (c *Client) EditDonationMessage(ctx context.Context, id int64, message string) (*Donation, error) {
	if len([]rune(message)) > MaxMessageLength {
		return nil, fmt.Errorf("message must not exceed %d characters", MaxMessageLength)
	}
	body := map[string]string{"message": message}
	return call[*Donation](ctx, c, http.MethodPut, fmt.Sprintf(pathDonationMessageF, id), nil, body)
}

// MyRewardApplications lists the current user's reward applications.
func (c *Client) MyRewardApplications(ctx context.Context) ([]Reward, error) {
	return call[[]Reward](ctx, c, http.MethodGet, pathMyRewards, nil, nil)
}

// ApplyReward submits a reward application.
func (c *Client) ApplyReward(ctx context.Context, r RewardRequest) (*Reward, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return call[*Reward](ctx, c, http.MethodPost, pathApplyReward, nil, r)
}
