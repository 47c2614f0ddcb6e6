package api

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const (
	pathAdminDonations  = "/admin/api/sponsor/donations"
	pathAdminRewards    = "/admin/api/sponsor/rewards"
	pathPendingRewards  = "/admin/api/sponsor/rewards/pending"
	pathDonationActionF = "/admin/api/sponsor/donations/%d/%s"
	pathRewardActionF   = "/admin/api/sponsor/rewards/%d/%s"
)

type remarkBody struct {
	Remark string `json:"remark,omitempty"`
}

// AdminDonations lists donations in any state. An empty status lists all.
func (c *Client) AdminDonations(ctx context.Context, status Status, page, size int) (*Page[Donation], error) {
	q := pageQuery(page, size)
	if status != "" {
		q.Set("status", string(status))
	}
	return call[*Page[Donation]](ctx, c, http.MethodGet, pathAdminDonations, q, nil)
}

// ApproveDonation approves a pending donation.
func (c *Client) ApproveDonation(ctx context.Context, id int64, remark string) (*Donation, error) {
	return call[*Donation](ctx, c, http.MethodPut, fmt.Sprintf(pathDonationActionF, id, "approve"), nil, remarkBody{Remark: remark})
}

// RejectDonation rejects a pending donation.
func (c *Client) RejectDonation(ctx context.Context, id int64, remark string) (*Donation, error) {
	return call[*Donation](ctx, c, http.MethodPut, fmt.Sprintf(pathDonationActionF, id, "reject"), nil, remarkBody{Remark: remark})
}

// ResetEditPermission lets the donor edit their message again.
func (c *Client) ResetEditPermission(ctx context.Context, id int64, reason string) (*Donation, error) {
	body := map[string]string{"reason": reason}
	return call[*Donation](ctx, c, http.MethodPut, fmt.Sprintf(pathDonationActionF, id, "reset-edit-permission"), nil, body)
}

// AdminRewards lists reward applications, optionally filtered.
func (c *Client) AdminRewards(ctx context.Context, status Status, rewardType RewardType, page, size int) (*Page[Reward], error) {
	q := pageQuery(page, size)
	if status != "" {
		q.Set("status", string(status))
	}
	if rewardType != "" {
		q.Set("rewardType", string(rewardType))
	}
	return call[*Page[Reward]](ctx, c, http.MethodGet, pathAdminRewards, q, nil)
}

// PendingRewards lists reward applications awaiting review.
func (c *Client) PendingRewards(ctx context.Context, page, size int) (*Page[Reward], error) {
	return call[*Page[Reward]](ctx, c, http.MethodGet, pathPendingRewards, pageQuery(page, size), nil)
}

// ApproveReward approves an application with the granted amount and score.
func (c *Client) ApproveReward(ctx context.Context, id int64, amount float64, finalScore int, remark string) (*Reward, error) {
	if amount < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	if finalScore < 0 || finalScore > 100 {
		return nil, fmt.Errorf("final score must be between 0 and 100")
	}
	body := struct {
		Amount     float64 `json:"amount"`
		FinalScore int     `json:"finalScore"`
		Remark     string  `json:"remark,omitempty"`
	}{amount, finalScore, remark}
	return call[*Reward](ctx, c, http.MethodPut, fmt.Sprintf(pathRewardActionF, id, "approve"), nil, body)
}

// RejectReward rejects an application.
func (c *Client) RejectReward(ctx context.Context, id int64, remark string) (*Reward, error) {
	return call[*Reward](ctx, c, http.MethodPut, fmt.Sprintf(pathRewardActionF, id, "reject"), nil, remarkBody{Remark: remark})
}

// MarkRewardPaid records that an approved reward was paid out at rewardTime.
func (c *Client) MarkRewardPaid(ctx context.Context, id int64, rewardTime time.Time, remark string) (*Reward, error) {
	body := struct {
		RewardTime Timestamp `json:"rewardTime"`
		Remark     string    `json:"remark,omitempty"`
	}{Timestamp{rewardTime}, remark}
	return call[*Reward](ctx, c, http.MethodPut, fmt.Sprintf(pathRewardActionF, id, "pay"), nil, body)
}
