package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status is the review state shared by donations and reward applications.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusPaid     Status = "PAID"
)

// ParseStatus accepts a status in any case. The empty string means no filter.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case "", StatusPending, StatusApproved, StatusRejected, StatusPaid:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q (valid: PENDING, APPROVED, REJECTED, PAID)", s)
}

// RewardType classifies a contribution.
type RewardType string

const (
	RewardBugFix            RewardType = "BUG_FIX"
	RewardDocumentation     RewardType = "DOCUMENTATION"
	RewardPromotion         RewardType = "PROMOTION"
	RewardMajorContribution RewardType = "MAJOR_CONTRIBUTION"
)

// RewardTypes lists the accepted reward types.
var RewardTypes = []RewardType{RewardBugFix, RewardDocumentation, RewardPromotion, RewardMajorContribution}

// ParseRewardType accepts a reward type in any case, with '-' for '_'.
func ParseRewardType(s string) (RewardType, error) {
	rt := RewardType(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	if rt == "" {
		return "", nil
	}
	for _, known := range RewardTypes {
		if rt == known {
			return rt, nil
		}
	}
	return "", fmt.Errorf("unknown reward type %q", s)
}

// Label returns a human-readable name.
func (t RewardType) Label() string {
	switch t {
	case RewardBugFix:
		return "Bug fix"
	case RewardDocumentation:
		return "Documentation"
	case RewardPromotion:
		return "Promotion"
	case RewardMajorContribution:
		return "Major contribution"
	default:
		return string(t)
	}
}

// Timestamp decodes either epoch milliseconds or a date-time string. It
// encodes as epoch milliseconds.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if data[0] != '"' {
		ms, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid timestamp %s: %w", data, err)
		}
		t.Time = time.UnixMilli(ms)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(t.UnixMilli(), 10)), nil
}

// Donation is a sponsor's donation record.
type Donation struct {
	ID              int64      `json:"id"`
	DonorName       string     `json:"donorName,omitempty"`
	Amount          float64    `json:"amount"`
	Message         string     `json:"message,omitempty"`
	MessageEditedAt *Timestamp `json:"messageEditedAt,omitempty"`
	PaymentProof    string     `json:"paymentProof,omitempty"`
	ContactInfo     string     `json:"contactInfo,omitempty"`
	DonationTime    *Timestamp `json:"donationTime,omitempty"`
	Status          Status     `json:"status,omitempty"`
	Remark          string     `json:"remark,omitempty"`
	IsHighlighted   bool       `json:"isHighlighted,omitempty"`
}

// DonationRequest submits a donation for review.
type DonationRequest struct {
	DonorName    string    `json:"donorName,omitempty"`
	Amount       float64   `json:"amount"`
	Message      string    `json:"message,omitempty"`
	PaymentProof string    `json:"paymentProof"`
	ContactInfo  string    `json:"contactInfo,omitempty"`
	DonationTime Timestamp `json:"donationTime"`
}

// MaxMessageLength is the longest donation message the backend accepts.
const MaxMessageLength = 200

// Validate checks the fields the backend requires.
func (r DonationRequest) Validate() error {
	if r.Amount <= 0 {
		return fmt.Errorf("amount must be greater than 0")
	}
	if strings.TrimSpace(r.PaymentProof) == "" {
		return fmt.Errorf("payment proof is required")
	}
	if len([]rune(r.Message)) > MaxMessageLength {
		return fmt.Errorf("message must not exceed %d characters", MaxMessageLength)
	}
	return nil
}

// Reward is a contributor's reward application.
type Reward struct {
	ID              int64      `json:"id"`
	ContributorName string     `json:"contributorName,omitempty"`
	RewardType      RewardType `json:"rewardType"`
	Description     string     `json:"description,omitempty"`
	ProofURL        string     `json:"proofUrl,omitempty"`
	SelfScore       int        `json:"selfScore"`
	FinalScore      *int       `json:"finalScore,omitempty"`
	Amount          *float64   `json:"amount,omitempty"`
	ApplyTime       *Timestamp `json:"applyTime,omitempty"`
	RewardTime      *Timestamp `json:"rewardTime,omitempty"`
	Status          Status     `json:"status,omitempty"`
	Remark          string     `json:"remark,omitempty"`
}

// MaxDescriptionLength is the longest reward description the backend accepts.
const MaxDescriptionLength = 100

// RewardRequest applies for a reward.
type RewardRequest struct {
	ContributorName string     `json:"contributorName,omitempty"`
	RewardType      RewardType `json:"rewardType"`
	Description     string     `json:"description"`
	ProofURL        string     `json:"proofUrl"`
	SelfScore       int        `json:"selfScore"`
}

// Validate checks the fields the backend requires.
func (r RewardRequest) Validate() error {
	if _, err := ParseRewardType(string(r.RewardType)); err != nil || r.RewardType == "" {
		return fmt.Errorf("a valid reward type is required")
	}
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("description is required")
	}
	if len([]rune(r.Description)) > MaxDescriptionLength {
		return fmt.Errorf("description must not exceed %d characters", MaxDescriptionLength)
	}
	if !strings.HasPrefix(r.ProofURL, "http://") && !strings.HasPrefix(r.ProofURL, "https://") {
		return fmt.Errorf("proof URL must be an http(s) link")
	}
	if r.SelfScore < 1 || r.SelfScore > 100 {
		return fmt.Errorf("self score must be between 1 and 100")
	}
	return nil
}

// Statistics summarises the sponsor ledger.
type Statistics struct {
	TotalDonations float64 `json:"totalDonations"`
	TotalRewards   float64 `json:"totalRewards"`
	Balance        float64 `json:"balance"`
	DonationCount  int     `json:"donationCount"`
	RewardCount    int     `json:"rewardCount"`
}

// Response is the envelope of every backend reply.
type Response[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

// Page is a page of results. Some endpoints fill Items, others Content.
type Page[T any] struct {
	Items      []T `json:"items,omitempty"`
	Content    []T `json:"content,omitempty"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// List returns the page's records regardless of which field carried them.
func (p *Page[T]) List() []T {
	if p == nil {
		return nil
	}
	if len(p.Items) > 0 {
		return p.Items
	}
	return p.Content
}
