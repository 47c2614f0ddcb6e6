package cmd

import (
	"fmt"
	"strconv"
	"time"

	"taboowiki/internal/api"
	"taboowiki/internal/cli"
)

// messageColumnWidth bounds free text columns in table output.
const messageColumnWidth = 40

func formatTimestamp(ts *api.Timestamp) string {
	if ts == nil || ts.IsZero() {
		return "-"
	}
	return cli.FormatTime(ts.UTC().Format(time.RFC3339))
}

func donationTable(donations []api.Donation, withReview bool) cli.Table {
	headers := []string{"ID", "Donor", "Amount", "Status", "Donated", "Message"}
	if withReview {
		headers = append(headers, "Proof", "Contact", "Remark")
	}

	rows := make([][]string, 0, len(donations))
	for _, d := range donations {
		message := cli.Truncate(d.Message, messageColumnWidth)
		if d.MessageEditedAt != nil && !d.MessageEditedAt.IsZero() {
			message += " (edited)"
		}
		row := []string{
			strconv.FormatInt(d.ID, 10),
			orDash(d.DonorName),
			cli.FormatAmount(d.Amount),
			cli.FormatStatus(string(d.Status)),
			formatTimestamp(d.DonationTime),
			orDash(message),
		}
		if withReview {
			row = append(row,
				orDash(cli.Truncate(d.PaymentProof, messageColumnWidth)),
				orDash(d.ContactInfo),
				orDash(d.Remark),
			)
		}
		rows = append(rows, row)
	}
	return cli.Table{Headers: headers, Rows: rows, Raw: donations}
}

func rewardTable(rewards []api.Reward, withReview bool) cli.Table {
	headers := []string{"ID", "Contributor", "Type", "Score", "Amount", "Status", "Applied"}
	if withReview {
		headers = append(headers, "Description", "Proof", "Remark")
	}

	rows := make([][]string, 0, len(rewards))
	for _, r := range rewards {
		score := strconv.Itoa(r.SelfScore)
		if r.FinalScore != nil {
			score = fmt.Sprintf("%d/%d", *r.FinalScore, r.SelfScore)
		}
		amount := "-"
		if r.Amount != nil {
			amount = cli.FormatAmount(*r.Amount)
		}
		row := []string{
			strconv.FormatInt(r.ID, 10),
			orDash(r.ContributorName),
			r.RewardType.Label(),
			score,
			amount,
			cli.FormatStatus(string(r.Status)),
			formatTimestamp(r.ApplyTime),
		}
		if withReview {
			row = append(row,
				orDash(cli.Truncate(r.Description, messageColumnWidth)),
				orDash(r.ProofURL),
				orDash(r.Remark),
			)
		}
		rows = append(rows, row)
	}
	return cli.Table{Headers: headers, Rows: rows, Raw: rewards}
}

func pageFooter(page, totalPages, total int) string {
	if totalPages <= 1 {
		return ""
	}
	return fmt.Sprintf("Page %d of %d (%d total)", page, totalPages, total)
}

// pagedTable prints a page of records and, for json and yaml, the page itself.
func pagedTable[T any](t cli.Table, p *api.Page[T], page int) cli.Table {
	if p != nil {
		t.Footer = pageFooter(page, p.TotalPages, p.Total)
		t.Raw = p
	}
	return t
}
