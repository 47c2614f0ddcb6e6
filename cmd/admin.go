package cmd

import (
	"fmt"
	"time"

	"taboowiki/internal/api"
	"taboowiki/internal/cli"
	"taboowiki/internal/guard"

	"github.com/spf13/cobra"
)

// newAdminCmd is the review queue. Every subcommand requires an admin session.
func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Review donations and reward applications",
		Long: `Review donations and reward applications. Requires an admin session.

Examples:
  taboowiki admin donations list --status pending
  taboowiki admin donations approve 12 --remark "Received"
  taboowiki admin rewards pending
  taboowiki admin rewards approve 7 --amount 88 --score 75
  taboowiki admin rewards pay 7 --remark "Sent via Alipay"`,
	}
	cmd.AddCommand(newAdminDonationsCmd(), newAdminRewardsCmd())
	return cmd
}

func newAdminDonationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "donations",
		Short: "Review donations",
	}

	var pages pageFlags
	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List donations in any state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := api.ParseStatus(status)
			if err != nil {
				return err
			}
			env, p, err := setupGuarded(cmd, guard.PolicyAdmin)
			if err != nil {
				return err
			}
			page, err := env.client().AdminDonations(cmd.Context(), st, pages.page, pages.size)
			if err != nil {
				return env.commandError(err)
			}
			return p.PrintTable(pagedTable(donationTable(page.List(), true), page, pages.page))
		},
	}
	pages.register(list, 20)
	list.Flags().StringVar(&status, "status", "", "Filter by status (pending, approved, rejected)")

	var remark string
	approve := donationAction("approve", "Approve a pending donation", &remark,
		func(c *api.Client, cmd *cobra.Command, id int64) error {
			_, err := c.ApproveDonation(cmd.Context(), id, remark)
			return err
		})
	reject := donationAction("reject", "Reject a pending donation", &remark,
		func(c *api.Client, cmd *cobra.Command, id int64) error {
			_, err := c.RejectDonation(cmd.Context(), id, remark)
			return err
		})

	var reason string
	resetEdit := &cobra.Command{
		Use:   "reset-edit <id>",
		Short: "Allow the donor to edit their message again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminAction(cmd, args[0], "Edit permission of donation %d reset", func(c *api.Client, id int64) error {
				_, err := c.ResetEditPermission(cmd.Context(), id, reason)
				return err
			})
		},
	}
	resetEdit.Flags().StringVar(&reason, "reason", "", "Why the donor may edit again")

	cmd.AddCommand(list, approve, reject, resetEdit)
	return cmd
}

func donationAction(verb, short string, remark *string, do func(*api.Client, *cobra.Command, int64) error) *cobra.Command {
	c := &cobra.Command{
		Use:   verb + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminAction(cmd, args[0], "Donation %d "+pastTense(verb), func(client *api.Client, id int64) error {
				return do(client, cmd, id)
			})
		},
	}
	c.Flags().StringVar(remark, "remark", "", "Review remark")
	return c
}

func newAdminRewardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewards",
		Short: "Review reward applications",
	}

	var pages pageFlags
	var status, rewardType string
	list := &cobra.Command{
		Use:   "list",
		Short: "List reward applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := api.ParseStatus(status)
			if err != nil {
				return err
			}
			rt, err := api.ParseRewardType(rewardType)
			if err != nil {
				return err
			}
			env, p, err := setupGuarded(cmd, guard.PolicyAdmin)
			if err != nil {
				return err
			}
			page, err := env.client().AdminRewards(cmd.Context(), st, rt, pages.page, pages.size)
			if err != nil {
				return env.commandError(err)
			}
			return p.PrintTable(pagedTable(rewardTable(page.List(), true), page, pages.page))
		},
	}
	pages.register(list, 20)
	list.Flags().StringVar(&status, "status", "", "Filter by status (pending, approved, rejected, paid)")
	list.Flags().StringVar(&rewardType, "type", "", "Filter by reward type")

	var pendingPages pageFlags
	pending := &cobra.Command{
		Use:   "pending",
		Short: "List applications awaiting review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, p, err := setupGuarded(cmd, guard.PolicyAdmin)
			if err != nil {
				return err
			}
			page, err := env.client().PendingRewards(cmd.Context(), pendingPages.page, pendingPages.size)
			if err != nil {
				return env.commandError(err)
			}
			return p.PrintTable(pagedTable(rewardTable(page.List(), true), page, pendingPages.page))
		},
	}
	pendingPages.register(pending, 20)

	var approveOpts struct {
		amount float64
		score  int
		remark string
	}
	approve := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve an application with the granted amount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminAction(cmd, args[0], "Reward %d approved", func(c *api.Client, id int64) error {
				_, err := c.ApproveReward(cmd.Context(), id, approveOpts.amount, approveOpts.score, approveOpts.remark)
				return err
			})
		},
	}
	approve.Flags().Float64Var(&approveOpts.amount, "amount", 0, "Granted amount")
	approve.Flags().IntVar(&approveOpts.score, "score", 0, "Final score (0-100)")
	approve.Flags().StringVar(&approveOpts.remark, "remark", "", "Review remark")
	_ = approve.MarkFlagRequired("amount")
	_ = approve.MarkFlagRequired("score")

	var rejectRemark string
	reject := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminAction(cmd, args[0], "Reward %d rejected", func(c *api.Client, id int64) error {
				_, err := c.RejectReward(cmd.Context(), id, rejectRemark)
				return err
			})
		},
	}
	reject.Flags().StringVar(&rejectRemark, "remark", "", "Review remark")

	var payOpts struct {
		at     string
		remark string
	}
	pay := &cobra.Command{
		Use:   "pay <id>",
		Short: "Mark an approved reward as paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paidAt := time.Now()
			if payOpts.at != "" {
				t, err := time.ParseInLocation("2006-01-02 15:04", payOpts.at, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --at %q, expected YYYY-MM-DD HH:MM", payOpts.at)
				}
				paidAt = t
			}
			return runAdminAction(cmd, args[0], "Reward %d marked as paid", func(c *api.Client, id int64) error {
				_, err := c.MarkRewardPaid(cmd.Context(), id, paidAt, payOpts.remark)
				return err
			})
		},
	}
	pay.Flags().StringVar(&payOpts.at, "at", "", "Payment time as YYYY-MM-DD HH:MM (default now)")
	pay.Flags().StringVar(&payOpts.remark, "remark", "", "Payment remark")

	cmd.AddCommand(list, pending, approve, reject, pay)
	return cmd
}

// runAdminAction parses the id, checks for an admin session and runs do.
func runAdminAction(cmd *cobra.Command, arg, done string, do func(*api.Client, int64) error) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	env, _, err := setupGuarded(cmd, guard.PolicyAdmin)
	if err != nil {
		return err
	}
	if err := do(env.client(), id); err != nil {
		return env.commandError(err)
	}
	info(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf(done, id)))
	return nil
}

func pastTense(verb string) string {
	switch verb {
	case "approve":
		return "approved"
	case "reject":
		return "rejected"
	default:
		return verb + "ed"
	}
}

func init() {
	rootCmd.AddCommand(newAdminCmd())
}
