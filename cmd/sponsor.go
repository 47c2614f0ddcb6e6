package cmd

import (
	"fmt"
	"strconv"

	"taboowiki/internal/api"
	"taboowiki/internal/cli"
	"taboowiki/internal/guard"

	"github.com/spf13/cobra"
)

// pageFlags are bound by every listing command.
type pageFlags struct {
	page int
	size int
}

func (f *pageFlags) register(cmd *cobra.Command, defaultSize int) {
	cmd.Flags().IntVar(&f.page, "page", 1, "Page number")
	cmd.Flags().IntVar(&f.size, "size", defaultSize, "Page size")
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

// newSponsorsCmd lists the public sponsor ledger. No login is needed.
func newSponsorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sponsors",
		Short: "Show the public sponsor ledger",
		Long: `Show the public sponsor ledger: approved donations, paid rewards and
the running totals. No login is needed.

Examples:
  taboowiki sponsors stats
  taboowiki sponsors donations --page 2
  taboowiki sponsors rewards -o json`,
	}

	var donationPages, rewardPages pageFlags

	donations := &cobra.Command{
		Use:   "donations",
		Short: "List approved donations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, p, err := setup(cmd)
			if err != nil {
				return err
			}
			page, err := env.client().PublicDonations(cmd.Context(), donationPages.page, donationPages.size)
			if err != nil {
				return env.commandError(err)
			}
			return p.PrintTable(pagedTable(donationTable(page.List(), false), page, donationPages.page))
		},
	}
	donationPages.register(donations, 100)

	rewards := &cobra.Command{
		Use:   "rewards",
		Short: "List paid rewards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, p, err := setup(cmd)
			if err != nil {
				return err
			}
			page, err := env.client().PublicRewards(cmd.Context(), rewardPages.page, rewardPages.size)
			if err != nil {
				return env.commandError(err)
			}
			return p.PrintTable(pagedTable(rewardTable(page.List(), false), page, rewardPages.page))
		},
	}
	rewardPages.register(rewards, 100)

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show ledger totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, p, err := setup(cmd)
			if err != nil {
				return err
			}
			s, err := env.client().Statistics(cmd.Context())
			if err != nil {
				return env.commandError(err)
			}
			if s == nil {
				s = &api.Statistics{}
			}
			return p.PrintFields([][2]string{
				{"Total donations", cli.FormatAmount(s.TotalDonations)},
				{"Total rewards", cli.FormatAmount(s.TotalRewards)},
				{"Balance", cli.FormatAmount(s.Balance)},
				{"Rewards paid", strconv.Itoa(s.RewardCount)},
			}, s)
		},
	}

	cmd.AddCommand(donations, rewards, stats)
	return cmd
}

// newDonationsCmd manages the logged-in user's donations.
func newDonationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "donations",
		Short: "Manage your donations",
		Long: `Manage the donations you submitted. Requires login.

Examples:
  taboowiki donations list
  taboowiki donations submit --amount 50 --proof https://... --message "Keep it up"
  taboowiki donations edit-message 12 "Thanks for the great docs"`,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List your donations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, p, err := setupGuarded(cmd, guard.PolicyAuthenticated)
			if err != nil {
				return err
			}
			donations, err := env.client().MyDonations(cmd.Context())
			if err != nil {
				return env.commandError(err)
			}
			return p.PrintTable(donationTable(donations, false))
		},
	}

	var req api.DonationRequest
	submit := &cobra.Command{
		Use:   "submit",
		Short: "Submit a donation for review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := req.Validate(); err != nil {
				return err
			}
			env, p, err := setupGuarded(cmd, guard.PolicyAuthenticated)
			if err != nil {
				return err
			}
			d, err := env.client().SubmitDonation(cmd.Context(), req)
			if err != nil {
				return env.commandError(err)
			}
			info(cmd, "%s\n", cli.FormatSuccess("Donation submitted, waiting for review"))
			if d == nil {
				return nil
			}
			return p.PrintTable(donationTable([]api.Donation{*d}, false))
		},
	}
	submit.Flags().Float64Var(&req.Amount, "amount", 0, "Donated amount")
	submit.Flags().StringVar(&req.PaymentProof, "proof", "", "Payment proof (screenshot URL or transaction id)")
	submit.Flags().StringVar(&req.DonorName, "name", "", "Name shown on the sponsor list, empty for anonymous")
	submit.Flags().StringVar(&req.Message, "message", "", "Message shown with the donation")
	submit.Flags().StringVar(&req.ContactInfo, "contact", "", "Contact information for the maintainers")
	_ = submit.MarkFlagRequired("amount")
	_ = submit.MarkFlagRequired("proof")

	editMessage := &cobra.Command{
		Use:   "edit-message <id> <message>",
		Short: "Edit the message of one of your donations",
		Long: `Edit the message of one of your donations.

A message can be edited once. An administrator can grant another edit.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			env, _, err := setupGuarded(cmd, guard.PolicyAuthenticated)
			if err != nil {
				return err
			}
			if _, err := env.client().EditDonationMessage(cmd.Context(), id, args[1]); err != nil {
				return env.commandError(err)
			}
			info(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("Message of donation %d updated", id)))
			return nil
		},
	}

	cmd.AddCommand(list, submit, editMessage)
	return cmd
}

// newRewardsCmd manages the logged-in user's reward applications.
func newRewardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewards",
		Short: "Manage your reward applications",
		Long: `Apply for contribution rewards and follow their review. Requires login.

Reward types: bug-fix, documentation, promotion, major-contribution.

Examples:
  taboowiki rewards list
  taboowiki rewards apply --type bug-fix --description "Fix sidebar crash" \
      --proof https://github.com/... --score 60`,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List your reward applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, p, err := setupGuarded(cmd, guard.PolicyAuthenticated)
			if err != nil {
				return err
			}
			rewards, err := env.client().MyRewardApplications(cmd.Context())
			if err != nil {
				return env.commandError(err)
			}
			return p.PrintTable(rewardTable(rewards, false))
		},
	}

	var req api.RewardRequest
	var rewardType string
	apply := &cobra.Command{
		Use:   "apply",
		Short: "Apply for a contribution reward",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := api.ParseRewardType(rewardType)
			if err != nil {
				return err
			}
			req.RewardType = rt
			if err := req.Validate(); err != nil {
				return err
			}
			env, p, err := setupGuarded(cmd, guard.PolicyAuthenticated)
			if err != nil {
				return err
			}
			r, err := env.client().ApplyReward(cmd.Context(), req)
			if err != nil {
				return env.commandError(err)
			}
			info(cmd, "%s\n", cli.FormatSuccess("Reward application submitted, waiting for review"))
			if r == nil {
				return nil
			}
			return p.PrintTable(rewardTable([]api.Reward{*r}, false))
		},
	}
	apply.Flags().StringVar(&rewardType, "type", "", "Reward type (bug-fix, documentation, promotion, major-contribution)")
	apply.Flags().StringVar(&req.Description, "description", "", "What you contributed")
	apply.Flags().StringVar(&req.ProofURL, "proof", "", "Link to the pull request, article or other proof")
	apply.Flags().IntVar(&req.SelfScore, "score", 0, "Self assessed score (1-100)")
	apply.Flags().StringVar(&req.ContributorName, "name", "", "Name shown on the reward list")
	_ = apply.MarkFlagRequired("type")
	_ = apply.MarkFlagRequired("description")
	_ = apply.MarkFlagRequired("proof")
	_ = apply.MarkFlagRequired("score")

	cmd.AddCommand(list, apply)
	return cmd
}

// setup loads the environment and the output printer.
func setup(cmd *cobra.Command) (*environment, *cli.Printer, error) {
	p, err := printer(cmd)
	if err != nil {
		return nil, nil, err
	}
	env, err := loadEnvironment()
	if err != nil {
		return nil, nil, err
	}
	return env, p, nil
}

// setupGuarded is setup followed by the guard check for policy.
func setupGuarded(cmd *cobra.Command, policy guard.Policy) (*environment, *cli.Printer, error) {
	env, p, err := setup(cmd)
	if err != nil {
		return nil, nil, err
	}
	if _, err := env.require(cmd.Context(), policy); err != nil {
		return nil, nil, err
	}
	return env, p, nil
}

func init() {
	rootCmd.AddCommand(newSponsorsCmd(), newDonationsCmd(), newRewardsCmd())
}
