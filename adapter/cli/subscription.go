package cli

import (
	"fmt"

	billing "github.com/felixgeelhaar/jobtrack/internal/billing/domain"
	"github.com/spf13/cobra"
)

var subscriptionOwner string

var subscriptionCmd = &cobra.Command{
	Use:   "subscription",
	Short: "Inspect subscriptions",
}

var subscriptionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a user's plan and quota",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		container, err := openContainer(ctx)
		if err != nil {
			return err
		}
		defer container.Close()

		svc := container.BillingService
		sub, err := svc.GetSubscription(ctx, subscriptionOwner)
		if err != nil {
			return err
		}
		count, err := svc.GetJobCount(ctx, subscriptionOwner)
		if err != nil {
			return err
		}
		decision := billing.EvaluateEntitlement(subscriptionOwner, sub, count)

		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, map[string]any{
				"subscription": sub,
				"jobCount":     count,
				"canCreateJob": decision,
			})
		}

		tw := newTable(out)
		if sub == nil {
			fmt.Fprintf(tw, "Plan\tfree (no subscription)\n")
		} else {
			fmt.Fprintf(tw, "Plan\t%s (%s)\n", sub.PlanID, sub.Status)
			if sub.CurrentPeriodEnd != nil {
				fmt.Fprintf(tw, "Period ends\t%s\n", sub.CurrentPeriodEnd.Format("2006-01-02"))
			}
			fmt.Fprintf(tw, "Payment reference\t%s\n", orDash(sub.PaymentReference))
		}
		fmt.Fprintf(tw, "Jobs\t%d\n", count)
		if decision.Allowed {
			fmt.Fprintf(tw, "Can add jobs\tyes\n")
		} else {
			fmt.Fprintf(tw, "Can add jobs\tno (%s)\n", decision.Reason)
		}
		return tw.Flush()
	},
}

func init() {
	subscriptionStatusCmd.Flags().StringVar(&subscriptionOwner, "owner", "", "owner (user) identifier")
	_ = subscriptionStatusCmd.MarkFlagRequired("owner")

	subscriptionCmd.AddCommand(subscriptionStatusCmd)
	rootCmd.AddCommand(subscriptionCmd)
}
