package cli

import (
	"fmt"
	"strings"

	billing "github.com/felixgeelhaar/jobtrack/internal/billing/domain"
	"github.com/spf13/cobra"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List subscription plans",
	RunE: func(cmd *cobra.Command, args []string) error {
		plans := billing.Plans()
		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, plans)
		}

		tw := newTable(out)
		fmt.Fprintln(tw, "ID\tNAME\tPRICE\tJOBS\tFEATURES")
		for _, p := range plans {
			limit := fmt.Sprintf("%d", p.JobLimit)
			if p.IsUnlimited() {
				limit = "unlimited"
			}
			fmt.Fprintf(tw, "%s\t%s\t%.2f %s/%s\t%s\t%s\n",
				p.ID, p.Name, p.Price, p.Currency, p.Interval, limit, strings.Join(p.Features, ", "))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(plansCmd)
}
