package cli

import (
	"fmt"

	"github.com/felixgeelhaar/jobtrack/internal/jobs/application/queries"
	"github.com/spf13/cobra"
)

var (
	jobsOwner  string
	jobsStatus string
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect a user's job applications",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs, newest first",
	Example: `  jobtrack jobs list --owner user_2abc
  jobtrack jobs list --owner user_2abc --status interview`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		container, err := openContainer(ctx)
		if err != nil {
			return err
		}
		defer container.Close()

		jobs, err := container.ListJobsHandler.Handle(ctx, queries.ListJobsQuery{
			OwnerID: jobsOwner,
			Status:  jobsStatus,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, jobs)
		}
		if len(jobs) == 0 {
			fmt.Fprintln(out, "No jobs.")
			return nil
		}
		tw := newTable(out)
		fmt.Fprintln(tw, "ID\tCOMPANY\tROLE\tSTATUS\tSUBMITTED")
		for _, j := range jobs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", j.ID, j.CompanyName, j.Role, j.Status, orDash(j.DateSubmitted))
		}
		return tw.Flush()
	},
}

var jobsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count jobs per status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		container, err := openContainer(ctx)
		if err != nil {
			return err
		}
		defer container.Close()

		stats, err := container.GetJobStatsHandler.Handle(ctx, queries.GetJobStatsQuery{OwnerID: jobsOwner})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, stats)
		}
		tw := newTable(out)
		fmt.Fprintf(tw, "Total\t%d\n", stats.Total)
		fmt.Fprintf(tw, "Applied\t%d\n", stats.Applied)
		fmt.Fprintf(tw, "Interview\t%d\n", stats.Interview)
		fmt.Fprintf(tw, "Offer\t%d\n", stats.Offer)
		fmt.Fprintf(tw, "Rejected\t%d\n", stats.Rejected)
		fmt.Fprintf(tw, "Withdrawn\t%d\n", stats.Withdrawn)
		return tw.Flush()
	},
}

func init() {
	jobsCmd.PersistentFlags().StringVar(&jobsOwner, "owner", "", "owner (user) identifier")
	_ = jobsCmd.MarkPersistentFlagRequired("owner")
	jobsListCmd.Flags().StringVar(&jobsStatus, "status", "", "only jobs with this status")

	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsStatsCmd)
	rootCmd.AddCommand(jobsCmd)
}
