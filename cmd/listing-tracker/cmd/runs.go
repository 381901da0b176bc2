package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func runsCmd() *cobra.Command {
	var (
		jobID string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show pipeline run history",
		Long:  "Lists recorded (job, provider) pipeline runs from the API server, newest first.",
		Example: `  listing-tracker runs
  listing-tracker runs --job berlin-flats --limit 5 --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runs, err := newClient().ListRuns(cmd.Context(), jobID, limit)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(runs)
			}
			if len(runs) == 0 {
				fmt.Println("No runs found.")
				return nil
			}
			return printRunsTable(runs)
		},
	}

	cmd.Flags().StringVar(&jobID, "job", "", "only show runs of this job")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")

	return cmd
}
