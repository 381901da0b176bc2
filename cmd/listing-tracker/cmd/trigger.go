package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	apiclient "github.com/donaldgifford/listing-tracker/internal/api/client"
)

func triggerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trigger [job-id]",
		Short: "Trigger a run on a running server",
		Long: "Asks the API server to run every enabled job, or only the named job, and\n" +
			"prints the outcome of each (job, provider) pipeline.",
		Args: cobra.MaximumNArgs(1),
		Example: `  listing-tracker trigger
  listing-tracker trigger berlin-flats --server http://tracker:8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()

			var (
				results []apiclient.RunResult
				err     error
			)
			if len(args) == 1 {
				results, err = c.RunJob(cmd.Context(), args[0])
				if apiclient.IsNotFound(err) {
					return fmt.Errorf("job %q not found", args[0])
				}
			} else {
				results, err = c.RunAll(cmd.Context())
			}
			if err != nil {
				return err
			}

			return printRunResults(results)
		},
	}
}
