package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	apiclient "github.com/donaldgifford/listing-tracker/internal/api/client"
)

func listingsCmd() *cobra.Command {
	var params apiclient.ListListingsParams

	cmd := &cobra.Command{
		Use:   "listings",
		Short: "Query stored listings",
		Long:  "Lists listings the server has stored, newest first, with optional job and provider filters.",
		Example: `  listing-tracker listings --job berlin-flats
  listing-tracker listings --provider example --limit 20 --offset 40`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := newClient().ListListings(cmd.Context(), &params)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(resp)
			}
			if len(resp.Listings) == 0 {
				fmt.Println("No listings found.")
				return nil
			}
			if err := printListingsTable(resp.Listings); err != nil {
				return err
			}
			fmt.Printf("\nShowing %d of %d listings (offset %d)\n", len(resp.Listings), resp.Total, resp.Offset)
			return nil
		},
	}

	cmd.Flags().StringVar(&params.JobID, "job", "", "filter by job ID")
	cmd.Flags().StringVar(&params.ProviderID, "provider", "", "filter by provider ID")
	cmd.Flags().IntVar(&params.Limit, "limit", 50, "maximum number of listings")
	cmd.Flags().IntVar(&params.Offset, "offset", 0, "pagination offset")

	return cmd
}
