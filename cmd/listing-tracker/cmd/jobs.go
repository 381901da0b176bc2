package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/listing-tracker/internal/config"
	"github.com/donaldgifford/listing-tracker/internal/store/sqlite"
	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// jobsFile is the document read by "jobs import" and written by
// "jobs export".
type jobsFile struct {
	Jobs []domain.Job `yaml:"jobs"`
}

func jobsCmd() *cobra.Command {
	jobsRoot := &cobra.Command{
		Use:   "jobs",
		Short: "Manage job definitions in the local job store",
		Long: "Jobs live in the sqlite database at jobstore.path. These commands open it\n" +
			"directly; use the API (PUT /api/v1/jobs/{id}) to change jobs on a running server.",
	}

	jobsRoot.AddCommand(
		jobsListCmd(),
		jobsImportCmd(),
		jobsExportCmd(),
		jobsDeleteCmd(),
	)

	return jobsRoot
}

// withJobStore opens the configured job store for the duration of fn.
func withJobStore(ctx context.Context, fn func(*config.Config, *sqlite.JobStore) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	newLogger(cfg)

	js, err := sqlite.Open(ctx, cfg.JobStore.Path)
	if err != nil {
		return fmt.Errorf("opening job store: %w", err)
	}
	defer js.Close() //nolint:errcheck // read-mostly, nothing to flush

	return fn(cfg, js)
}

func jobsListCmd() *cobra.Command {
	var enabledOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored jobs",
		Example: `  listing-tracker jobs list
  listing-tracker jobs list --enabled --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withJobStore(cmd.Context(), func(_ *config.Config, js *sqlite.JobStore) error {
				jobs, err := js.ListJobs(cmd.Context(), enabledOnly)
				if err != nil {
					return err
				}
				if jsonOutput() {
					return outputJSON(jobs)
				}
				if len(jobs) == 0 {
					fmt.Println("No jobs found.")
					return nil
				}
				return printJobsTable(jobs)
			})
		},
	}

	cmd.Flags().BoolVar(&enabledOnly, "enabled", false, "only list enabled jobs")
	return cmd
}

func jobsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Create or replace jobs from a YAML file",
		Long: "Reads a YAML document with a top-level jobs list and saves every job.\n" +
			"Jobs are replaced by ID. Nothing is saved if any job is invalid or names\n" +
			"a provider that is not configured.",
		Args:    cobra.ExactArgs(1),
		Example: `  listing-tracker jobs import jobs.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading jobs file: %w", err)
			}

			return withJobStore(cmd.Context(), func(cfg *config.Config, js *sqlite.JobStore) error {
				jobs, err := parseJobsFile(data, cfg.ProviderIDs())
				if err != nil {
					return err
				}
				for i := range jobs {
					if err := js.SaveJob(cmd.Context(), &jobs[i]); err != nil {
						return fmt.Errorf("saving job %s: %w", jobs[i].ID, err)
					}
				}
				fmt.Printf("Imported %d job(s).\n", len(jobs))
				return nil
			})
		},
	}
}

func jobsExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write every stored job as YAML to stdout",
		Example: `  listing-tracker jobs export > jobs.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withJobStore(cmd.Context(), func(_ *config.Config, js *sqlite.JobStore) error {
				jobs, err := js.ListJobs(cmd.Context(), false)
				if err != nil {
					return err
				}
				enc := yaml.NewEncoder(os.Stdout)
				enc.SetIndent(2)
				if err := enc.Encode(jobsFile{Jobs: jobs}); err != nil {
					return fmt.Errorf("encoding jobs: %w", err)
				}
				return enc.Close()
			})
		},
	}
}

func jobsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJobStore(cmd.Context(), func(_ *config.Config, js *sqlite.JobStore) error {
				if err := js.DeleteJob(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Printf("Job %s deleted.\n", args[0])
				return nil
			})
		},
	}
}

// parseJobsFile decodes and validates a jobs document. Every job must only
// reference providers in knownProviders.
func parseJobsFile(data []byte, knownProviders []string) ([]domain.Job, error) {
	var doc jobsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing jobs file: %w", err)
	}
	if len(doc.Jobs) == 0 {
		return nil, errors.New("jobs file contains no jobs")
	}

	known := make(map[string]bool, len(knownProviders))
	for _, id := range knownProviders {
		known[id] = true
	}

	var errs []error
	seen := make(map[string]bool, len(doc.Jobs))
	for i := range doc.Jobs {
		job := &doc.Jobs[i]
		if err := job.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[job.ID] {
			errs = append(errs, fmt.Errorf("duplicate job id %q", job.ID))
		}
		seen[job.ID] = true
		for _, p := range job.Providers {
			if !known[p.ID] {
				errs = append(errs, fmt.Errorf("job %s: unknown provider %q", job.ID, p.ID))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return doc.Jobs, nil
}
