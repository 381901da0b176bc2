package cmd

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/donaldgifford/listing-tracker/internal/pipeline"
)

// errSweepLocked is returned when another process holds the sweep lock.
var errSweepLocked = errors.New("another sweep is already running")

func runCmd() *cobra.Command {
	var (
		lockFile string
		jobID    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every enabled job once and exit",
		Long: "Runs one sweep in the foreground without starting the API server. A file\n" +
			"lock keeps overlapping invocations, e.g. from cron, from running together.",
		Example: `  listing-tracker run
  listing-tracker run --job berlin-flats
  listing-tracker run --lock-file /var/run/listing-tracker.lock --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			lock := flock.New(lockFile)
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquiring lock %s: %w", lockFile, err)
			}
			if !locked {
				return fmt.Errorf("%w (lock %s)", errSweepLocked, lockFile)
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					log.Warn("releasing sweep lock", "error", err)
				}
			}()

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			var results []pipeline.Result
			if jobID != "" {
				results, err = a.engine.RunJob(ctx, jobID)
			} else {
				results, err = a.engine.RunAll(ctx)
			}
			if err != nil {
				return err
			}

			return printRunResults(toRunResults(results))
		},
	}

	cmd.Flags().StringVar(&lockFile, "lock-file", "listing-tracker.lock", "file lock guarding against concurrent sweeps")
	cmd.Flags().StringVar(&jobID, "job", "", "run only this job")

	return cmd
}
