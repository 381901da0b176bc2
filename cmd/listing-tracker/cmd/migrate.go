package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			if !cfg.Database.Enabled() {
				return errors.New("no database configured (database.host is empty)")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			st, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()

			log.Info("running migrations", "host", cfg.Database.Host)
			if err := st.Migrate(ctx); err != nil {
				return err
			}

			log.Info("migrations complete")
			return nil
		},
	}
}
