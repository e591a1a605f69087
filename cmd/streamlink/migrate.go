package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/streamlink/internal/adapters/driven/postgres"
	"github.com/custodia-labs/streamlink/internal/config"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long:  `Applies the embedded PostgreSQL migrations and prints the resulting schema version. Only DATABASE_URL is required.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadUnvalidated()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := postgres.Connect(ctx, postgres.DefaultConfig(cfg.DatabaseURL))
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()

			if err := db.Migrate(ctx); err != nil {
				return err
			}
			v, err := db.MigrationVersion(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "database at migration version %d\n", v)
			return nil
		},
	}
}
