package main

import (
	"github.com/spf13/cobra"

	"orbitlend-backend/internal/infrastructure/db"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(false)
			if err != nil {
				return err
			}
			defer a.close()

			if err := db.Migrate(a.db); err != nil {
				return err
			}
			a.log.Info("schema migrated", "driver", a.cfg.DBDriver)
			return nil
		},
	}
}
