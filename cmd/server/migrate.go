package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcarvalho-pb/payment_checkout-go/internal/infra/config"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infrastructure/persistence/postgres"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infrastructure/persistence/sqlite"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the payment and outbox tables in the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			switch cfg.Storage.Driver {
			case "sqlite":
				db, err := sqlite.Open(cfg.Storage.DSN)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := sqlite.RunMigrations(db); err != nil {
					return fmt.Errorf("run migrations: %w", err)
				}
			case "postgres":
				db, err := postgres.Open(cmd.Context(), cfg.Storage.DSN)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := postgres.RunMigrations(cmd.Context(), db); err != nil {
					return err
				}
			default:
				return fmt.Errorf("nothing to migrate for the %q driver", cfg.Storage.Driver)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", cfg.Storage.Driver)
			return nil
		},
	}
}
