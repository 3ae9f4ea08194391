package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/utafrali/puros/internal/app"
	"github.com/utafrali/puros/migrations"
	"github.com/utafrali/puros/pkg/database"
)

func NewMigrateCommand() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded PostgreSQL migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				names, err := database.PendingMigrations(migrations.FS)
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}

			cfg, log, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			pool, err := app.OpenPostgres(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			log.Info("database migrations completed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "print the embedded migrations in apply order without connecting")

	return cmd
}
