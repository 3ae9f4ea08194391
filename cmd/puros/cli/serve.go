package cli

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/utafrali/puros/internal/app"
)

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Puros HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log.Info("starting puros",
				slog.String("environment", cfg.Environment),
				slog.Int("http_port", cfg.HTTPPort),
				slog.String("storage", cfg.StorageDriver),
			)

			// Create the application with all dependencies wired.
			application, err := app.NewApp(cfg, log)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			// Create a context that is canceled on SIGINT or SIGTERM.
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := application.Run(ctx); err != nil {
				return fmt.Errorf("application error: %w", err)
			}

			log.Info("puros stopped")
			return nil
		},
	}
}

