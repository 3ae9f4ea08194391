package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/utafrali/puros/pkg/middleware"
)

// NewTokenCommand signs a development access token with AUTH_JWT_SECRET.
func NewTokenCommand() *cobra.Command {
	var (
		subject string
		email   string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a development access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.IsProduction() {
				return fmt.Errorf("refusing to sign tokens in production")
			}

			tok, err := middleware.NewJWTVerifier(cfg.JWTSecret, cfg.JWTAudience).
				Sign(middleware.Viewer{ID: subject, Email: email}, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "sub", "", "viewer id (token subject)")
	cmd.Flags().StringVar(&email, "email", "", "viewer email")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("sub")

	return cmd
}
