package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/utafrali/puros/internal/config"
	"github.com/utafrali/puros/pkg/logger"
)

// VersionInfo identifies the build.
type VersionInfo struct {
	Version string
	Commit  string
}

type globalFlags struct {
	logLevel string
}

var flags globalFlags

func NewRootCommand(info VersionInfo) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "puros",
		Short:         "Puros cigar review API",
		Long:          "Puros serves the cigar review feed, likes, comments, follows and follower notifications over HTTP.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")

	cmd.Version = fmt.Sprintf("%s.%s", info.Version, info.Commit)

	return cmd
}

// loadConfig reads the environment and builds the service logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}

	log := logger.NewWithOptions(logger.Options{
		Service:    "puros",
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		Compress:   true,
	})
	slog.SetDefault(log)
	return cfg, log, nil
}
