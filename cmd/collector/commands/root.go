package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rickgao/active-strike/internal/config"
	"github.com/rickgao/active-strike/internal/slogx"
	"github.com/rickgao/active-strike/internal/version"
)

var (
	configPath string

	cfg    *config.CollectorConfig
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "collector",
	Short:         "collector captures a dashboard session and records active-strike data every 5 minutes.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd {
			return nil
		}

		loaded, err := config.LoadAndValidate(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		logger = slogx.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
		slog.SetDefault(logger)

		logger.Debug("configuration loaded",
			"config", configPath,
			"version", version.Version,
			"asset", cfg.Market.Asset,
			"storage", cfg.Storage.Path,
		)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to a YAML config file (built-in defaults when empty)")
}

// ExecuteContext runs the CLI and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger != nil {
			logger.Error("collector failed", "error", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	return 0
}
