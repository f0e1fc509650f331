// Command crmlite runs the CRM API server and its maintenance tasks.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Strob0t/crmlite/internal/config"
	"github.com/Strob0t/crmlite/internal/logger"
)

// cli carries state shared by every subcommand.
type cli struct {
	configPath string
	cfg        *config.Config
	closeLog   logger.Closer
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "crmlite",
		Short:         "CRM backend with AI sales strategies",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.LoadFrom(c.configPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			c.cfg = cfg

			log, closer := logger.New(cfg.Logging)
			slog.SetDefault(log)
			c.closeLog = closer
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if c.closeLog != nil {
				c.closeLog.Close()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", config.DefaultConfigFile, "path to the YAML config file")

	root.AddCommand(
		newServeCmd(c),
		newMigrateCmd(c),
		newSeedCmd(c),
		newStrategyCmd(c),
		newEventsCmd(c),
	)
	return root
}
