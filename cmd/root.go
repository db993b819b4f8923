package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvali/chronotap/internal/config"
	"github.com/nvali/chronotap/internal/logger"
	"github.com/nvali/chronotap/internal/store"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "chronotap",
	Short: "Track where your working hours actually go, per project, branch, and language",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Configure(logger.LevelFromEnv(), true)

		// Load and merge config files.
		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject()
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)
		return nil
	},
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// openStore builds the day-record store from the merged configuration.
func openStore() (*store.Store, error) {
	dir, err := cfg.ResolveDataDir()
	if err != nil {
		return nil, err
	}
	return store.New(dir, cfg.DebounceInterval(), time.Local)
}
