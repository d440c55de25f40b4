package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"go.pilab.hu/authbridge/config"
	"go.pilab.hu/authbridge/log"
)

var (
	cfg       *config.Config
	appLogger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "authctl",
	Short: "authctl is a debug utility for the authbridge session store",
	Long: `A command-line utility for inspecting and resetting the persisted
backend session pair, and for running the stub backend used in
emulator-mode development.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		appLogger = log.New(cfg.LogLevel, cfg.LogPretty)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
