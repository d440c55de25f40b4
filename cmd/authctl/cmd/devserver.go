package cmd

import (
	"github.com/spf13/cobra"

	"go.pilab.hu/authbridge/internal/devserver"
)

var (
	devserverAddr   string
	devserverSecret string
)

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run the stub backend for emulator-mode development",
	RunE: func(*cobra.Command, []string) error {
		srv := devserver.New(devserverSecret, appLogger)
		appLogger.Info().Str("addr", devserverAddr).Msg("devserver listening")
		return srv.Start(devserverAddr)
	},
}

func init() {
	devserverCmd.Flags().StringVar(&devserverAddr, "addr", ":8080", "listen address")
	devserverCmd.Flags().StringVar(&devserverSecret, "secret", "dev-secret", "HS256 signing secret for minted session tokens")
	rootCmd.AddCommand(devserverCmd)
}
