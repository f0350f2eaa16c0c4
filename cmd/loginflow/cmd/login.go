package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nfrund/loginflow/internal/app"
	"github.com/nfrund/loginflow/internal/logging"
	"github.com/nfrund/loginflow/internal/navigation"
	"github.com/nfrund/loginflow/internal/tui"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Show the interactive login screen",
	Long: `Show a terminal login form backed by AUTH_URL. Logs go to LOG_FILE
so they never draw over the screen.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := logOutput(cfg.LogFile)
		if err != nil {
			return err
		}
		defer out.Close()
		logger := logging.New(out, cfg.LogFormat, cfg.LogLevel)

		a, err := app.New(cmd.Context(), cfg, app.Dependencies{
			Logger: logger,
			Navigate: func(_ context.Context, to navigation.Destination) {
				slog.Info("Navigation requested", "to", to)
			},
		})
		if err != nil {
			return err
		}
		defer a.Close()

		return tui.Run(a.Controller, tui.Options{RefreshInterval: cfg.ProbeInterval})
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
