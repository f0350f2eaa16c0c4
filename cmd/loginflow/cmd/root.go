package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nfrund/loginflow/internal/config"
	"github.com/nfrund/loginflow/internal/logging"
)

// cfg is loaded once before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "loginflow",
	Short: "Login screen, headless login check and development auth server",
	Long: `loginflow drives a login form against an auth server.

Configuration is read from ./.env and the environment (AUTH_URL,
PROBE_TARGET, LOG_LEVEL, SERVER_USERS, ...).

Use "loginflow [command] --help" for more information about a command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.New()
		if err != nil {
			return err
		}
		logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
		return nil
	},
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// logOutput opens LOG_FILE for appending, or discards logs when unset.
func logOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{io.Discard}, nil
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
