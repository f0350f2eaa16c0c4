package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nfrund/loginflow/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the development auth server",
	Long: `Serve POST /api/login, GET /healthz and GET /metrics on SERVER_ADDR.
Users come from SERVER_USERS as name:password pairs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := server.New(cfg.Server)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return s.Start(ctx, cfg.Server.Addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
