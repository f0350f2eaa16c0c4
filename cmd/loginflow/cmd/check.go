package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nfrund/loginflow/internal/app"
	"github.com/nfrund/loginflow/internal/connectivity"
	"github.com/nfrund/loginflow/internal/login"
)

// errLoginFailed makes the process exit non-zero without extra output.
var errLoginFailed = errors.New("login failed")

var checkFlags struct {
	username string
	password string
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Attempt one headless login and print every state",
	Long: `Run the login flow once without a screen. Each published state is
printed as one JSON line; the password and token are never printed.
Exit status is 0 when the login succeeds and 1 otherwise.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := checkFlags.password
		if !cmd.Flags().Changed("password") {
			var err error
			password, err = promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
		}

		probe := connectivity.NewDialProbe(cfg.ProbeTarget,
			connectivity.WithInterval(cfg.ProbeInterval),
			connectivity.WithTimeout(cfg.ProbeTimeout),
		)
		probe.Check(cmd.Context())

		ok, err := runCheck(cmd.Context(), cmd.OutOrStdout(), checkFlags.username, password, app.Dependencies{Probe: probe})
		if err != nil {
			return err
		}
		if !ok {
			cmd.SilenceErrors = true
			return errLoginFailed
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkFlags.username, "username", "", "account name")
	checkCmd.Flags().StringVar(&checkFlags.password, "password", "", "password (prompted without echo when omitted)")
	_ = checkCmd.MarkFlagRequired("username")
	rootCmd.AddCommand(checkCmd)
}

// runCheck performs one login and writes each state to out. It reports
// whether the login succeeded.
func runCheck(ctx context.Context, out io.Writer, username, password string, deps app.Dependencies) (bool, error) {
	a, err := app.New(ctx, cfg, deps)
	if err != nil {
		return false, err
	}
	defer a.Close()

	ctrl := a.Controller
	sub := ctrl.Subscribe()
	defer sub.Unsubscribe()

	ctrl.SetUsername(username)
	ctrl.SetPassword(password)
	ctrl.Login()

	enc := json.NewEncoder(out)
	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case s, open := <-sub.C():
			if !open {
				return false, nil
			}
			if err := enc.Encode(login.NewStateEvent(s)); err != nil {
				return false, err
			}
			if s.NavigateHome {
				return true, nil
			}
			if !s.IsSubmitting && s.ErrorMessage != nil {
				return false, nil
			}
		}
	}
}

// promptPassword reads a password without echo from a terminal, or one
// line from in otherwise.
func promptPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
