package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/teemow/gmail-mcp/internal/google"
	"github.com/teemow/gmail-mcp/internal/logging"
)

func newAuthCmd() *cobra.Command {
	var debugMode bool

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored Gmail authorization",
		Long: `Manage the OAuth credential kept in the system keyring.

  login   runs the browser consent flow, or reuses a working stored token
  status  shows the stored account, scopes and token expiry (offline)
  logout  removes the stored credential`,
	}
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	newAuthDeps := func() (*deps, error) {
		logger, _, err := logging.Setup(logging.Options{Debug: debugMode})
		if err != nil {
			return nil, err
		}
		return loadDeps(logger, nil)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "login",
			Short: "Authorize gmail-mcp to access your mailbox",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := newAuthDeps()
				if err != nil {
					return err
				}
				email, err := d.authenticator().Authenticate(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Authenticated as %s\n", email)
				return err
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the stored authorization",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := newAuthDeps()
				if err != nil {
					return err
				}
				return printAuthStatus(cmd.OutOrStdout(), d.authenticator())
			},
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Remove the stored authorization",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := newAuthDeps()
				if err != nil {
					return err
				}
				account, err := d.authenticator().Logout()
				if errors.Is(err, google.ErrNoCredential) {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), "Not authenticated.")
					return err
				}
				if err != nil {
					return err
				}
				d.logger.Debug("credential erased", logging.UserHash(account))
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Logged out %s\n", account)
				return err
			},
		},
	)
	return cmd
}

func printAuthStatus(w io.Writer, auth *google.Authenticator) error {
	cred, err := auth.Status()
	switch {
	case errors.Is(err, google.ErrNoCredential):
		_, err = fmt.Fprintln(w, "Not authenticated.")
		return err
	case errors.Is(err, google.ErrInvalidCredential):
		_, err = fmt.Fprintf(w, "Stored credential is not usable (%v). Run \"gmail-mcp auth login\".\n", err)
		return err
	case err != nil:
		return err
	}

	expiry := "never"
	if !cred.Expiry.IsZero() {
		expiry = fmt.Sprintf("%s (%s)", cred.Expiry.Local().Format("2006-01-02 15:04:05"), humanize.Time(cred.Expiry))
	}
	refresh := "no"
	if cred.RefreshToken != "" {
		refresh = "yes"
	}
	slog.Debug("auth status", logging.UserHash(cred.Account))

	_, err = fmt.Fprintf(w, "Account:       %s\nScopes:        %s\nToken expiry:  %s\nRefresh token: %s\n",
		cred.Account, strings.Join(cred.Scopes, " "), expiry, refresh)
	return err
}
