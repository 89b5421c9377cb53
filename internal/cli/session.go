package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newLoginCmd(app *App) *cobra.Command {
	var (
		username      string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password := envOr("SMARTQ_PASSWORD", "")
			if passwordStdin {
				p, err := readLine(cmd.InOrStdin())
				if err != nil {
					return writeErr(cmd, fmt.Errorf("read password: %w", err))
				}
				password = p
			}
			if username == "" {
				return writeErr(cmd, errors.New("--username is required"))
			}

			return withBackend(cmd, app, func(ctx context.Context, b *Backend) error {
				profile, err := b.Session.Login(ctx, username, password)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, profile, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Signed in as %s (%s)\n", profile.DisplayName(), profile.Role)
					return err
				})
			})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", envOr("SMARTQ_USERNAME", ""), "Username")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, app, func(ctx context.Context, b *Backend) error {
				b.Session.Logout(ctx)
				return writeOut(cmd, app, map[string]any{"signed_in": false}, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, "Signed out")
					return err
				})
			})
		},
	}
}

type whoami struct {
	Username        string `json:"username"`
	DisplayName     string `json:"display_name"`
	Role            string `json:"role"`
	State           string `json:"state"`
	AccessExpiresAt string `json:"access_expires_at,omitempty"`
	Durable         bool   `json:"durable"`
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, app, func(_ context.Context, b *Backend) error {
				info := b.Session.Current()
				if !info.SignedIn() {
					return errNotSignedIn
				}

				out := whoami{
					Username:    info.Profile.Username,
					DisplayName: info.Profile.DisplayName(),
					Role:        string(info.Profile.Role),
					State:       string(info.State),
					Durable:     info.Durable,
				}
				if !info.AccessExpiresAt.IsZero() {
					out.AccessExpiresAt = info.AccessExpiresAt.Format(time.RFC3339)
				}

				return writeOut(cmd, app, out, func(w io.Writer) error {
					rows := [][]string{
						{"Username", out.Username},
						{"Name", out.DisplayName},
						{"Role", out.Role},
						{"Session", out.State},
						{"Remembered", fmt.Sprint(out.Durable)},
					}
					if out.AccessExpiresAt != "" {
						rows = append(rows, []string{"Access expires", out.AccessExpiresAt})
					}
					return renderTable(w, "", []string{"Field", "Value"}, rows)
				})
			})
		},
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
