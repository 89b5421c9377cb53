// Package cli implements smartqctl, the operator command line for the
// SmartQ back office.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/smartqpanel/internal/domain/port/driven"
)

// App carries the persistent flags and the backend opener.
type App struct {
	Format string
	Pretty bool

	open func(ctx context.Context) (*Backend, error)
}

// NewRootCmd builds the smartqctl command tree over the configured
// database and upstream API.
func NewRootCmd() *cobra.Command {
	return newRootCmd(openBackend)
}

func newRootCmd(open func(ctx context.Context) (*Backend, error)) *cobra.Command {
	app := &App{open: open}

	cmd := &cobra.Command{
		Use:          "smartqctl",
		Short:        "SmartQ back office from the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Sign in (the password is read from stdin)
  echo "$PASSWORD" | smartqctl login -u manager1 --password-stdin

  # Show stock levels
  smartqctl list inventory

  # Dashboard figures as JSON
  smartqctl stats --format json
`),
	}

	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("SMARTQ_FORMAT", "table"), "Output format (table|json)")
	cmd.PersistentFlags().BoolVar(&app.Pretty, "pretty", false, "Pretty-print JSON output")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newStatsCmd(app))

	return cmd
}

// withBackend opens the backend for the duration of fn.
func withBackend(cmd *cobra.Command, app *App, fn func(ctx context.Context, b *Backend) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := app.open(ctx)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer func() { _ = b.Close() }()

	if err := fn(ctx, b); err != nil {
		return writeErr(cmd, err)
	}
	return nil
}

var errNotSignedIn = errors.New("not signed in; run `smartqctl login`")

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeErr(cmd *cobra.Command, err error) error {
	if driven.IsSessionExpired(err) {
		err = fmt.Errorf("%w; run `smartqctl login`", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
