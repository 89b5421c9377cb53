package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var (
	colorMuted  = lipgloss.AdaptiveColor{Light: "240", Dark: "243"}
	colorAccent = lipgloss.AdaptiveColor{Light: "27", Dark: "62"}

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

// writeOut renders v as JSON, or calls table for the table format.
func writeOut(cmd *cobra.Command, app *App, v any, tableFn func(w io.Writer) error) error {
	w := cmd.OutOrStdout()
	switch app.Format {
	case "json":
		enc := json.NewEncoder(w)
		if app.Pretty {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(v)
	case "table", "":
		return tableFn(w)
	default:
		return fmt.Errorf("unknown format %q (want table or json)", app.Format)
	}
}

// renderTable writes a bordered table with a styled header row.
func renderTable(w io.Writer, title string, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	if title != "" {
		if _, err := fmt.Fprintln(w, titleStyle.Render(title)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}
