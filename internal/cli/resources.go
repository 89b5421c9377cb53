package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/smartqpanel/internal/application"
)

var resourceNames = []string{"inventory", "categories", "outlets", "sales", "purchases", "users"}

func newListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "list <resource>",
		Short:     "List a back office collection",
		Long:      "List a back office collection: " + strings.Join(resourceNames, ", ") + ".",
		Args:      cobra.ExactArgs(1),
		ValidArgs: resourceNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, app, func(ctx context.Context, b *Backend) error {
				page, ok := b.Catalog.Page(args[0])
				if !ok {
					return fmt.Errorf("unknown resource %q (want one of %s)", args[0], strings.Join(pageNames(b.Catalog), ", "))
				}
				if err := page.Load(ctx); err != nil {
					return err
				}
				t := page.Table()

				return writeOut(cmd, app, tableRecords(t), func(w io.Writer) error {
					if t.Empty() {
						_, err := fmt.Fprintf(w, "No %s.\n", strings.ToLower(t.Title))
						return err
					}
					headers := make([]string, 0, len(t.Columns)+1)
					headers = append(headers, "ID")
					for _, c := range t.Columns {
						headers = append(headers, c.Label)
					}
					rows := make([][]string, 0, len(t.Rows))
					for _, r := range t.Rows {
						row := make([]string, 0, len(r.Cells)+1)
						row = append(row, strconv.FormatInt(r.ID, 10))
						for _, c := range r.Cells {
							row = append(row, c.Display)
						}
						rows = append(rows, row)
					}
					return renderTable(w, t.Title, headers, rows)
				})
			})
		},
	}
}

// tableRecords flattens a table to one display map per row for JSON output.
func tableRecords(t application.Table) []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		rec := make(map[string]string, len(r.Cells)+1)
		rec["id"] = strconv.FormatInt(r.ID, 10)
		for _, c := range r.Cells {
			rec[c.Key] = c.Display
		}
		out = append(out, rec)
	}
	return out
}

func pageNames(c *application.Catalog) []string {
	names := make([]string, 0, len(c.Pages()))
	for _, p := range c.Pages() {
		names = append(names, p.Name())
	}
	sort.Strings(names)
	return names
}

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard figures and items that need restocking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, app, func(ctx context.Context, b *Backend) error {
				d, err := b.Dashboard.Load(ctx)
				if err != nil {
					return err
				}

				return writeOut(cmd, app, d, func(w io.Writer) error {
					s := d.Stats
					if err := renderTable(w, "Dashboard", []string{"Figure", "Value"}, [][]string{
						{"Total Items", strconv.Itoa(s.TotalInventoryItems)},
						{"Today's Sales", s.TodaySales},
						{"Low Stock", strconv.Itoa(s.LowStockItems)},
						{"Out of Stock", strconv.Itoa(s.OutOfStockItems)},
					}); err != nil {
						return err
					}
					if len(d.LowStock) == 0 {
						_, err := fmt.Fprintln(w, "All items are above their minimum quantity.")
						return err
					}
					rows := make([][]string, 0, len(d.LowStock))
					for _, i := range d.LowStock {
						rows = append(rows, []string{
							i.Name,
							strconv.Itoa(i.Quantity) + " " + i.Unit,
							strconv.Itoa(i.MinQuantity),
							application.StockStatus(i),
						})
					}
					return renderTable(w, "Low stock", []string{"Item", "Quantity", "Minimum", "Status"}, rows)
				})
			})
		},
	}
}
