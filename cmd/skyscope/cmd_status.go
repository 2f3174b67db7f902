package main

import (
	"fmt"
	"io"

	"skyscope/internal/config"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// statusCmd prints resolved provider availability.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which providers are configured",
	Long: `Resolves provider availability from the configuration and environment,
exactly as a run would, and prints it. No provider is contacted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printStatus(cmd.OutOrStdout(), cfg, avail)
		return nil
	},
}

func printStatus(out io.Writer, c *config.Config, a config.Availability) {
	fmt.Fprintln(out, statusTable(a.Rows()))
	fmt.Fprintf(out, "\nReport format: %s   Output: %s   Video: %v\n",
		c.Report.Format, c.Report.OutputDir, c.Video.Enabled)
	if !a.CompletionAvailable() {
		fmt.Fprintln(out, warnStyle.Render("No completion provider is configured; runs will use degraded output."))
	}
}

func statusTable(rows []config.Row) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Capability", "Provider", "Status", "Reason"})
	for _, r := range rows {
		state := "ready"
		if !r.Status.Available {
			state = "unavailable"
		}
		t.AppendRow(table.Row{r.Capability, r.Provider, state, r.Status.Reason})
	}
	return t.Render()
}
