package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"skyscope/internal/fallback"
	"skyscope/internal/orchestrator"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

var (
	accent = lipgloss.Color("#00b4d8")
	muted  = lipgloss.Color("#6c757d")

	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#03045e")).
			Bold(true).
			Padding(0, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().Foreground(muted)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#2a9d8f")).
		Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e9c46a")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e63946")).
			Bold(true)
)

func printBanner(out io.Writer) {
	fmt.Fprintln(out, bannerStyle.Render("SKYSCOPE SENTINEL  //  STRATEGIC INTELLIGENCE"))
	fmt.Fprintln(out)
}

// newProgressPrinter prints one line per stage start and finish.
func newProgressPrinter(out io.Writer) orchestrator.Observer {
	index := make(map[orchestrator.Stage]int, len(orchestrator.Stages))
	for i, s := range orchestrator.Stages {
		index[s] = i + 1
	}
	total := len(orchestrator.Stages)

	return orchestrator.ObserverFunc(func(e orchestrator.StageEvent) {
		step := fmt.Sprintf("[%d/%d]", index[e.Stage], total)
		name := strings.ToUpper(string(e.Stage))
		switch {
		case !e.Done:
			fmt.Fprintf(out, "%s %s %s\n", mutedStyle.Render(step), labelStyle.Render(name), mutedStyle.Render("..."))
		case e.Err != nil:
			fmt.Fprintf(out, "%s %s %s %v\n", mutedStyle.Render(step), errorStyle.Render(name), errorStyle.Render("failed:"), e.Err)
		default:
			fmt.Fprintf(out, "%s %s %s %s\n", mutedStyle.Render(step), okStyle.Render(name),
				mutedStyle.Render("("+e.Duration.Round(time.Millisecond).String()+")"), e.Detail)
		}
	})
}

// printSummary prints the provider attempts and the artifacts of a run.
func printSummary(out io.Writer, report *orchestrator.RunReport) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("MISSION"), report.Blueprint.MissionName)
	fmt.Fprintf(out, "%s %d item(s)\n", labelStyle.Render("INTELLIGENCE"), len(report.Research))
	if len(report.Attempts) > 0 {
		fmt.Fprintln(out, attemptsTable(report.Attempts))
	}
	if report.Artifacts.Document.Path != "" {
		fmt.Fprintln(out, labelStyle.Render("ARTIFACTS"))
		for _, a := range report.Artifacts.List() {
			fmt.Fprintf(out, "  %-8s %s\n", a.Kind, a.Path)
		}
	}
}

func attemptsTable(attempts []fallback.Attempt) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle("Provider attempts")
	t.AppendHeader(table.Row{"Chain", "Provider", "Outcome", "Duration", "Reason"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, WidthMax: 60},
	})
	for _, a := range attempts {
		dur := ""
		if a.Outcome != fallback.OutcomeSkipped {
			dur = a.Duration.Round(time.Millisecond).String()
		}
		t.AppendRow(table.Row{a.Chain, a.Provider, string(a.Outcome), dur, a.Reason})
	}
	return t.Render()
}

// printPreview renders the trajectory as markdown in the terminal.
func printPreview(out io.Writer, report *orchestrator.RunReport) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Fprintln(out, string(report.Trajectory))
		return
	}
	rendered, err := r.Render(string(report.Trajectory))
	if err != nil {
		fmt.Fprintln(out, string(report.Trajectory))
		return
	}
	fmt.Fprintln(out, rendered)
}

func printFooter(out io.Writer, report *orchestrator.RunReport) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s %s\n", okStyle.Render("Mission Complete."),
		mutedStyle.Render(fmt.Sprintf("run %s in %s", report.RunID, report.Duration.Round(time.Millisecond))))
}
