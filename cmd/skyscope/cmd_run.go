package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"skyscope/internal/logging"
	"skyscope/internal/orchestrator"

	"github.com/spf13/cobra"
)

// runCmd executes a single directive.
var runCmd = &cobra.Command{
	Use:   "run [directive]",
	Short: "Run one directive through the full pipeline",
	Long: `Processes a directive through every stage:
  1. Plan: decompose the directive into a mission blueprint
  2. Research: web pages, video transcripts and the local document store
  3. Analyze: critical assessment of the gathered intelligence
  4. Simulate: strategic trajectory toward the mission focus
  5. Publish: report document and optional briefing video`,
	Example: `  skyscope run assess https://example.com/announcement
  skyscope run --video --format md "state of small modular reactors"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOnce,
}

// runOnce runs the directive formed by args and returns its error.
func runOnce(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	printBanner(out)

	orch, closer, err := orchestrator.NewFromConfig(context.Background(), cfg, avail)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer closeQuietly(closer)

	_, err = runDirective(out, orch, joinArgs(args), flags.preview)
	return err
}

// pipeline is the part of the orchestrator the command layer drives.
type pipeline interface {
	Run(ctx context.Context, directive string) (*orchestrator.RunReport, error)
	SetObserver(orchestrator.Observer)
}

// runDirective runs one directive with SIGINT/SIGTERM bound to the run's
// context and prints the outcome. Panics below this point are recovered
// and returned as errors.
func runDirective(out io.Writer, p pipeline, directive string, preview bool) (report *orchestrator.RunReport, err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer func() {
		if r := recover(); r != nil {
			logging.PipelineError("run panicked: %v", r)
			report, err = nil, fmt.Errorf("internal error: %v", r)
		}
	}()

	p.SetObserver(newProgressPrinter(out))
	fmt.Fprintf(out, "%s %s\n\n", labelStyle.Render("DIRECTIVE"), directive)

	report, err = p.Run(ctx, directive)
	if report != nil {
		printSummary(out, report)
		if preview && err == nil {
			printPreview(out, report)
		}
	}
	if err != nil {
		if orchestrator.IsAbort(err) {
			fmt.Fprintln(out, warnStyle.Render("Mission aborted."))
		}
		return report, err
	}
	printFooter(out, report)
	return report, nil
}

func closeQuietly(closer func() error) {
	if closer == nil {
		return
	}
	if err := closer(); err != nil {
		logging.BootDebug("shutdown: %v", err)
	}
}
