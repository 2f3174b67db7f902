// Package main implements the skyscope CLI.
//
// skyscope turns a free-text directive into an intelligence report
// (PDF or Markdown) and, optionally, a narrated briefing video.
//
// Usage:
//
//	skyscope                       # interactive prompt
//	skyscope run <directive...>    # one directive, then exit
//	skyscope <directive...>        # same as run
//	skyscope status                # provider availability
package main

import (
	"fmt"
	"os"
	"strings"

	"skyscope/internal/config"
	"skyscope/internal/logging"

	"github.com/spf13/cobra"
)

// cliFlags holds the persistent flags shared by every command.
type cliFlags struct {
	configPath string
	docsPath   string
	outDir     string
	format     string
	video      bool
	preview    bool
	verbose    bool
}

var (
	flags cliFlags

	// Resolved once in PersistentPreRunE.
	cfg   *config.Config
	avail config.Availability
)

var rootCmd = &cobra.Command{
	Use:   "skyscope",
	Short: "Skyscope - strategic intelligence pipeline",
	Long: `Skyscope plans a mission from a directive, gathers intelligence from the
web, video transcripts and a local document store, runs a critical analysis
and a strategic simulation, and publishes the result as a report and an
optional narrated briefing video.

Run without arguments for the interactive prompt. Words given directly
to skyscope are treated as a directive, the same as "skyscope run".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(flags, cmd.Flags().Changed)
		if err != nil {
			return err
		}
		if err := logging.Initialize(loggingOptions(loaded)); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		cfg = loaded
		avail = config.ResolveAvailability(cfg, nil)
		logging.Boot("configuration loaded (report=%s, video=%v, docs=%s)",
			cfg.Report.Format, cfg.Video.Enabled, cfg.Research.DocsPath)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return runOnce(cmd, args)
		}
		return runInteractive(cmd, args)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "skyscope.yaml", "Path to the YAML configuration file")
	pf.StringVar(&flags.docsPath, "docs", "", "Directory of local documents to ingest (default ./docs)")
	pf.StringVarP(&flags.outDir, "out", "o", "", "Directory for generated artifacts")
	pf.StringVar(&flags.format, "format", "", "Report format: pdf or md")
	pf.BoolVar(&flags.video, "video", false, "Also render a narrated briefing video")
	pf.BoolVar(&flags.preview, "preview", false, "Render the trajectory in the terminal after each run")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

// loadConfig reads .env, the YAML file and the environment, then applies
// the command-line flags that were explicitly set.
func loadConfig(f cliFlags, changed func(name string) bool) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	c, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	f.apply(c, changed)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

func (f cliFlags) apply(c *config.Config, changed func(name string) bool) {
	if changed("docs") {
		c.Research.DocsPath = f.docsPath
	}
	if changed("out") {
		c.Report.OutputDir = f.outDir
	}
	if changed("format") {
		c.Report.Format = strings.ToLower(strings.TrimPrefix(f.format, "."))
	}
	if changed("video") {
		c.Video.Enabled = f.video
	}
	if f.verbose {
		c.Logging.Level = "debug"
	}
}

func loggingOptions(c *config.Config) logging.Options {
	return logging.Options{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		Dir:        c.Logging.Dir,
		Audit:      c.Logging.Audit,
		Categories: c.Logging.Categories,
	}
}

// joinArgs joins command arguments into a single directive.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
