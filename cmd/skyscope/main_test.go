package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"skyscope/internal/config"
	"skyscope/internal/fallback"
	"skyscope/internal/orchestrator"
	"skyscope/internal/types"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinArgs(t *testing.T) {
	assert.Equal(t, "assess the market", joinArgs([]string{"assess", "the", "market"}))
	assert.Equal(t, "", joinArgs(nil))
}

func TestFlagsApplyOnlyWhenChanged(t *testing.T) {
	c := config.DefaultConfig()
	f := cliFlags{docsPath: "/intel", outDir: "/out", format: ".MD", video: true, verbose: true}

	f.apply(c, func(name string) bool { return name == "format" || name == "video" })

	assert.Equal(t, "./docs", c.Research.DocsPath)
	assert.Equal(t, ".", c.Report.OutputDir)
	assert.Equal(t, config.ReportMarkdown, c.Report.Format)
	assert.True(t, c.Video.Enabled)
	assert.Equal(t, "debug", c.Logging.Level)
}

func TestLoadConfigValidatesFlags(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "none.yaml")

	c, err := loadConfig(cliFlags{configPath: missing, docsPath: "intel"}, func(name string) bool { return name == "docs" })
	require.NoError(t, err)
	assert.Equal(t, "intel", c.Research.DocsPath)

	_, err = loadConfig(cliFlags{configPath: missing, format: "docx"}, func(name string) bool { return name == "format" })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report.format")
}

func enter(m promptModel) (promptModel, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(promptModel), cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestPromptEmptyInputReprompts(t *testing.T) {
	m := newPromptModel()
	m.input.SetValue("   ")

	m, cmd := enter(m)
	assert.False(t, isQuit(cmd))
	assert.False(t, m.quit)
	assert.Empty(t, m.directive)
	assert.NotEmpty(t, m.View())
}

func TestPromptExitCommands(t *testing.T) {
	for _, word := range []string{"exit", "QUIT", " Exit "} {
		m := newPromptModel()
		m.input.SetValue(word)
		m, cmd := enter(m)
		assert.True(t, isQuit(cmd), word)
		assert.True(t, m.quit, word)
	}

	next, cmd := newPromptModel().Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, isQuit(cmd))
	assert.True(t, next.(promptModel).quit)
}

func TestPromptAcceptsDirective(t *testing.T) {
	m := newPromptModel()
	m.input.SetValue("  map the drone supply chain ")

	m, cmd := enter(m)
	assert.True(t, isQuit(cmd))
	assert.False(t, m.quit)
	assert.Equal(t, "map the drone supply chain", m.directive)
	assert.Empty(t, m.input.Value())
}

type fakePipeline struct {
	runs     []string
	fail     map[string]error
	panicOn  string
	observer orchestrator.Observer
}

func (f *fakePipeline) SetObserver(o orchestrator.Observer) { f.observer = o }

func (f *fakePipeline) Run(ctx context.Context, directive string) (*orchestrator.RunReport, error) {
	f.runs = append(f.runs, directive)
	if directive == f.panicOn {
		panic("boom")
	}
	f.observer.OnStage(orchestrator.StageEvent{Stage: orchestrator.StagePlan})
	f.observer.OnStage(orchestrator.StageEvent{Stage: orchestrator.StagePlan, Done: true, Duration: time.Second, Detail: "blueprint"})

	report := &orchestrator.RunReport{
		RunID:     "run-1",
		Directive: directive,
		Blueprint: types.DefaultBlueprint(directive),
		Research:  types.ResearchResult{{Source: types.DegradedSource, Content: "none"}},
		Attempts: []fallback.Attempt{
			{Chain: "completion", Provider: "openrouter", Outcome: fallback.OutcomeSkipped, Reason: "no OPENROUTER_API_KEY"},
		},
	}
	if err := f.fail[directive]; err != nil {
		return report, err
	}
	report.Artifacts.Document = types.Artifact{Kind: types.ArtifactDocument, Path: "/out/skyscope_report_1.pdf"}
	return report, nil
}

func TestRunDirectivePrintsSummary(t *testing.T) {
	var out bytes.Buffer
	p := &fakePipeline{}

	report, err := runDirective(&out, p, "assess reactors", false)
	require.NoError(t, err)
	require.NotNil(t, report)

	s := out.String()
	assert.Contains(t, s, "[1/5]")
	assert.Contains(t, s, "blueprint")
	assert.Contains(t, s, "openrouter")
	assert.Contains(t, s, "no OPENROUTER_API_KEY")
	assert.Contains(t, s, "/out/skyscope_report_1.pdf")
	assert.Contains(t, s, "Mission Complete.")
}

func TestRunDirectiveRecoversPanic(t *testing.T) {
	var out bytes.Buffer
	p := &fakePipeline{panicOn: "explode"}

	report, err := runDirective(&out, p, "explode", false)
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Contains(t, err.Error(), "boom")
}

func TestRunDirectiveReportsAbort(t *testing.T) {
	var out bytes.Buffer
	abort := fmt.Errorf("%w: %v", types.ErrUserAbort, context.Canceled)
	p := &fakePipeline{fail: map[string]error{"stop": abort}}

	_, err := runDirective(&out, p, "stop", false)
	require.ErrorIs(t, err, types.ErrUserAbort)
	assert.Contains(t, out.String(), "Mission aborted.")
	assert.NotContains(t, out.String(), "Mission Complete.")
}

func TestPromptLoopContinuesAfterErrors(t *testing.T) {
	lines := []string{"first", "broken", "second"}
	read := func(io.Reader, io.Writer) (string, bool, error) {
		if len(lines) == 0 {
			return "", false, nil
		}
		next := lines[0]
		lines = lines[1:]
		return next, true, nil
	}
	p := &fakePipeline{fail: map[string]error{"broken": fmt.Errorf("render: %w", types.ErrRenderFailure)}}

	var out bytes.Buffer
	require.NoError(t, promptLoop(nil, &out, p, read))
	assert.Equal(t, []string{"first", "broken", "second"}, p.runs)
	assert.Contains(t, out.String(), "render")
	assert.Contains(t, out.String(), "Session closed.")
}

func TestPromptLoopStopsOnReadError(t *testing.T) {
	read := func(io.Reader, io.Writer) (string, bool, error) {
		return "", false, errors.New("tty gone")
	}
	err := promptLoop(nil, io.Discard, &fakePipeline{}, read)
	require.Error(t, err)
}

func TestStatusTableListsEveryProvider(t *testing.T) {
	c := config.DefaultConfig()
	a := config.ResolveAvailability(c, func(string) (string, error) { return "", errors.New("missing") })

	var out bytes.Buffer
	printStatus(&out, c, a)

	s := out.String()
	for _, r := range a.Rows() {
		assert.Contains(t, s, r.Provider)
	}
	assert.Contains(t, s, "unavailable")
	assert.Contains(t, s, "No completion provider is configured")
}

func TestRootAcceptsDirectiveWords(t *testing.T) {
	cmd, rest, err := rootCmd.Find([]string{"Analyze", "tensions", "in", "region", "X"})
	require.NoError(t, err)
	assert.Same(t, rootCmd, cmd)
	assert.Equal(t, "Analyze tensions in region X", joinArgs(rest))
	require.NoError(t, cmd.ValidateArgs(rest))

	cmd, _, err = rootCmd.Find([]string{"status"})
	require.NoError(t, err)
	assert.Same(t, statusCmd, cmd)
}
