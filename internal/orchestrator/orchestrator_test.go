package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"skyscope/internal/config"
	"skyscope/internal/fallback"
	"skyscope/internal/synthesis"
	"skyscope/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// Scenario A: no credentials at all. The run completes, the document
// carries the single degraded item and the skip message.
func TestRunWithoutCredentialsCompletesDegraded(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Report.Format = config.ReportMarkdown
	cfg.Report.OutputDir = filepath.Join(dir, "out")
	cfg.Research.DocsPath = filepath.Join(dir, "no-docs")
	cfg.Retrieval.DatabasePath = filepath.Join(dir, "intel.db")
	avail := config.ResolveAvailability(cfg, func(string) (string, error) { return "", errors.New("not found") })
	require.False(t, avail.CompletionAvailable())

	o, closer, err := NewFromConfig(context.Background(), cfg, avail)
	require.NoError(t, err)
	defer func() { require.NoError(t, closer()) }()

	report, err := o.Run(context.Background(), "Analyze tensions in region X")
	require.NoError(t, err)

	assert.Equal(t, types.DefaultBlueprint("Analyze tensions in region X"), report.Blueprint)
	require.Len(t, report.Research, 1)
	assert.True(t, report.Research[0].IsDegraded())
	assert.True(t, strings.HasPrefix(string(report.Insight), synthesis.DegradedInsightPrefix))
	assert.Equal(t, types.Trajectory(synthesis.SimulationSkipped), report.Trajectory)
	assert.Nil(t, report.Artifacts.Video)

	data, err := os.ReadFile(report.Artifacts.Document.Path)
	require.NoError(t, err)
	doc := string(data)
	assert.Equal(t, 1, strings.Count(doc, "**degraded-mode:**"))
	section := doc[strings.Index(doc, "2. Strategic Simulation & Trajectory"):]
	assert.Contains(t, section, synthesis.SimulationSkipped)

	// every completion attempt was a skip
	require.NotEmpty(t, report.Attempts)
	for _, a := range report.Attempts {
		if a.Chain == "completion" {
			assert.Equal(t, fallback.OutcomeSkipped, a.Outcome)
		}
	}
	_, err = uuid.Parse(report.RunID)
	assert.NoError(t, err)
}

type stubPlanner struct{ bp types.Blueprint }

func (s stubPlanner) Plan(context.Context, string) types.Blueprint { return s.bp }

type stubGatherer struct {
	query  string
	result types.ResearchResult
	cancel context.CancelFunc
}

func (s *stubGatherer) Gather(_ context.Context, q string) types.ResearchResult {
	s.query = q
	if s.cancel != nil {
		s.cancel()
	}
	return s.result
}

type stubAnalyst struct{ calls int }

func (s *stubAnalyst) Analyze(context.Context, string, types.ResearchResult) types.Insight {
	s.calls++
	return "insight"
}

type stubSimulator struct{ brief synthesis.Brief }

func (s *stubSimulator) Simulate(_ context.Context, _ string, b synthesis.Brief) types.Trajectory {
	s.brief = b
	return "# Outlook\nstable"
}

type stubPublisher struct {
	err   error
	calls int
}

func (s *stubPublisher) Publish(context.Context, string, types.Trajectory, types.ResearchResult) (types.Artifacts, error) {
	s.calls++
	if s.err != nil {
		return types.Artifacts{}, s.err
	}
	return types.Artifacts{Document: types.Artifact{Kind: types.ArtifactDocument, Path: "r.pdf"}}, nil
}

func TestRunSequencesStagesAndReports(t *testing.T) {
	rec := fallback.NewRecorder()
	rec.Record(fallback.Attempt{Chain: "stale"})
	gatherer := &stubGatherer{result: types.ResearchResult{{Source: "s", Content: "c"}}}
	sim := &stubSimulator{}
	var events []StageEvent

	o := New(Config{
		Planner: stubPlanner{bp: types.Blueprint{
			MissionName: "Op", ResearchDirectives: "look into ports", SimulationFocus: "trade",
		}},
		Gatherer:  gatherer,
		Analyst:   &stubAnalyst{},
		Simulator: sim,
		Publisher: &stubPublisher{},
		Recorder:  rec,
		Observer:  ObserverFunc(func(e StageEvent) { events = append(events, e) }),
	})

	report, err := o.Run(context.Background(), "  study https://example.com/ports  ")
	require.NoError(t, err)

	assert.Equal(t, "study https://example.com/ports", report.Directive)
	assert.Contains(t, gatherer.query, "look into ports")
	assert.Contains(t, gatherer.query, "https://example.com/ports", "dropped URLs are restored")
	assert.Equal(t, "trade", sim.brief.Focus)
	assert.Equal(t, types.Insight("insight"), sim.brief.Insight)
	assert.Equal(t, "r.pdf", report.Artifacts.Document.Path)
	assert.Empty(t, report.Attempts, "attempts from before the run are discarded")

	require.Len(t, events, 2*len(Stages))
	for i, stage := range Stages {
		assert.Equal(t, stage, events[2*i].Stage)
		assert.False(t, events[2*i].Done)
		assert.Equal(t, stage, events[2*i+1].Stage)
		assert.True(t, events[2*i+1].Done)
		assert.Equal(t, report.RunID, events[2*i+1].RunID)
	}
	assert.Equal(t, "Op", events[1].Detail)
	assert.Equal(t, "Outlook", events[7].Detail)
}

func TestRunPublishFailureIsReturned(t *testing.T) {
	pub := &stubPublisher{err: types.ErrRenderFailure}
	o := New(Config{
		Planner:   stubPlanner{bp: types.DefaultBlueprint("q")},
		Gatherer:  &stubGatherer{},
		Analyst:   &stubAnalyst{},
		Simulator: &stubSimulator{},
		Publisher: pub,
	})

	report, err := o.Run(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrRenderFailure))
	assert.Equal(t, types.Trajectory("# Outlook\nstable"), report.Trajectory, "earlier results are kept")
}

func TestRunCancelledIsUserAbort(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	analyst := &stubAnalyst{}
	pub := &stubPublisher{}
	o := New(Config{
		Planner:   stubPlanner{bp: types.DefaultBlueprint("q")},
		Gatherer:  &stubGatherer{cancel: cancel},
		Analyst:   analyst,
		Simulator: &stubSimulator{},
		Publisher: pub,
	})

	_, err := o.Run(ctx, "q")
	require.Error(t, err)
	assert.True(t, IsAbort(err))
	assert.Zero(t, analyst.calls)
	assert.Zero(t, pub.calls)
}

func TestRunRejectsEmptyDirective(t *testing.T) {
	o := New(Config{})
	_, err := o.Run(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrParseFailure))
}
