// Package orchestrator sequences the pipeline: plan, research, analyze,
// simulate, publish. Stages never fail on provider trouble; only a failed
// document render or a cancelled context ends a run with an error.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"skyscope/internal/fallback"
	"skyscope/internal/logging"
	"skyscope/internal/mission"
	"skyscope/internal/synthesis"
	"skyscope/internal/types"
)

// Config holds the stage collaborators.
type Config struct {
	Planner   Planner
	Gatherer  Gatherer
	Analyst   Analyst
	Simulator Simulator
	Publisher Publisher
	// Recorder is drained into RunReport.Attempts after every run. It
	// should be the recorder the provider chains were built with.
	Recorder *fallback.Recorder
	Observer Observer
}

// Orchestrator runs directives through the pipeline, one at a time.
type Orchestrator struct {
	cfg Config
	now func() time.Time
}

// New creates an orchestrator.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{cfg: cfg, now: time.Now}
}

// SetObserver replaces the stage observer.
func (o *Orchestrator) SetObserver(obs Observer) {
	o.cfg.Observer = obs
}

// Run executes the pipeline for directive. The report is returned even on
// error, holding whatever was produced before the failure.
func (o *Orchestrator) Run(ctx context.Context, directive string) (report *RunReport, err error) {
	directive = strings.TrimSpace(directive)
	report = &RunReport{
		RunID:     uuid.NewString(),
		Directive: directive,
		Started:   o.now(),
	}
	audit := logging.AuditWithRun(report.RunID)
	logging.BeginRun(report.RunID)
	o.cfg.Recorder.Drain()

	logging.Pipeline("run %s: %q", report.RunID, types.Truncate(directive, 80))
	audit.RunStart(directive)
	defer func() {
		logging.EndRun()
		report.Attempts = o.cfg.Recorder.Drain()
		report.Duration = time.Since(report.Started)
		errMsg := ""
		if err != nil {
			errMsg = err.Error()
			logging.PipelineError("run %s failed: %v", report.RunID, err)
		} else {
			logging.Pipeline("run %s complete in %v", report.RunID, report.Duration)
		}
		audit.RunEnd(err == nil, report.Duration, errMsg)
	}()

	if directive == "" {
		return report, fmt.Errorf("empty directive: %w", types.ErrParseFailure)
	}

	// plan
	if err := o.stage(ctx, report, audit, StagePlan, func() (string, error) {
		report.Blueprint = o.cfg.Planner.Plan(ctx, directive)
		return report.Blueprint.MissionName, nil
	}); err != nil {
		return report, err
	}

	// research
	query := mission.ResearchQuery(report.Blueprint, directive)
	if err := o.stage(ctx, report, audit, StageResearch, func() (string, error) {
		report.Research = o.cfg.Gatherer.Gather(ctx, query)
		if report.Research.Degraded() {
			return "degraded mode", nil
		}
		return fmt.Sprintf("%d item(s)", len(report.Research)), nil
	}); err != nil {
		return report, err
	}

	// analyze
	if err := o.stage(ctx, report, audit, StageAnalyze, func() (string, error) {
		report.Insight = o.cfg.Analyst.Analyze(ctx, directive, report.Research)
		return summarize(string(report.Insight)), nil
	}); err != nil {
		return report, err
	}

	// simulate
	if err := o.stage(ctx, report, audit, StageSimulate, func() (string, error) {
		report.Trajectory = o.cfg.Simulator.Simulate(ctx, directive, synthesis.Brief{
			Focus:    report.Blueprint.SimulationFocus,
			Insight:  report.Insight,
			Research: report.Research,
		})
		return summarize(string(report.Trajectory)), nil
	}); err != nil {
		return report, err
	}

	// publish
	if err := o.stage(ctx, report, audit, StagePublish, func() (string, error) {
		arts, err := o.cfg.Publisher.Publish(ctx, directive, report.Trajectory, report.Research)
		if err != nil {
			return "", err
		}
		report.Artifacts = arts
		if arts.Video != nil {
			return "document + video", nil
		}
		return "document", nil
	}); err != nil {
		return report, err
	}

	return report, nil
}

// stage runs fn with observer and audit bracketing, then converts a
// cancelled context into ErrUserAbort.
func (o *Orchestrator) stage(ctx context.Context, report *RunReport, audit *logging.AuditLogger, stage Stage, fn func() (string, error)) error {
	if err := abortErr(ctx); err != nil {
		return err
	}

	o.emit(StageEvent{RunID: report.RunID, Stage: stage})
	audit.StageStart(string(stage))
	logging.Get(logging.CategoryPipeline).Debug("stage %s started", stage)
	start := time.Now()

	detail, err := fn()
	if err == nil {
		err = abortErr(ctx)
	}
	dur := time.Since(start)

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	audit.StageComplete(string(stage), err == nil, dur, errMsg)
	o.emit(StageEvent{RunID: report.RunID, Stage: stage, Done: true, Duration: dur, Detail: detail, Err: err})
	logging.Pipeline("stage %s finished in %v: %s", stage, dur, detail)
	return err
}

func abortErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", types.ErrUserAbort, err)
	}
	return nil
}

func (o *Orchestrator) emit(e StageEvent) {
	if o.cfg.Observer != nil {
		o.cfg.Observer.OnStage(e)
	}
}

// summarize returns the first line of text, shortened for progress output.
func summarize(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return types.Truncate(strings.Trim(text, "# "), 72)
}

// IsAbort reports whether err ended a run because the user interrupted it.
func IsAbort(err error) bool {
	return errors.Is(err, types.ErrUserAbort)
}
