package orchestrator

import (
	"context"
	"time"

	"skyscope/internal/fallback"
	"skyscope/internal/synthesis"
	"skyscope/internal/types"
)

// Stage names one pipeline step.
type Stage string

const (
	StagePlan     Stage = "plan"
	StageResearch Stage = "research"
	StageAnalyze  Stage = "analyze"
	StageSimulate Stage = "simulate"
	StagePublish  Stage = "publish"
)

// Stages lists the pipeline in execution order.
var Stages = []Stage{StagePlan, StageResearch, StageAnalyze, StageSimulate, StagePublish}

// StageEvent reports a stage starting (Done=false) or finishing.
type StageEvent struct {
	RunID    string
	Stage    Stage
	Done     bool
	Duration time.Duration
	Detail   string // short human summary on finish
	Err      error  // publish failure or abort
}

// Observer receives stage events on the run's goroutine.
type Observer interface {
	OnStage(StageEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(StageEvent)

func (f ObserverFunc) OnStage(e StageEvent) { f(e) }

// RunReport is everything one run produced.
type RunReport struct {
	RunID      string
	Directive  string
	Blueprint  types.Blueprint
	Research   types.ResearchResult
	Insight    types.Insight
	Trajectory types.Trajectory
	Artifacts  types.Artifacts
	Attempts   []fallback.Attempt
	Started    time.Time
	Duration   time.Duration
}

// Stage collaborators.
type (
	Planner interface {
		Plan(ctx context.Context, instruction string) types.Blueprint
	}
	Gatherer interface {
		Gather(ctx context.Context, directive string) types.ResearchResult
	}
	Analyst interface {
		Analyze(ctx context.Context, query string, research types.ResearchResult) types.Insight
	}
	Simulator interface {
		Simulate(ctx context.Context, query string, brief synthesis.Brief) types.Trajectory
	}
	Publisher interface {
		Publish(ctx context.Context, query string, trajectory types.Trajectory, research types.ResearchResult) (types.Artifacts, error)
	}
)
