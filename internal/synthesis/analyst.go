// Package synthesis turns gathered research into a critical assessment
// (Analyst) and a strategic trajectory (Simulator). Both are total: a
// failed completion becomes an explanatory message, never an error.
package synthesis

import (
	"context"
	"fmt"

	"skyscope/internal/llm"
	"skyscope/internal/logging"
	"skyscope/internal/types"
)

const analystSystemPrompt = `You are a Deep Insights Analyst for Skyscope Sentinel.
Your role is to apply critical theory and strategic analysis to raw intelligence.
Do not just summarize; identify patterns, contradictions, and high-probability trajectories.
Focus on:
1. Economic & Financial vectors.
2. Historical precedence.
3. Hidden political alignments.`

const analystUserTemplate = `QUERY: %s

RAW INTELLIGENCE:
%s
TASK:
Provide a "Critical Assessment" of the situation.
Highlight key risks and 2-3 likely future scenarios.`

// DegradedInsightPrefix starts every insight produced without a model.
const DegradedInsightPrefix = "Critical assessment unavailable (degraded mode): "

// Analyst produces a critical assessment of research.
type Analyst struct {
	llm llm.Completer
}

// NewAnalyst creates an analyst over a completion router.
func NewAnalyst(c llm.Completer) *Analyst {
	return &Analyst{llm: c}
}

// Analyze returns the model's assessment verbatim, or a degraded message
// carrying the attempt summary.
func (a *Analyst) Analyze(ctx context.Context, query string, research types.ResearchResult) types.Insight {
	timer := logging.StartTimer(logging.CategorySynthesis, "Analyze")
	defer timer.Stop()

	user := fmt.Sprintf(analystUserTemplate, query, research.Bullets())
	res := a.llm.Complete(ctx, analystSystemPrompt, user)
	if !res.OK {
		logging.SynthesisWarn("critical assessment unavailable: %s", res.Summary())
		return types.Insight(DegradedInsightPrefix + res.Summary())
	}
	logging.Synthesis("critical assessment via %s (%d chars)", res.Provider, len(res.Value))
	return types.Insight(res.Value)
}
