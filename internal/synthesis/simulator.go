package synthesis

import (
	"context"
	"fmt"
	"strings"

	"skyscope/internal/llm"
	"skyscope/internal/logging"
	"skyscope/internal/types"
)

const simulatorSystemPrompt = "You are a highly advanced strategic AI simulator."

const simulatorUserTemplate = `You are SKYSCOPE SENTINEL INTELLIGENCE.
Query: %s
Simulation focus: %s

Context:
%s

Perform a high-level strategic simulation considering:
1. Economic & Financial Systems (trade routes, benefits, land worth)
2. Technological Supremacy
3. Geographical & Historical Factors
4. Political Posturing & Alignments

Leverage multi-perspective analysis (Western, Russian, Arabic, etc.).

Output a detailed strategic trajectory report. Use lines starting with # for section headings.`

// Messages returned in place of a trajectory.
const (
	SimulationSkipped      = "Simulation skipped: No OpenRouter API Key and no LocalAI URL provided."
	SimulationFailedPrefix = "Simulation failed: "
)

// Brief is the simulation context: the blueprint focus plus everything
// learned so far.
type Brief struct {
	Focus    string
	Insight  types.Insight
	Research types.ResearchResult
}

// String renders the brief as prompt context.
func (b Brief) String() string {
	var sb strings.Builder
	if b.Insight != "" {
		sb.WriteString("CRITICAL ASSESSMENT:\n")
		sb.WriteString(strings.TrimSpace(string(b.Insight)))
		sb.WriteString("\n\n")
	}
	if len(b.Research) > 0 {
		sb.WriteString("RAW INTELLIGENCE:\n")
		sb.WriteString(b.Research.Bullets())
	}
	return sb.String()
}

// Simulator projects a strategic trajectory.
type Simulator struct {
	llm llm.Completer
}

// NewSimulator creates a simulator over a completion router.
func NewSimulator(c llm.Completer) *Simulator {
	return &Simulator{llm: c}
}

// Simulate returns the trajectory. When no completion provider was
// configured at all the skip message is returned; when providers were
// tried and failed the failure message carries the attempt summary.
func (s *Simulator) Simulate(ctx context.Context, query string, brief Brief) types.Trajectory {
	timer := logging.StartTimer(logging.CategorySynthesis, "Simulate")
	defer timer.Stop()

	focus := brief.Focus
	if strings.TrimSpace(focus) == "" {
		focus = types.DefaultSimulationFocus
	}
	user := fmt.Sprintf(simulatorUserTemplate, query, focus, brief.String())

	res := s.llm.Complete(ctx, simulatorSystemPrompt, user)
	switch {
	case res.OK:
		logging.Synthesis("trajectory via %s (%d chars)", res.Provider, len(res.Value))
		return types.Trajectory(res.Value)
	case res.AllSkipped():
		logging.SynthesisWarn("simulation skipped: no completion provider configured")
		return SimulationSkipped
	default:
		logging.SynthesisWarn("simulation failed: %s", res.Summary())
		return types.Trajectory(SimulationFailedPrefix + res.Summary())
	}
}
