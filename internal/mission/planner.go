// Package mission decomposes a raw directive into a Blueprint.
package mission

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"skyscope/internal/extract"
	"skyscope/internal/llm"
	"skyscope/internal/logging"
	"skyscope/internal/types"
)

const plannerSystemPrompt = `You are the mission planner of a strategic intelligence system.
Decompose the user's directive into a mission blueprint.
Respond with ONLY a JSON object, no prose, with exactly these string fields:
{
  "mission_name": "short codename for the mission",
  "research_directives": "what to research, including every URL from the directive verbatim",
  "simulation_focus": "the outcome the strategic simulation should explore"
}`

// Planner turns directives into blueprints.
type Planner struct {
	llm llm.Completer
}

// NewPlanner creates a planner over a completion router.
func NewPlanner(c llm.Completer) *Planner {
	return &Planner{llm: c}
}

// Plan never fails: unparseable or missing model output yields the
// default blueprint, and empty fields get their defaults.
func (p *Planner) Plan(ctx context.Context, instruction string) types.Blueprint {
	timer := logging.StartTimer(logging.CategoryPlanner, "Plan")
	defer timer.Stop()

	res := p.llm.Complete(ctx, plannerSystemPrompt, instruction)
	if !res.OK {
		logging.PlannerWarn("no completion provider produced a blueprint: %s", res.Summary())
		return types.DefaultBlueprint(instruction)
	}

	bp, err := ParseBlueprint(res.Value, instruction)
	if err != nil {
		logging.PlannerWarn("using default blueprint: %v", err)
		return types.DefaultBlueprint(instruction)
	}
	logging.Planner("blueprint %q via %s", bp.MissionName, res.Provider)
	return bp
}

// ParseBlueprint decodes model output into a Blueprint. The JSON may be
// wrapped in a ``` fence and surrounded by prose.
func ParseBlueprint(raw, instruction string) (types.Blueprint, error) {
	cleaned := cleanJSONResponse(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return types.Blueprint{}, fmt.Errorf("blueprint is not a JSON object: %v: %w", err, types.ErrParseFailure)
	}

	var bp types.Blueprint
	bp.MissionName = stringField(fields, "mission_name")
	bp.ResearchDirectives = stringField(fields, "research_directives")
	bp.SimulationFocus = stringField(fields, "simulation_focus")

	logging.PlannerDebug("parsed blueprint fields: %d", len(fields))
	return bp.Normalize(instruction), nil
}

// stringField reads a field as text. Models sometimes return lists for
// directive fields; those are joined one item per line.
func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.TrimSpace(strings.Join(list, "\n"))
	}
	return ""
}

// ResearchQuery is the text handed to the research aggregator: the
// blueprint's directives plus any URL from the raw directive that the
// planner dropped while rephrasing.
func ResearchQuery(bp types.Blueprint, raw string) string {
	query := bp.ResearchDirectives
	present := make(map[string]bool)
	for _, u := range extract.ExtractURLs(query) {
		present[u] = true
	}

	var missing []string
	for _, u := range extract.ExtractURLs(raw) {
		if !present[u] {
			missing = append(missing, u)
		}
	}
	if len(missing) == 0 {
		return query
	}
	logging.PlannerDebug("re-attaching %d directive URL(s) to research query", len(missing))
	return query + "\n" + strings.Join(missing, "\n")
}
