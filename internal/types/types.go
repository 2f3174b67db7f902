// Package types holds the data model shared by every pipeline stage.
package types

import (
	"strings"
	"time"
)

// Source labels for items that do not come from a URL.
const (
	DegradedSource     = "degraded-mode"
	TranscriptPrefix   = "youtube:"
	RecallSourcePrefix = "recall:"
)

// Blueprint is the structured mission derived from a raw directive.
// ResearchDirectives is never empty once a planner has returned it.
type Blueprint struct {
	MissionName        string `json:"mission_name" yaml:"mission_name"`
	ResearchDirectives string `json:"research_directives" yaml:"research_directives"`
	SimulationFocus    string `json:"simulation_focus" yaml:"simulation_focus"`
}

// Default blueprint field values.
const (
	DefaultMissionName     = "General Directive"
	DefaultSimulationFocus = "General Outcome"
)

// DefaultBlueprint is the blueprint used when a directive cannot be planned.
func DefaultBlueprint(instruction string) Blueprint {
	return Blueprint{
		MissionName:        DefaultMissionName,
		ResearchDirectives: instruction,
		SimulationFocus:    DefaultSimulationFocus,
	}
}

// Normalize fills empty fields with their defaults.
func (b Blueprint) Normalize(instruction string) Blueprint {
	if strings.TrimSpace(b.MissionName) == "" {
		b.MissionName = DefaultMissionName
	}
	if strings.TrimSpace(b.ResearchDirectives) == "" {
		b.ResearchDirectives = instruction
	}
	if strings.TrimSpace(b.SimulationFocus) == "" {
		b.SimulationFocus = DefaultSimulationFocus
	}
	return b
}

// IntelligenceItem is one labeled unit of gathered research.
type IntelligenceItem struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

// IsDegraded reports whether the item is the degraded-mode placeholder.
func (i IntelligenceItem) IsDegraded() bool {
	return i.Source == DegradedSource
}

// ResearchResult is the ordered collection of items for one run.
// Aggregators guarantee it is never empty.
type ResearchResult []IntelligenceItem

// Degraded reports whether the result holds only the placeholder.
func (r ResearchResult) Degraded() bool {
	return len(r) == 1 && r[0].IsDegraded()
}

// Sources lists item sources in order.
func (r ResearchResult) Sources() []string {
	out := make([]string, len(r))
	for i, item := range r {
		out[i] = item.Source
	}
	return out
}

// Bullets renders the result as "- [source] content" lines.
func (r ResearchResult) Bullets() string {
	var sb strings.Builder
	for _, item := range r {
		sb.WriteString("- [")
		sb.WriteString(item.Source)
		sb.WriteString("] ")
		sb.WriteString(item.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Insight is the critical analysis of a ResearchResult.
type Insight string

// Trajectory is the strategic simulation text. Lines starting with '#'
// are headings.
type Trajectory string

// ArtifactKind distinguishes published outputs.
type ArtifactKind string

const (
	ArtifactDocument ArtifactKind = "document"
	ArtifactVideo    ArtifactKind = "video"
)

// Artifact is a file produced by the publisher.
type Artifact struct {
	Kind        ArtifactKind `json:"kind"`
	Path        string       `json:"path"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// Artifacts is the publisher's output. Video is nil when not requested or
// when rendering degraded.
type Artifacts struct {
	Document Artifact  `json:"document"`
	Video    *Artifact `json:"video,omitempty"`
}

// List returns the artifacts that exist, document first.
func (a Artifacts) List() []Artifact {
	out := []Artifact{a.Document}
	if a.Video != nil {
		out = append(out, *a.Video)
	}
	return out
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
