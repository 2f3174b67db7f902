// Package report composes the intelligence document and renders it to PDF
// or Markdown. Composition is deterministic for a given input and clock;
// renderers only lay out the block model.
package report

import (
	"fmt"
	"strings"
	"time"

	"skyscope/internal/types"
)

// BlockKind classifies a document block.
type BlockKind int

const (
	BlockTitle     BlockKind = iota // centered report title
	BlockHeading1                   // section heading
	BlockHeading2                   // subsection / cover subject
	BlockHeading3                   // cover sign-off
	BlockText                       // plain left-aligned line
	BlockParagraph                  // justified body text
	BlockItem                       // intelligence item: bold label + body
	BlockSpacer                     // vertical space, Size in points
	BlockPageBreak
)

// Block is one element of the document.
type Block struct {
	Kind  BlockKind
	Text  string
	Label string  // BlockItem only
	Size  float64 // BlockSpacer only
}

// Document is the rendered-agnostic report.
type Document struct {
	Title   string
	Subject string
	Author  string
	Created time.Time
	Blocks  []Block
}

// Identity is the preparer shown on the cover.
type Identity struct {
	Name  string
	Title string
}

// Report wording.
const (
	ReportTitle       = "CLASSIFIED INTELLIGENCE TRAJECTORY REPORT"
	SummaryHeading    = "1. Intelligence Summary"
	SimulationHeading = "2. Strategic Simulation & Trajectory"
	dateLayout        = "2006-01-02 15:04:05"
)

// Compose lays out cover, intelligence summary and trajectory.
func Compose(query string, trajectory types.Trajectory, research types.ResearchResult, now time.Time, who Identity) Document {
	doc := Document{
		Title:   ReportTitle,
		Subject: query,
		Author:  who.Name,
		Created: now,
	}
	add := func(b ...Block) { doc.Blocks = append(doc.Blocks, b...) }

	// cover
	add(
		Block{Kind: BlockSpacer, Size: 100},
		Block{Kind: BlockTitle, Text: ReportTitle},
		Block{Kind: BlockSpacer, Size: 30},
		Block{Kind: BlockHeading2, Text: "SUBJECT: " + strings.ToUpper(query)},
		Block{Kind: BlockSpacer, Size: 12},
		Block{Kind: BlockText, Text: "DATE: " + now.Format(dateLayout)},
		Block{Kind: BlockSpacer, Size: 50},
		Block{Kind: BlockHeading3, Text: "PREPARED BY: " + who.Name},
	)
	if who.Title != "" {
		add(Block{Kind: BlockText, Text: who.Title})
	}
	add(Block{Kind: BlockPageBreak})

	// intelligence summary
	add(
		Block{Kind: BlockHeading1, Text: SummaryHeading},
		Block{Kind: BlockParagraph, Text: fmt.Sprintf(
			"The following analysis leverages %d intelligence vector(s) gathered for this directive.", len(research))},
		Block{Kind: BlockSpacer, Size: 12},
	)
	for _, item := range research {
		add(
			Block{Kind: BlockItem, Label: item.Source, Text: item.Content},
			Block{Kind: BlockSpacer, Size: 6},
		)
	}
	add(Block{Kind: BlockPageBreak})

	// trajectory
	add(Block{Kind: BlockHeading1, Text: SimulationHeading})
	for _, line := range strings.Split(string(trajectory), "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			add(Block{Kind: BlockHeading2, Text: strings.Trim(line, "# ")})
		} else {
			add(Block{Kind: BlockParagraph, Text: line})
		}
		add(Block{Kind: BlockSpacer, Size: 6})
	}
	return doc
}
