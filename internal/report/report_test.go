package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyscope/internal/types"
)

var (
	fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	who      = Identity{Name: "SKYSCOPE SENTINEL INTELLIGENCE", Title: "Strategic Simulation Division"}
	research = types.ResearchResult{
		{Source: "https://example.com/a", Content: "Ports are congested."},
		{Source: "recall:skyscope_intel/memo.md", Content: "Archived memo."},
	}
)

func TestComposeCover(t *testing.T) {
	doc := Compose("shipping lanes", "x", research, fixedNow, who)

	want := []Block{
		{Kind: BlockSpacer, Size: 100},
		{Kind: BlockTitle, Text: "CLASSIFIED INTELLIGENCE TRAJECTORY REPORT"},
		{Kind: BlockSpacer, Size: 30},
		{Kind: BlockHeading2, Text: "SUBJECT: SHIPPING LANES"},
		{Kind: BlockSpacer, Size: 12},
		{Kind: BlockText, Text: "DATE: 2026-03-14 09:26:53"},
		{Kind: BlockSpacer, Size: 50},
		{Kind: BlockHeading3, Text: "PREPARED BY: SKYSCOPE SENTINEL INTELLIGENCE"},
		{Kind: BlockText, Text: "Strategic Simulation Division"},
		{Kind: BlockPageBreak},
	}
	if diff := cmp.Diff(want, doc.Blocks[:len(want)]); diff != "" {
		t.Errorf("cover mismatch (-want +got):\n%s", diff)
	}
}

func textBlocks(doc Document, kinds ...BlockKind) []Block {
	keep := map[BlockKind]bool{}
	for _, k := range kinds {
		keep[k] = true
	}
	var out []Block
	for _, b := range doc.Blocks {
		if keep[b.Kind] {
			out = append(out, b)
		}
	}
	return out
}

func TestComposeSectionsAndTrajectoryHeadings(t *testing.T) {
	trajectory := types.Trajectory("## Phase One ##\nTension rises.\n\n   \n# Outlook\r\nDe-escalation unlikely.  ")
	doc := Compose("q", trajectory, research, fixedNow, who)

	got := textBlocks(doc, BlockHeading1, BlockHeading2, BlockParagraph, BlockItem)
	want := []Block{
		{Kind: BlockHeading2, Text: "SUBJECT: Q"},
		{Kind: BlockHeading1, Text: "1. Intelligence Summary"},
		{Kind: BlockParagraph, Text: "The following analysis leverages 2 intelligence vector(s) gathered for this directive."},
		{Kind: BlockItem, Label: "https://example.com/a", Text: "Ports are congested."},
		{Kind: BlockItem, Label: "recall:skyscope_intel/memo.md", Text: "Archived memo."},
		{Kind: BlockHeading1, Text: "2. Strategic Simulation & Trajectory"},
		{Kind: BlockHeading2, Text: "Phase One"},
		{Kind: BlockParagraph, Text: "Tension rises."},
		{Kind: BlockHeading2, Text: "Outlook"},
		{Kind: BlockParagraph, Text: "De-escalation unlikely."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sections mismatch (-want +got):\n%s", diff)
	}

	breaks := textBlocks(doc, BlockPageBreak)
	assert.Len(t, breaks, 2)
}

func TestComposeIsDeterministic(t *testing.T) {
	a := Compose("q", "t", research, fixedNow, who)
	b := Compose("q", "t", research, fixedNow, who)
	assert.Equal(t, a, b)
}

func TestMarkdownRendering(t *testing.T) {
	doc := Compose("q", "# Outlook\nStable.", research[:1], fixedNow, Identity{Name: "X"})
	md := Markdown(doc)

	assert.True(t, strings.HasPrefix(md, "# CLASSIFIED INTELLIGENCE TRAJECTORY REPORT\n\n## SUBJECT: Q\n\nDATE: 2026-03-14 09:26:53\n\n### PREPARED BY: X\n\n---\n\n"))
	assert.Contains(t, md, "# 1. Intelligence Summary\n")
	assert.Contains(t, md, "**https://example.com/a:** Ports are congested.\n")
	assert.Contains(t, md, "# 2. Strategic Simulation & Trajectory\n\n## Outlook\n\nStable.\n")
	assert.True(t, strings.HasSuffix(md, "Stable.\n"))
}

func TestRenderersWriteFiles(t *testing.T) {
	doc := Compose("Électricité – grid ✓", types.Trajectory("# Heading\n"+strings.Repeat("Long paragraph text. ", 400)), research, fixedNow, who)
	dir := filepath.Join(t.TempDir(), "out")

	for _, format := range []string{"pdf", "md"} {
		t.Run(format, func(t *testing.T) {
			r, err := NewRenderer(format)
			require.NoError(t, err)
			path := FilePath(dir, r, fixedNow)
			assert.Equal(t, filepath.Join(dir, "skyscope_report_"+"1773480413."+format), path)

			require.NoError(t, r.Render(doc, path))
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			if format == "pdf" {
				assert.True(t, strings.HasPrefix(string(data), "%PDF-"))
			} else {
				assert.Contains(t, string(data), "SUBJECT: ÉLECTRICITÉ – GRID ✓")
			}
		})
	}
}

func TestNewRendererRejectsUnknownFormat(t *testing.T) {
	_, err := NewRenderer("docx")
	require.Error(t, err)
	r, err := NewRenderer("")
	require.NoError(t, err)
	assert.Equal(t, "pdf", r.Extension())
}
