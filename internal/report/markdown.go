package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MarkdownRenderer writes the document as CommonMark.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a Markdown renderer.
func NewMarkdownRenderer() *MarkdownRenderer { return &MarkdownRenderer{} }

func (r *MarkdownRenderer) Extension() string { return "md" }

// Render writes doc to path.
func (r *MarkdownRenderer) Render(doc Document, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(Markdown(doc)), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Markdown renders doc to a string. Spacers collapse into blank lines and
// page breaks become horizontal rules.
func Markdown(doc Document) string {
	var sb strings.Builder
	para := func(s string) {
		sb.WriteString(s)
		sb.WriteString("\n\n")
	}
	for _, b := range doc.Blocks {
		switch b.Kind {
		case BlockTitle, BlockHeading1:
			para("# " + b.Text)
		case BlockHeading2:
			para("## " + b.Text)
		case BlockHeading3:
			para("### " + b.Text)
		case BlockText, BlockParagraph:
			para(b.Text)
		case BlockItem:
			para(fmt.Sprintf("**%s:** %s", b.Label, b.Text))
		case BlockPageBreak:
			para("---")
		}
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}
