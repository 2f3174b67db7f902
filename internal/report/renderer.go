package report

import (
	"fmt"
	"path/filepath"
	"time"

	"skyscope/internal/config"
)

// Renderer writes a document to path.
type Renderer interface {
	Render(doc Document, path string) error
	// Extension is the file extension without the dot.
	Extension() string
}

// NewRenderer returns the renderer for a configured format.
func NewRenderer(format string) (Renderer, error) {
	switch format {
	case "", config.ReportPDF:
		return NewPDFRenderer(), nil
	case config.ReportMarkdown:
		return NewMarkdownRenderer(), nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s (use 'pdf' or 'md')", format)
	}
}

// FilePath returns <dir>/skyscope_report_<unix>.<ext>.
func FilePath(dir string, r Renderer, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("skyscope_report_%d.%s", now.Unix(), r.Extension()))
}
