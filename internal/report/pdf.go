package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
)

// Page geometry in points (A4).
const (
	sideMargin   = 72.0
	topMargin    = 72.0
	bottomMargin = 18.0
)

// PDFRenderer renders with fpdf's core Helvetica fonts. Text is translated
// from UTF-8 to cp1252; runes outside it are replaced.
type PDFRenderer struct{}

// NewPDFRenderer creates a PDF renderer.
func NewPDFRenderer() *PDFRenderer { return &PDFRenderer{} }

func (r *PDFRenderer) Extension() string { return "pdf" }

type textStyle struct {
	style   string
	size    float64
	leading float64
	align   string
	before  float64
	after   float64
	gray    bool
}

var styles = map[BlockKind]textStyle{
	BlockTitle:     {style: "B", size: 24, leading: 29, align: "C", after: 30},
	BlockHeading1:  {style: "B", size: 18, leading: 22, align: "L", before: 6, after: 6},
	BlockHeading2:  {style: "B", size: 14, leading: 17, align: "L", before: 4, after: 4},
	BlockHeading3:  {style: "B", size: 12, leading: 14, align: "L", before: 2, after: 2},
	BlockText:      {size: 10, leading: 12, align: "L"},
	BlockParagraph: {size: 10, leading: 12, align: "J"},
	BlockItem:      {size: 10, leading: 12, align: "J"},
}

// Render writes doc as an A4 PDF.
func (r *PDFRenderer) Render(doc Document, path string) error {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(sideMargin, topMargin, sideMargin)
	pdf.SetAutoPageBreak(true, bottomMargin)
	pdf.SetTitle(doc.Title, true)
	pdf.SetSubject(doc.Subject, true)
	pdf.SetAuthor(doc.Author, true)
	pdf.SetCreator("skyscope", false)
	if !doc.Created.IsZero() {
		pdf.SetCreationDate(doc.Created)
		pdf.SetModificationDate(doc.Created)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-bottomMargin - 4)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.AddPage()
	for _, b := range doc.Blocks {
		switch b.Kind {
		case BlockPageBreak:
			pdf.AddPage()
		case BlockSpacer:
			pdf.Ln(b.Size)
		case BlockItem:
			st := styles[b.Kind]
			pdf.SetFont("Helvetica", "B", st.size)
			pdf.MultiCell(0, st.leading, tr(b.Label+":"), "", "L", false)
			pdf.SetFont("Helvetica", "", st.size)
			pdf.MultiCell(0, st.leading, tr(b.Text), "", st.align, false)
		default:
			st, ok := styles[b.Kind]
			if !ok {
				continue
			}
			if st.before > 0 {
				pdf.Ln(st.before)
			}
			pdf.SetFont("Helvetica", st.style, st.size)
			pdf.MultiCell(0, st.leading, tr(b.Text), "", st.align, false)
			if st.after > 0 {
				pdf.Ln(st.after)
			}
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("layout %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
