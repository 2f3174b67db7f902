package retrieval

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// defaultChunkRunes bounds one stored chunk.
const defaultChunkRunes = 1000

// readDocument returns the raw bytes (for digesting) and the plain text of
// a supported document.
func readDocument(path string) (raw []byte, text string, err error) {
	raw, err = os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return raw, string(raw), nil
	}
	text, err = pdfText(raw)
	if err != nil {
		return nil, "", fmt.Errorf("extract pdf text from %s: %w", path, err)
	}
	return raw, text, nil
}

func pdfText(raw []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if _, err := io.Copy(&b, plain); err != nil {
		return "", err
	}
	return b.String(), nil
}

// chunkText splits text into fixed rune windows, preferring to break at
// the last whitespace inside a window.
func chunkText(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = defaultChunkRunes
	}
	rs := []rune(strings.TrimSpace(text))
	if len(rs) == 0 {
		return nil
	}
	out := make([]string, 0, (len(rs)/maxLen)+1)
	for i := 0; i < len(rs); {
		end := i + maxLen
		if end >= len(rs) {
			end = len(rs)
		} else if cut := lastSpace(rs[i:end]); cut > maxLen/2 {
			end = i + cut
		}
		if chunk := strings.TrimSpace(string(rs[i:end])); chunk != "" {
			out = append(out, chunk)
		}
		i = end
	}
	return out
}

func lastSpace(rs []rune) int {
	for j := len(rs) - 1; j >= 0; j-- {
		switch rs[j] {
		case ' ', '\n', '\t', '\r':
			return j
		}
	}
	return -1
}
