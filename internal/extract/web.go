// Package extract pulls readable text out of web pages and video
// transcripts for research aggregation.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"skyscope/internal/logging"
	"skyscope/internal/types"
)

// maxBodyBytes bounds every fetched response.
const maxBodyBytes = 2 << 20

// WebExtractor returns the full text of a page.
type WebExtractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// HTTPExtractor fetches a page with a plain GET and extracts its text
// from the static HTML. Script-rendered pages come back (nearly) empty.
type HTTPExtractor struct {
	client    *http.Client
	userAgent string
}

// NewHTTPExtractor creates a static extractor.
func NewHTTPExtractor(timeout time.Duration, userAgent string) *HTTPExtractor {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; skyscope/1.0)"
	}
	return &HTTPExtractor{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Name returns the provider id.
func (e *HTTPExtractor) Name() string { return "http" }

// Invoke adapts Extract to the fallback provider shape.
func (e *HTTPExtractor) Invoke(ctx context.Context, url string) (string, error) {
	return e.Extract(ctx, url)
}

// Extract fetches url and returns its readable text. Plain text and
// markdown responses pass through unchanged.
func (e *HTTPExtractor) Extract(ctx context.Context, url string) (string, error) {
	logging.ExtractDebug("web fetch: %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,text/plain;q=0.8,*/*;q=0.5")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %v: %w", err, types.ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d fetching %s: %w", resp.StatusCode, url, types.ErrProviderUnavailable)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/plain") || strings.Contains(contentType, "text/markdown") {
		return strings.TrimSpace(string(body)), nil
	}

	text, err := htmlToText(string(body))
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %v: %w", err, types.ErrParseFailure)
	}
	logging.Extract("web fetch completed: %s (%d chars)", url, len(text))
	return text, nil
}
