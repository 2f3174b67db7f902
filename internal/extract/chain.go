package extract

import (
	"context"
	"fmt"

	"skyscope/internal/config"
	"skyscope/internal/fallback"
	"skyscope/internal/logging"
	"skyscope/internal/types"
)

// WebChain tries the static extractor first and the headless browser
// second.
type WebChain struct {
	chain *fallback.Chain[string, string]
}

// NewWebChain builds a chain from providers with their availability.
func NewWebChain(providers ...ChainEntry) *WebChain {
	c := fallback.New[string, string]("extract").WithValidator(fallback.NonEmpty)
	for _, p := range providers {
		c.Add(p.Provider, p.Status)
	}
	return &WebChain{chain: c}
}

// ChainEntry pairs an extraction provider with its availability.
type ChainEntry struct {
	Provider fallback.Provider[string, string]
	Status   config.Status
}

// NewWebChainFromConfig builds http -> browser. The returned closer shuts
// the browser down, if one was started.
func NewWebChainFromConfig(cfg *config.Config, avail config.Availability) (*WebChain, func() error) {
	browser := NewBrowserExtractor(cfg.Research.Browser.Headless, cfg.Research.Browser.ControlURL, cfg.GetNavigationTimeout())
	chain := NewWebChain(
		ChainEntry{Provider: NewHTTPExtractor(cfg.GetFetchTimeout(), cfg.Research.UserAgent), Status: config.Ready()},
		ChainEntry{Provider: browser, Status: avail.Browser},
	)
	return chain, browser.Close
}

// WithRecorder collects attempt records for the run report.
func (w *WebChain) WithRecorder(rec *fallback.Recorder) *WebChain {
	w.chain.WithRecorder(rec)
	return w
}

// WithAudit scopes attempt records to a run.
func (w *WebChain) WithAudit(a *logging.AuditLogger) *WebChain {
	w.chain.WithAudit(a)
	return w
}

// Extract returns the first non-empty extraction. When every provider
// fails the error carries the attempt summary.
func (w *WebChain) Extract(ctx context.Context, url string) (string, error) {
	res := w.chain.Run(ctx, url)
	if !res.OK {
		return "", fmt.Errorf("extract %s: %s: %w", url, res.Summary(), types.ErrProviderUnavailable)
	}
	return res.Value, nil
}
