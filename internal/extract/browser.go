package extract

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"skyscope/internal/logging"
	"skyscope/internal/types"
)

// BrowserExtractor renders pages in headless Chrome, for pages whose
// content only exists after scripts run. The browser starts lazily on
// first use and is shared across extractions.
type BrowserExtractor struct {
	headless   bool
	controlURL string
	navTimeout time.Duration

	mu      sync.Mutex
	browser *rod.Browser
}

// NewBrowserExtractor creates a browser extractor. An empty controlURL
// launches a local Chrome.
func NewBrowserExtractor(headless bool, controlURL string, navTimeout time.Duration) *BrowserExtractor {
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}
	return &BrowserExtractor{headless: headless, controlURL: controlURL, navTimeout: navTimeout}
}

// Name returns the provider id.
func (b *BrowserExtractor) Name() string { return "browser" }

// Invoke adapts Extract to the fallback provider shape.
func (b *BrowserExtractor) Invoke(ctx context.Context, url string) (string, error) {
	return b.Extract(ctx, url)
}

func (b *BrowserExtractor) start() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		if _, err := b.browser.Version(); err == nil {
			return b.browser, nil
		}
		_ = b.browser.Close()
		b.browser = nil
	}

	controlURL := b.controlURL
	if controlURL == "" {
		u, err := launcher.New().Headless(b.headless).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %v: %w", err, types.ErrProviderUnavailable)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %v: %w", err, types.ErrProviderUnavailable)
	}
	logging.ExtractDebug("browser connected: %s", controlURL)
	b.browser = browser
	return browser, nil
}

// Extract navigates to url in an incognito context and extracts the
// rendered document's text.
func (b *BrowserExtractor) Extract(ctx context.Context, url string) (string, error) {
	browser, err := b.start()
	if err != nil {
		return "", err
	}

	incognito, err := browser.Incognito()
	if err != nil {
		return "", fmt.Errorf("incognito context: %w", err)
	}
	defer incognito.Close()

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	defer page.Close()

	p := page.Context(ctx).Timeout(b.navTimeout)
	if err := p.Navigate(url); err != nil {
		return "", fmt.Errorf("navigate %s: %v: %w", url, err, types.ErrProviderUnavailable)
	}
	if err := p.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load %s: %v: %w", url, err, types.ErrProviderUnavailable)
	}

	doc, err := p.HTML()
	if err != nil {
		return "", fmt.Errorf("read DOM: %w", err)
	}
	text, err := htmlToText(doc)
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %v: %w", err, types.ErrParseFailure)
	}
	logging.Extract("browser fetch completed: %s (%d chars)", url, len(text))
	return text, nil
}

// Close shuts the browser down, if it was started.
func (b *BrowserExtractor) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil
	return err
}
