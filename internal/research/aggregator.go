// Package research gathers intelligence for a directive from every
// configured source: linked web pages, linked video transcripts, and the
// local document store. Gather never fails and never returns an empty
// result.
package research

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"skyscope/internal/config"
	"skyscope/internal/extract"
	"skyscope/internal/logging"
	"skyscope/internal/retrieval"
	"skyscope/internal/types"
)

// Options bounds aggregation. Zero values take the defaults below.
type Options struct {
	DocsPath        string
	Collection      string
	TopK            int
	SnippetChars    int
	WebChars        int
	TranscriptChars int
}

const (
	defaultCollection      = "skyscope_intel"
	defaultTopK            = 10
	defaultSnippetChars    = 800
	defaultWebChars        = 2000
	defaultTranscriptChars = 3000
)

func (o Options) withDefaults() Options {
	if o.Collection == "" {
		o.Collection = defaultCollection
	}
	if o.TopK <= 0 {
		o.TopK = defaultTopK
	}
	if o.SnippetChars <= 0 {
		o.SnippetChars = defaultSnippetChars
	}
	if o.WebChars <= 0 {
		o.WebChars = defaultWebChars
	}
	if o.TranscriptChars <= 0 {
		o.TranscriptChars = defaultTranscriptChars
	}
	return o
}

// OptionsFromConfig maps the research section, clamping top-K and snippet
// length to their supported ranges.
func OptionsFromConfig(cfg config.ResearchConfig) Options {
	topK, snippet := cfg.Limits()
	return Options{
		DocsPath:        cfg.DocsPath,
		Collection:      cfg.Collection,
		TopK:            topK,
		SnippetChars:    snippet,
		WebChars:        cfg.WebChars,
		TranscriptChars: cfg.TranscriptChars,
	}
}

// Aggregator runs the research steps in a fixed order. Any collaborator
// may be nil, in which case its step contributes nothing.
type Aggregator struct {
	opts        Options
	web         extract.WebExtractor
	transcripts extract.TranscriptExtractor
	store       retrieval.Store
	guard       *retrieval.CollectionGuard
	warnedDedup bool
}

// NewAggregator creates an aggregator.
func NewAggregator(opts Options, web extract.WebExtractor, transcripts extract.TranscriptExtractor, store retrieval.Store) *Aggregator {
	a := &Aggregator{
		opts:        opts.withDefaults(),
		web:         web,
		transcripts: transcripts,
		store:       store,
	}
	if store != nil {
		a.guard = retrieval.NewCollectionGuard(store)
	}
	return a
}

// Gather collects intelligence for directive. Order: linked sources in
// directive order, then local-store hits, then (only when both produced
// nothing) a single degraded-mode placeholder.
func (a *Aggregator) Gather(ctx context.Context, directive string) types.ResearchResult {
	timer := logging.StartTimer(logging.CategoryResearch, "Gather")
	defer timer.Stop()

	var result types.ResearchResult

	urls := extract.ExtractURLs(directive)
	if len(urls) > 0 {
		logging.Research("found %d link(s) in directive", len(urls))
	}
	for _, u := range urls {
		var item *types.IntelligenceItem
		switch extract.Classify(u) {
		case extract.KindVideo:
			item = a.videoItem(ctx, u)
		default:
			item = a.webItem(ctx, u)
		}
		if item != nil {
			result = append(result, *item)
		}
	}

	a.ingestLocalDocs(ctx)
	result = append(result, a.searchStore(ctx, directive)...)

	if len(result) == 0 {
		logging.ResearchWarn("no intelligence gathered, continuing in degraded mode")
		result = types.ResearchResult{degradedItem(directive)}
	}

	logging.Research("gathered %d intelligence item(s)", len(result))
	return result
}

func degradedItem(directive string) types.IntelligenceItem {
	return types.IntelligenceItem{
		Source: types.DegradedSource,
		Content: fmt.Sprintf("No intelligence sources were reachable for %q. Analysis proceeds on model knowledge alone.",
			types.Truncate(strings.TrimSpace(directive), 120)),
	}
}

func (a *Aggregator) videoItem(ctx context.Context, u string) *types.IntelligenceItem {
	if a.transcripts == nil {
		logging.ResearchDebug("no transcript extractor, skipping %s", u)
		return nil
	}
	id, ok := extract.VideoID(u)
	if !ok {
		logging.ResearchWarn("skipping video link %s: no video id", u)
		return nil
	}
	text, err := a.transcripts.Transcript(ctx, id)
	if err != nil {
		logging.ResearchWarn("skipping video %s: %v", id, err)
		return nil
	}
	if strings.TrimSpace(text) == "" {
		logging.ResearchWarn("skipping video %s: empty transcript", id)
		return nil
	}
	logging.ResearchDebug("transcript for %s: %d chars", id, len(text))
	return &types.IntelligenceItem{
		Source:  types.TranscriptPrefix + id,
		Content: types.Truncate(text, a.opts.TranscriptChars),
	}
}

func (a *Aggregator) webItem(ctx context.Context, u string) *types.IntelligenceItem {
	if a.web == nil {
		logging.ResearchDebug("no web extractor, skipping %s", u)
		return nil
	}
	text, err := a.web.Extract(ctx, u)
	if err != nil {
		logging.ResearchWarn("skipping %s: %v", u, err)
		return nil
	}
	if strings.TrimSpace(text) == "" {
		logging.ResearchWarn("skipping %s: no text extracted", u)
		return nil
	}
	return &types.IntelligenceItem{
		Source:  u,
		Content: types.Truncate(text, a.opts.WebChars),
	}
}

// ingestLocalDocs uploads every supported file under the docs path.
func (a *Aggregator) ingestLocalDocs(ctx context.Context) {
	if a.store == nil || strings.TrimSpace(a.opts.DocsPath) == "" {
		return
	}
	info, err := os.Stat(a.opts.DocsPath)
	if err != nil || !info.IsDir() {
		logging.ResearchDebug("docs path %s not usable, skipping ingest", a.opts.DocsPath)
		return
	}

	if err := a.guard.Ensure(ctx, a.opts.Collection); err != nil {
		logging.ResearchWarn("cannot ensure collection %q, skipping ingest: %v", a.opts.Collection, err)
		return
	}

	files, err := documentFiles(a.opts.DocsPath)
	if err != nil {
		logging.ResearchWarn("walking %s: %v", a.opts.DocsPath, err)
	}
	if len(files) == 0 {
		return
	}

	if !a.store.DeduplicatesUploads() && !a.warnedDedup {
		logging.ResearchWarn("%s store does not deduplicate uploads; %d local document(s) will be ingested again",
			a.store.Name(), len(files))
		a.warnedDedup = true
	}

	ingested := 0
	for _, path := range files {
		if ctx.Err() != nil {
			logging.ResearchWarn("ingest interrupted: %v", ctx.Err())
			break
		}
		uploaded, err := a.store.Upload(ctx, a.opts.Collection, path)
		if err != nil {
			logging.ResearchWarn("ingest %s failed: %v", path, err)
			continue
		}
		if uploaded {
			ingested++
		}
	}
	if ingested > 0 {
		logging.Research("ingested %d new local document(s)", ingested)
	}
}

// documentFiles walks root recursively in lexical order and returns the
// supported documents. Unreadable subtrees are skipped.
func documentFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.ResearchDebug("skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && retrieval.IsSupportedDocument(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func (a *Aggregator) searchStore(ctx context.Context, directive string) []types.IntelligenceItem {
	if a.store == nil {
		return nil
	}
	hits, err := a.store.Search(ctx, a.opts.Collection, directive, a.opts.TopK)
	if err != nil {
		logging.ResearchWarn("store search failed: %v", err)
		return nil
	}

	items := make([]types.IntelligenceItem, 0, len(hits))
	for _, h := range hits {
		if len(items) == a.opts.TopK {
			break
		}
		if strings.TrimSpace(h.Text) == "" {
			continue
		}
		items = append(items, types.IntelligenceItem{
			Source:  fmt.Sprintf("%s%s/%s", types.RecallSourcePrefix, a.opts.Collection, filepath.Base(h.Source)),
			Content: types.Truncate(h.Text, a.opts.SnippetChars),
		})
	}
	logging.ResearchDebug("store returned %d hit(s)", len(items))
	return items
}
