package research

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"skyscope/internal/logging"
	"skyscope/internal/retrieval"
	"skyscope/internal/types"
)

type fakeWeb struct {
	pages map[string]string
	calls []string
}

func (f *fakeWeb) Extract(_ context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	if text, ok := f.pages[url]; ok {
		return text, nil
	}
	return "", errors.New("404")
}

type fakeTranscripts struct {
	captions map[string]string
}

func (f *fakeTranscripts) Transcript(_ context.Context, id string) (string, error) {
	if text, ok := f.captions[id]; ok {
		return text, nil
	}
	return "", errors.New("no captions")
}

type fakeStore struct {
	dedup     bool
	ensures   int
	ensureErr error
	uploads   []string
	hits      []retrieval.Hit
	searchErr error
	lastLimit int
	lastQuery string
}

func (f *fakeStore) Name() string { return "fake" }

func (f *fakeStore) EnsureCollection(context.Context, string) error {
	f.ensures++
	return f.ensureErr
}

func (f *fakeStore) Upload(_ context.Context, _ string, path string) (bool, error) {
	f.uploads = append(f.uploads, path)
	return true, nil
}

func (f *fakeStore) Search(_ context.Context, _ string, query string, limit int) ([]retrieval.Hit, error) {
	f.lastQuery, f.lastLimit = query, limit
	return f.hits, f.searchErr
}

func (f *fakeStore) DeduplicatesUploads() bool { return f.dedup }

func TestGatherNothingReachableYieldsSingleDegradedItem(t *testing.T) {
	agg := NewAggregator(Options{}, nil, nil, nil)

	result := agg.Gather(context.Background(), "Analyze tensions in region X")

	require.Len(t, result, 1)
	assert.Equal(t, types.DegradedSource, result[0].Source)
	assert.Contains(t, result[0].Content, "Analyze tensions in region X")
	assert.True(t, result.Degraded())
}

func TestGatherAllSourcesFailingStillDegrades(t *testing.T) {
	store := &fakeStore{searchErr: errors.New("down")}
	agg := NewAggregator(Options{}, &fakeWeb{}, &fakeTranscripts{}, store)

	result := agg.Gather(context.Background(),
		"see https://example.com/a and https://youtu.be/dQw4w9WgXcQ")

	require.Len(t, result, 1)
	assert.True(t, result[0].IsDegraded())
}

func TestGatherVideoTranscriptOrderedBeforeStoreHits(t *testing.T) {
	store := &fakeStore{dedup: true, hits: []retrieval.Hit{
		{Text: "archived memo", Source: "memo.md"},
		{Text: "", Source: "blank.md"},
	}}
	transcripts := &fakeTranscripts{captions: map[string]string{"dQw4w9WgXcQ": "speaker discusses supply chains"}}
	web := &fakeWeb{pages: map[string]string{"https://example.com/report": "web report body"}}
	agg := NewAggregator(Options{Collection: "intel"}, web, transcripts, store)

	result := agg.Gather(context.Background(),
		"Compare https://www.youtube.com/watch?v=dQw4w9WgXcQ, https://example.com/report. and the archives")

	want := types.ResearchResult{
		{Source: "youtube:dQw4w9WgXcQ", Content: "speaker discusses supply chains"},
		{Source: "https://example.com/report", Content: "web report body"},
		{Source: "recall:intel/memo.md", Content: "archived memo"},
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"https://example.com/report"}, web.calls, "trailing punctuation trimmed, video not fetched as web")
}

func TestGatherTruncatesPerSource(t *testing.T) {
	long := strings.Repeat("x", 5000)
	store := &fakeStore{dedup: true, hits: []retrieval.Hit{{Text: long, Source: "a.md"}}}
	agg := NewAggregator(Options{Collection: "c"},
		&fakeWeb{pages: map[string]string{"https://example.com": long}},
		&fakeTranscripts{captions: map[string]string{"dQw4w9WgXcQ": long}},
		store)

	result := agg.Gather(context.Background(), "https://youtu.be/dQw4w9WgXcQ https://example.com")

	require.Len(t, result, 3)
	assert.Len(t, []rune(result[0].Content), 3000)
	assert.Len(t, []rune(result[1].Content), 2000)
	assert.Len(t, []rune(result[2].Content), 800)
	assert.Equal(t, 10, store.lastLimit)
}

func TestGatherMalformedVideoURLSkipped(t *testing.T) {
	agg := NewAggregator(Options{}, &fakeWeb{}, &fakeTranscripts{}, nil)
	result := agg.Gather(context.Background(), "https://www.youtube.com/watch?v=short")
	require.Len(t, result, 1)
	assert.True(t, result[0].IsDegraded())
}

func writeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"b.md":            "beta",
		"a.txt":           "alpha",
		"image.png":       "binary",
		"sub/c.PDF":       "%PDF-1.4",
		"sub/deeper/d.md": "delta",
	}
	for name, body := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	}
	return root
}

func TestGatherIngestsSupportedDocsInLexicalOrder(t *testing.T) {
	root := writeTree(t)
	store := &fakeStore{dedup: true}
	agg := NewAggregator(Options{DocsPath: root}, nil, nil, store)

	agg.Gather(context.Background(), "anything")

	var rel []string
	for _, p := range store.uploads {
		r, err := filepath.Rel(root, p)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.Equal(t, []string{"a.txt", "b.md", "sub/c.PDF", "sub/deeper/d.md"}, rel)
}

func TestGatherEnsuresCollectionAtMostOnce(t *testing.T) {
	store := &fakeStore{dedup: true}
	agg := NewAggregator(Options{DocsPath: writeTree(t)}, nil, nil, store)

	agg.Gather(context.Background(), "first")
	agg.Gather(context.Background(), "second")

	assert.Equal(t, 1, store.ensures)
}

func TestGatherSkipsIngestWhenCollectionFails(t *testing.T) {
	store := &fakeStore{ensureErr: errors.New("refused"), hits: []retrieval.Hit{{Text: "old", Source: "x.md"}}}
	agg := NewAggregator(Options{DocsPath: writeTree(t)}, nil, nil, store)

	result := agg.Gather(context.Background(), "q")

	assert.Empty(t, store.uploads)
	require.Len(t, result, 1)
	assert.Equal(t, "recall:skyscope_intel/x.md", result[0].Source)
}

func TestGatherWarnsWhenStoreDoesNotDeduplicate(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logging.Use(zap.New(core))
	t.Cleanup(func() { logging.Use(zap.NewNop()) })

	store := &fakeStore{dedup: false}
	agg := NewAggregator(Options{DocsPath: writeTree(t)}, nil, nil, store)
	agg.Gather(context.Background(), "q")
	agg.Gather(context.Background(), "q")

	warnings := logs.FilterMessageSnippet("does not deduplicate").All()
	assert.Len(t, warnings, 1)
}

func TestGatherWithEmbeddedStore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "grid.md"),
		[]byte("Grid operators report rising instability during heat waves."), 0644))

	store, err := retrieval.NewEmbeddedStore(filepath.Join(t.TempDir(), "intel.db"), nil)
	require.NoError(t, err)
	defer store.Close()

	agg := NewAggregator(Options{DocsPath: root, Collection: "intel"}, nil, nil, store)
	first := agg.Gather(context.Background(), "grid instability")
	second := agg.Gather(context.Background(), "grid instability")

	require.Len(t, first, 1)
	assert.Equal(t, "recall:intel/grid.md", first[0].Source)
	assert.Equal(t, first, second, "re-ingest is a no-op for a deduplicating store")
}

func TestGatherSendsNonVideoYouTubePagesToWebExtractor(t *testing.T) {
	playlist := "https://www.youtube.com/playlist?list=PL123"
	channel := "https://www.youtube.com/@somechannel/about"
	web := &fakeWeb{pages: map[string]string{playlist: "playlist page", channel: "channel page"}}
	agg := NewAggregator(Options{}, web, &fakeTranscripts{}, nil)

	result := agg.Gather(context.Background(), "review "+playlist+" and "+channel)

	assert.Equal(t, []string{playlist, channel}, web.calls)
	want := types.ResearchResult{
		{Source: playlist, Content: "playlist page"},
		{Source: channel, Content: "channel page"},
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}
