package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyscope/internal/types"
)

func captionServer(t *testing.T, watchBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "dQw4w9WgXcQ", r.URL.Query().Get("v"))
		w.Write([]byte(watchBody))
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		lang := r.URL.Query().Get("lang")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="utf-8" ?><transcript>
<text start="0.0" dur="1.5">[%s] Markets &amp;amp; policy</text>
<text start="1.5" dur="2.0">it&amp;#39;s   shifting</text>
<text start="3.5" dur="1.0">  </text>
</transcript>`, lang)
	})
	return httptest.NewServer(mux)
}

func TestCaptionFetcherPrefersManualTrack(t *testing.T) {
	page := `<script>var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[` +
		`{"baseUrl":"/api/timedtext?v=dQw4w9WgXcQ&lang=fr","languageCode":"fr"},` +
		`{"baseUrl":"/api/timedtext?v=dQw4w9WgXcQ&lang=en-asr","languageCode":"en","kind":"asr"},` +
		`{"baseUrl":"/api/timedtext?v=dQw4w9WgXcQ&lang=en","languageCode":"en"}` +
		`],"audioTracks":[]}}};</script>`
	server := captionServer(t, page)
	defer server.Close()

	text, err := NewCaptionFetcher(server.URL, "en", time.Second).Transcript(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "[en] Markets & policy it's shifting", text)
}

func TestCaptionFetcherNoCaptions(t *testing.T) {
	server := captionServer(t, `<html>no player data</html>`)
	defer server.Close()

	_, err := NewCaptionFetcher(server.URL, "en", time.Second).Transcript(context.Background(), "dQw4w9WgXcQ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrProviderUnavailable))
	assert.Contains(t, err.Error(), "no captions")
}

func TestCaptionFetcherRejectsMalformedID(t *testing.T) {
	_, err := NewCaptionFetcher("http://unused", "en", time.Second).Transcript(context.Background(), "bad")
	assert.True(t, errors.Is(err, types.ErrParseFailure))
}

func TestPickTrackFallsBackToFirst(t *testing.T) {
	tracks := []captionTrack{{LanguageCode: "de"}, {LanguageCode: "fr"}}
	assert.Equal(t, "de", pickTrack(tracks, "en").LanguageCode)
	tracks = append(tracks, captionTrack{LanguageCode: "en", Kind: "asr"})
	assert.Equal(t, "asr", pickTrack(tracks, "en").Kind)
}
