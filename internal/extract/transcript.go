package extract

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"skyscope/internal/logging"
	"skyscope/internal/types"
)

// TranscriptExtractor returns the caption text of a hosted video.
type TranscriptExtractor interface {
	Transcript(ctx context.Context, videoID string) (string, error)
}

// CaptionFetcher reads the caption track list embedded in the video's
// watch page and downloads the preferred track.
type CaptionFetcher struct {
	client    *http.Client
	baseURL   string
	language  string
	userAgent string
}

// NewCaptionFetcher creates a transcript extractor. baseURL defaults to
// https://www.youtube.com.
func NewCaptionFetcher(baseURL, language string, timeout time.Duration) *CaptionFetcher {
	if baseURL == "" {
		baseURL = "https://www.youtube.com"
	}
	if language == "" {
		language = "en"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &CaptionFetcher{
		client:    &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(baseURL, "/"),
		language:  language,
		userAgent: "Mozilla/5.0 (compatible; skyscope/1.0)",
	}
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" for generated captions
}

type transcriptXML struct {
	Texts []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
}

// Transcript returns the caption text joined into one string.
func (f *CaptionFetcher) Transcript(ctx context.Context, videoID string) (string, error) {
	if !videoIDPattern.MatchString(videoID) {
		return "", fmt.Errorf("malformed video id %q: %w", videoID, types.ErrParseFailure)
	}

	page, err := f.get(ctx, f.baseURL+"/watch?v="+videoID)
	if err != nil {
		return "", err
	}

	tracks, err := parseCaptionTracks(page)
	if err != nil {
		return "", fmt.Errorf("video %s: %w", videoID, err)
	}
	track := pickTrack(tracks, f.language)

	trackURL := track.BaseURL
	if strings.HasPrefix(trackURL, "/") {
		trackURL = f.baseURL + trackURL
	}
	body, err := f.get(ctx, trackURL)
	if err != nil {
		return "", err
	}

	var doc transcriptXML
	if err := xml.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("caption track for %s: %v: %w", videoID, err, types.ErrParseFailure)
	}

	parts := make([]string, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		// tracks are entity-escaped twice; xml decoding removed one layer
		line := strings.TrimSpace(html.UnescapeString(t.Text))
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			parts = append(parts, line)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("video %s: empty transcript: %w", videoID, types.ErrProviderUnavailable)
	}

	logging.Extract("transcript %s: %d segments (%s)", videoID, len(parts), track.LanguageCode)
	return strings.Join(parts, " "), nil
}

func (f *CaptionFetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", f.language)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %v: %w", url, err, types.ErrProviderUnavailable)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d fetching %s: %w", resp.StatusCode, url, types.ErrProviderUnavailable)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

// parseCaptionTracks finds the "captionTracks" array in the watch page's
// embedded player response.
func parseCaptionTracks(page []byte) ([]captionTrack, error) {
	const marker = `"captionTracks":`
	s := string(page)
	idx := strings.Index(s, marker)
	if idx == -1 {
		return nil, fmt.Errorf("no captions available: %w", types.ErrProviderUnavailable)
	}

	var tracks []captionTrack
	dec := json.NewDecoder(strings.NewReader(s[idx+len(marker):]))
	if err := dec.Decode(&tracks); err != nil {
		return nil, fmt.Errorf("caption track list: %v: %w", err, types.ErrParseFailure)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("no captions available: %w", types.ErrProviderUnavailable)
	}
	return tracks, nil
}

// pickTrack prefers a manual track in lang, then a generated one in lang,
// then whatever comes first.
func pickTrack(tracks []captionTrack, lang string) captionTrack {
	var generated *captionTrack
	for i, t := range tracks {
		if !strings.HasPrefix(t.LanguageCode, lang) {
			continue
		}
		if t.Kind != "asr" {
			return t
		}
		if generated == nil {
			generated = &tracks[i]
		}
	}
	if generated != nil {
		return *generated
	}
	return tracks[0]
}
