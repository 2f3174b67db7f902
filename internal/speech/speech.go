// Package speech narrates text to an audio file. Providers are tried in
// priority order; a generated silent track guarantees the chain always
// yields audio.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"skyscope/internal/types"
)

// Audio is a synthesized narration.
type Audio struct {
	Path     string
	Duration time.Duration // zero when the provider cannot tell
	Provider string
}

// Synthesizer is one narration provider. outStem is the output path
// without extension; the provider appends the extension of the format it
// produces and reports the final path.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text, outStem string) (Audio, error)
}

// maxAudioBytes bounds a downloaded narration.
const maxAudioBytes = 64 << 20

// postForAudio POSTs a JSON body and writes the response to path.
func postForAudio(ctx context.Context, client *http.Client, url string, headers map[string]string, body any, path string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %v: %w", err, types.ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(msg)), types.ErrProviderUnavailable)
	}
	if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(ct, "application/json") || strings.HasPrefix(ct, "text/") {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("expected audio, got %s: %s: %w", ct, strings.TrimSpace(string(msg)), types.ErrParseFailure)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	n, err := io.Copy(f, io.LimitReader(resp.Body, maxAudioBytes))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if n == 0 {
		os.Remove(path)
		return fmt.Errorf("empty audio response: %w", types.ErrProviderUnavailable)
	}
	return nil
}

// audioFor builds the Audio for a written file, reading the duration from
// the header when the file is WAV.
func audioFor(provider, path string) Audio {
	a := Audio{Path: path, Provider: provider}
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		if d, err := WAVDuration(path); err == nil {
			a.Duration = d
		}
	}
	return a
}
