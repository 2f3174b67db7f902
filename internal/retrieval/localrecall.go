package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"skyscope/internal/logging"
	"skyscope/internal/types"
)

// LocalRecallClient talks to a LocalRecall server.
type LocalRecallClient struct {
	baseURL string
	client  *http.Client
}

// NewLocalRecallClient creates a client for baseURL.
func NewLocalRecallClient(baseURL string, timeout time.Duration) *LocalRecallClient {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &LocalRecallClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the backend id.
func (c *LocalRecallClient) Name() string { return "localrecall" }

// DeduplicatesUploads is false: LocalRecall stores every upload it receives.
func (c *LocalRecallClient) DeduplicatesUploads() bool { return false }

func (c *LocalRecallClient) collectionURL(name string, parts ...string) string {
	u := c.baseURL + "/collections"
	if name != "" {
		u += "/" + url.PathEscape(name)
	}
	for _, p := range parts {
		u += "/" + p
	}
	return u
}

// EnsureCollection creates the collection, tolerating "already exists".
func (c *LocalRecallClient) EnsureCollection(ctx context.Context, name string) error {
	body, _ := json.Marshal(map[string]string{"name": name})
	status, resp, err := c.do(ctx, http.MethodPost, c.collectionURL(""), "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	switch {
	case status >= 200 && status < 300:
		logging.Retrieval("collection %q created", name)
		return nil
	case status == http.StatusConflict || strings.Contains(strings.ToLower(string(resp)), "already exists"):
		logging.RetrievalDebug("collection %q already exists", name)
		return nil
	default:
		return fmt.Errorf("create collection %q: status %d: %s: %w", name, status, snippet(resp), types.ErrProviderUnavailable)
	}
}

// Upload sends the file as multipart field "file".
func (c *LocalRecallClient) Upload(ctx context.Context, collection, path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return false, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return false, fmt.Errorf("build upload: %w", err)
	}

	status, resp, err := c.do(ctx, http.MethodPost, c.collectionURL(collection, "upload"), mw.FormDataContentType(), &buf)
	if err != nil {
		return false, err
	}
	if status < 200 || status >= 300 {
		return false, fmt.Errorf("upload %s: status %d: %s: %w", filepath.Base(path), status, snippet(resp), types.ErrProviderUnavailable)
	}
	logging.RetrievalDebug("uploaded %s to %q", filepath.Base(path), collection)
	return true, nil
}

// Search runs a similarity search.
func (c *LocalRecallClient) Search(ctx context.Context, collection, query string, limit int) ([]Hit, error) {
	body, _ := json.Marshal(map[string]any{"query": query, "max_results": limit})
	status, resp, err := c.do(ctx, http.MethodPost, c.collectionURL(collection, "search"), "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("search %q: status %d: %s: %w", collection, status, snippet(resp), types.ErrProviderUnavailable)
	}
	hits, err := decodeHits(resp)
	if err != nil {
		return nil, fmt.Errorf("search %q: %v: %w", collection, err, types.ErrParseFailure)
	}
	if len(hits) > limit && limit > 0 {
		hits = hits[:limit]
	}
	return hits, nil
}

func (c *LocalRecallClient) do(ctx context.Context, method, u, contentType string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("localrecall request failed: %v: %w", err, types.ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

func snippet(b []byte) string {
	return types.Truncate(strings.TrimSpace(string(b)), 200)
}
