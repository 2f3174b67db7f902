package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"skyscope/internal/logging"
	"skyscope/internal/types"
)

// ChatClient speaks the OpenAI chat-completions protocol. It serves both
// OpenRouter and LocalAI.
type ChatClient struct {
	name       string
	apiKey     string
	baseURL    string
	model      string
	siteURL    string
	siteName   string
	maxRetries int
	httpClient *http.Client
}

// ChatConfig configures a ChatClient.
type ChatConfig struct {
	Name       string
	APIKey     string // optional for LocalAI
	BaseURL    string // e.g. https://openrouter.ai/api/v1
	Model      string
	SiteURL    string // sent as HTTP-Referer when set
	SiteName   string // sent as X-Title when set
	MaxRetries int    // retries on 429
	Timeout    time.Duration
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewChatClient creates a chat-completions client.
func NewChatClient(cfg ChatConfig) *ChatClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &ChatClient{
		name:       cfg.Name,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		siteURL:    cfg.SiteURL,
		siteName:   cfg.SiteName,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// NewOpenRouterClient creates the OpenRouter provider.
func NewOpenRouterClient(apiKey, baseURL, model, siteURL, siteName string, timeout time.Duration) *ChatClient {
	return NewChatClient(ChatConfig{
		Name:       "openrouter",
		APIKey:     apiKey,
		BaseURL:    baseURL,
		Model:      model,
		SiteURL:    siteURL,
		SiteName:   siteName,
		MaxRetries: 2,
		Timeout:    timeout,
	})
}

// NewLocalAIClient creates the LocalAI provider. LocalAI needs no key.
func NewLocalAIClient(baseURL, model string, timeout time.Duration) *ChatClient {
	return NewChatClient(ChatConfig{
		Name:    "localai",
		BaseURL: baseURL,
		Model:   model,
		Timeout: timeout,
	})
}

// Name returns the provider id.
func (c *ChatClient) Name() string { return c.name }

// Complete sends a chat-completions request.
func (c *ChatClient) Complete(ctx context.Context, req Request) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("%s: base URL not configured: %w", c.name, types.ErrConfigurationMissing)
	}
	if c.name == "openrouter" && c.apiKey == "" {
		return "", fmt.Errorf("%s: API key not configured: %w", c.name, types.ErrConfigurationMissing)
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	body, err := json.Marshal(chatRequest{Model: model, Messages: req.Messages, Temperature: req.Temperature})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()
	logging.LLMDebug("[%s] complete: model=%s messages=%d", c.name, model, len(req.Messages))

	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, retry, err := c.do(ctx, body)
		if err == nil {
			logging.LLM("[%s] completed in %v response_len=%d", c.name, time.Since(start), len(text))
			return text, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}

	logging.LLMError("[%s] failed after %v: %v", c.name, time.Since(start), lastErr)
	return "", lastErr
}

// do performs one HTTP round trip. retry reports whether the failure is
// a rate limit worth retrying.
func (c *ChatClient) do(ctx context.Context, body []byte) (text string, retry bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.siteURL != "" {
		httpReq.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.siteName != "" {
		httpReq.Header.Set("X-Title", c.siteName)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", false, fmt.Errorf("%s request failed: %v: %w", c.name, err, types.ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return "", false, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", true, fmt.Errorf("%s rate limit exceeded (429): %w", c.name, types.ErrProviderUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("%s returned status %d: %s: %w", c.name, resp.StatusCode, snippet(data), types.ErrProviderUnavailable)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", false, fmt.Errorf("%s response: %v: %w", c.name, err, types.ErrParseFailure)
	}
	if parsed.Error != nil {
		return "", false, fmt.Errorf("%s API error: %s: %w", c.name, parsed.Error.Message, types.ErrProviderUnavailable)
	}
	if len(parsed.Choices) == 0 {
		return "", false, fmt.Errorf("%s: no completion returned: %w", c.name, types.ErrProviderUnavailable)
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), false, nil
}

func snippet(b []byte) string {
	return types.Truncate(strings.TrimSpace(string(b)), 200)
}
