package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"skyscope/internal/logging"
	"skyscope/internal/types"
)

// GeminiClient completes through the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini provider. baseURL is optional and
// overrides the API endpoint.
func NewGeminiClient(ctx context.Context, apiKey, model, baseURL string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key not configured: %w", types.ErrConfigurationMissing)
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	cc := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Name returns the provider id.
func (c *GeminiClient) Name() string { return "gemini" }

// Complete sends the request's user messages as contents and its system
// messages as the system instruction.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" || strings.Contains(model, "/") {
		// OpenRouter style ids ("vendor/model") are not Gemini model names.
		model = c.model
	}

	var contents []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if sys := req.System(); sys != "" {
		gc.SystemInstruction = genai.NewContentFromText(sys, genai.RoleUser)
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, gc)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %v: %w", err, types.ErrProviderUnavailable)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini: no completion returned: %w", types.ErrProviderUnavailable)
	}
	logging.LLM("[gemini] completed in %v response_len=%d", time.Since(start), len(text))
	return text, nil
}
