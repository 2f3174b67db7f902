package llm

import (
	"context"
	"fmt"
	"time"

	"skyscope/internal/config"
	"skyscope/internal/fallback"
	"skyscope/internal/logging"
	"skyscope/internal/types"
)

// Completer is what the planner and synthesis stages depend on: a single
// system+user completion with the full attempt record.
type Completer interface {
	Complete(ctx context.Context, system, user string) fallback.Result[string]
}

// Router routes completions through providers in priority order.
type Router struct {
	chain       *fallback.Chain[Request, string]
	temperature float64
}

type clientProvider struct{ c Client }

func (p clientProvider) Name() string { return p.c.Name() }

func (p clientProvider) Invoke(ctx context.Context, req Request) (string, error) {
	return p.c.Complete(ctx, req)
}

// Entry pairs a client with its startup availability.
type Entry struct {
	Client Client
	Status config.Status
}

// NewRouter builds a router over explicit entries.
func NewRouter(temperature float64, timeout time.Duration, entries ...Entry) *Router {
	chain := fallback.New[Request, string]("completion").
		WithValidator(fallback.NonEmpty).
		WithTimeout(timeout)
	for _, e := range entries {
		chain.Add(clientProvider{e.Client}, e.Status)
	}
	return &Router{chain: chain, temperature: temperature}
}

// NewRouterFromConfig builds the openrouter -> gemini -> localai router.
func NewRouterFromConfig(ctx context.Context, cfg *config.Config, avail config.Availability) *Router {
	timeout := cfg.GetLLMTimeout()

	entries := []Entry{{
		Client: NewOpenRouterClient(cfg.LLM.OpenRouterAPIKey, cfg.LLM.OpenRouterBaseURL, cfg.LLM.Model,
			cfg.LLM.SiteURL, cfg.LLM.SiteName, timeout),
		Status: avail.OpenRouter,
	}}

	geminiStatus := avail.Gemini
	var gemini Client = unconfigured("gemini")
	if geminiStatus.Available {
		gc, err := NewGeminiClient(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel, "")
		if err != nil {
			logging.LLMWarn("gemini provider disabled: %v", err)
			geminiStatus = config.Unavailable("%v", err)
		} else {
			gemini = gc
		}
	}
	entries = append(entries, Entry{Client: gemini, Status: geminiStatus})

	entries = append(entries, Entry{
		Client: NewLocalAIClient(cfg.LLM.LocalAIBaseURL, cfg.LLM.LocalAIModel, timeout),
		Status: avail.LocalAI,
	})

	return NewRouter(cfg.LLM.Temperature, timeout, entries...)
}

// WithAudit scopes attempt records to a run.
func (r *Router) WithAudit(a *logging.AuditLogger) *Router {
	r.chain.WithAudit(a)
	return r
}

// WithRecorder collects attempt records for the run report.
func (r *Router) WithRecorder(rec *fallback.Recorder) *Router {
	r.chain.WithRecorder(rec)
	return r
}

// Providers lists provider ids in priority order.
func (r *Router) Providers() []string { return r.chain.Providers() }

// Complete runs one completion through the chain.
func (r *Router) Complete(ctx context.Context, system, user string) fallback.Result[string] {
	return r.chain.Run(ctx, NewRequest(system, user, r.temperature))
}

// unconfigured is a placeholder for providers that could not be built;
// the chain never invokes it because its status is unavailable.
type unconfigured string

func (u unconfigured) Name() string { return string(u) }

func (u unconfigured) Complete(context.Context, Request) (string, error) {
	return "", fmt.Errorf("%s not configured: %w", string(u), types.ErrConfigurationMissing)
}
