// Package embedding generates vectors for the embedded retrieval store.
// Backends: Ollama (local HTTP) and Gemini (genai).
package embedding

import (
	"context"
	"fmt"
	"math"
	"sort"

	"skyscope/internal/config"
	"skyscope/internal/logging"
)

// Engine generates vector embeddings for text.
type Engine interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Name() string
}

// NewEngine creates the configured engine. It returns (nil, nil) when no
// provider is configured; callers then fall back to keyword scoring.
func NewEngine(ctx context.Context, cfg config.EmbeddingConfig) (Engine, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "NewEngine")
	defer timer.Stop()

	var (
		engine Engine
		err    error
	)
	switch cfg.Provider {
	case "", "none":
		logging.EmbeddingDebug("no embedding provider configured")
		return nil, nil
	case "ollama":
		engine, err = NewOllamaEngine(cfg.OllamaEndpoint, cfg.OllamaModel)
	case "genai":
		engine, err = NewGenAIEngine(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.TaskType)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (use 'ollama' or 'genai')", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	logging.Embedding("embedding engine ready: %s", engine.Name())
	return engine, nil
}

// CosineSimilarity returns the cosine similarity of two vectors, in [-1, 1].
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same length: %d != %d", len(a), len(b))
	}

	var dot, aMag, bMag float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		aMag += float64(a[i]) * float64(a[i])
		bMag += float64(b[i]) * float64(b[i])
	}
	if aMag == 0 || bMag == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(aMag) * math.Sqrt(bMag)), nil
}

// SimilarityResult is one ranked corpus entry.
type SimilarityResult struct {
	Index      int
	Similarity float64
}

// FindTopK ranks corpus vectors against query. Vectors with a mismatched
// dimension are skipped.
func FindTopK(query []float32, corpus [][]float32, k int) []SimilarityResult {
	if k <= 0 {
		k = 10
	}
	results := make([]SimilarityResult, 0, len(corpus))
	skipped := 0
	for i, vec := range corpus {
		sim, err := CosineSimilarity(query, vec)
		if err != nil {
			skipped++
			continue
		}
		results = append(results, SimilarityResult{Index: i, Similarity: sim})
	}
	if skipped > 0 {
		logging.Get(logging.CategoryEmbedding).Warn("FindTopK: skipped %d vectors due to dimension mismatch", skipped)
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })
	if len(results) > k {
		results = results[:k]
	}
	return results
}
