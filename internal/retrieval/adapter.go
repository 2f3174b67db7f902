package retrieval

import (
	"encoding/json"
	"fmt"
	"strings"
)

// adaptHit maps one raw backend result onto a Hit. Backends disagree on
// field names, so this is the single place that knows them:
//
//	text:   "text", else "content"
//	source: "file", else "metadata.source", else "unknown"
//	score:  "score", else "similarity"
func adaptHit(raw map[string]any) Hit {
	h := Hit{
		Text:   firstString(raw, "text", "content"),
		Source: firstString(raw, "file"),
		Score:  firstFloat(raw, "score", "similarity"),
	}
	if h.Source == "" {
		if meta, ok := raw["metadata"].(map[string]any); ok {
			h.Source = firstString(meta, "source")
		}
	}
	if h.Source == "" {
		h.Source = "unknown"
	}
	return h
}

// decodeHits accepts either a bare list or an object with a "results" list.
func decodeHits(body []byte) ([]Hit, error) {
	var list []map[string]any
	if err := json.Unmarshal(body, &list); err != nil {
		var wrapped struct {
			Results []map[string]any `json:"results"`
		}
		if err2 := json.Unmarshal(body, &wrapped); err2 != nil {
			return nil, fmt.Errorf("unrecognised search response: %w", err)
		}
		list = wrapped.Results
	}

	hits := make([]Hit, 0, len(list))
	for _, raw := range list {
		h := adaptHit(raw)
		if strings.TrimSpace(h.Text) == "" {
			continue
		}
		hits = append(hits, h)
	}
	return hits, nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func firstFloat(m map[string]any, keys ...string) float64 {
	for _, k := range keys {
		if f, ok := m[k].(float64); ok {
			return f
		}
	}
	return 0
}
