package retrieval

import (
	"context"
	"fmt"

	"skyscope/internal/config"
	"skyscope/internal/embedding"
	"skyscope/internal/logging"
)

// NewStoreFromConfig opens the retrieval backend selected by availability.
// It returns a nil store (and no error) when retrieval is unavailable. The
// returned closer is always safe to call.
func NewStoreFromConfig(ctx context.Context, cfg *config.Config, avail config.Availability) (Store, func() error, error) {
	noop := func() error { return nil }

	switch {
	case avail.LocalRecall.Available:
		logging.Retrieval("using LocalRecall at %s", cfg.Retrieval.LocalRecallURL)
		return NewLocalRecallClient(cfg.Retrieval.LocalRecallURL, 0), noop, nil

	case avail.EmbeddedStore.Available:
		var engine embedding.Engine
		if avail.Embeddings.Available {
			e, err := embedding.NewEngine(ctx, cfg.Retrieval.Embedding)
			if err != nil {
				logging.RetrievalWarn("embedding engine unavailable, keyword scoring only: %v", err)
			} else {
				engine = e
			}
		}
		store, err := NewEmbeddedStore(cfg.Retrieval.DatabasePath, engine)
		if err != nil {
			return nil, noop, fmt.Errorf("open embedded store: %w", err)
		}
		logging.Retrieval("using embedded store at %s", cfg.Retrieval.DatabasePath)
		return store, store.Close, nil

	default:
		logging.RetrievalDebug("retrieval disabled: %s / %s", avail.LocalRecall.Reason, avail.EmbeddedStore.Reason)
		return nil, noop, nil
	}
}
