package retrieval

import (
	"context"
	"sync"
)

// CollectionGuard makes EnsureCollection idempotent for its lifetime: each
// name is attempted at most once and the first outcome is remembered.
type CollectionGuard struct {
	store Store
	mu    sync.Mutex
	seen  map[string]error
}

// NewCollectionGuard wraps store.
func NewCollectionGuard(store Store) *CollectionGuard {
	return &CollectionGuard{store: store, seen: make(map[string]error)}
}

// Ensure creates name on first call and replays the first result after.
func (g *CollectionGuard) Ensure(ctx context.Context, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.seen[name]; ok {
		return err
	}
	err := g.store.EnsureCollection(ctx, name)
	g.seen[name] = err
	return err
}
