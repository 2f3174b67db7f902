package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingStore struct {
	Store
	ensures map[string]int
	err     error
}

func (c *countingStore) EnsureCollection(_ context.Context, name string) error {
	c.ensures[name]++
	return c.err
}

func TestCollectionGuardAttemptsOncePerName(t *testing.T) {
	store := &countingStore{ensures: map[string]int{}}
	g := NewCollectionGuard(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.NoError(t, g.Ensure(ctx, "intel"))
	}
	assert.NoError(t, g.Ensure(ctx, "other"))
	assert.Equal(t, map[string]int{"intel": 1, "other": 1}, store.ensures)
}

func TestCollectionGuardRemembersFailure(t *testing.T) {
	store := &countingStore{ensures: map[string]int{}, err: errors.New("down")}
	g := NewCollectionGuard(store)

	assert.Error(t, g.Ensure(context.Background(), "intel"))
	assert.Error(t, g.Ensure(context.Background(), "intel"))
	assert.Equal(t, 1, store.ensures["intel"])
}
