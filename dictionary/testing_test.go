package dictionary

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/merkor/core"
	"github.com/poiesic/merkor/seed"
	"github.com/poiesic/merkor/storage"
	"github.com/stretchr/testify/require"
)

type testDictionaries struct {
	store     storage.Store
	items     *ItemDictionary
	relations *RelationDictionary
	clusters  *ClusterDictionary
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// forEachMode runs fn against the sample lexicon once decoding serially
// and once over a worker pool.
func forEachMode(t *testing.T, fn func(t *testing.T, d *testDictionaries)) {
	t.Helper()
	for _, pooled := range []bool{false, true} {
		name := "serial"
		if pooled {
			name = "pooled"
		}
		t.Run(name, func(t *testing.T) {
			fn(t, newTestDictionaries(t, pooled))
		})
	}
}

func newTestDictionaries(t *testing.T, pooled bool) *testDictionaries {
	t.Helper()
	store, err := seed.NewMemoryStore(context.Background(), quietLogger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return newDictionaries(t, store, pooled)
}

func newDictionaries(t *testing.T, store storage.Store, pooled bool) *testDictionaries {
	t.Helper()
	opts := []Option{WithLogger(quietLogger)}
	if pooled {
		pool, err := ants.NewPool(4)
		require.NoError(t, err)
		t.Cleanup(pool.Release)
		opts = append(opts, WithPool(pool))
	}

	types, err := core.DefaultRelationTypes()
	require.NoError(t, err)

	items, err := NewItemDictionary(store, opts...)
	require.NoError(t, err)
	relations, err := NewRelationDictionary(store, items, types, opts...)
	require.NoError(t, err)
	clusters, err := NewClusterDictionary(store, items, opts...)
	require.NoError(t, err)

	return &testDictionaries{store: store, items: items, relations: relations, clusters: clusters}
}

func itemIDs(items []core.Item) []core.ID {
	ids := make([]core.ID, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func relationIDs(rels []core.Relation) []core.ID {
	ids := make([]core.ID, len(rels))
	for i, r := range rels {
		ids[i] = r.ID
	}
	return ids
}

func mustItem(t *testing.T, d *testDictionaries, id core.ID) *core.Item {
	t.Helper()
	item, err := d.items.ItemForID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, item, "item %d", id)
	return item
}
