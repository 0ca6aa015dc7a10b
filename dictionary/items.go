package dictionary

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/merkor/core"
	"github.com/poiesic/merkor/storage"
)

// ItemDictionary resolves lexical items.
type ItemDictionary struct {
	store  storage.Store
	pool   *ants.Pool
	logger *slog.Logger
}

// NewItemDictionary creates an item dictionary reading from store.
func NewItemDictionary(store storage.Store, opts ...Option) (*ItemDictionary, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	s, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &ItemDictionary{
		store:  store,
		pool:   s.pool,
		logger: s.logger.With("dictionary", "items"),
	}, nil
}

// ItemsForLemma returns every item with exactly this lemma, one per sense
// and wordclass, sorted.
func (d *ItemDictionary) ItemsForLemma(ctx context.Context, lemma string) ([]core.Item, error) {
	if err := core.ValidateNonEmpty(lemma, "lemma"); err != nil {
		return nil, err
	}
	keys, err := d.store.SMembers(ctx, storage.LemmaKey(lemma))
	if err != nil {
		return nil, err
	}
	items, err := d.itemsByKeys(ctx, keys)
	if err != nil {
		return nil, err
	}
	markSenses(items)
	return items, nil
}

// ItemsForLemmaAndWordclass returns the items of lemma in wordclass.
func (d *ItemDictionary) ItemsForLemmaAndWordclass(ctx context.Context, lemma string, wc core.Wordclass) ([]core.Item, error) {
	if err := core.ValidateNonEmpty(lemma, "lemma"); err != nil {
		return nil, err
	}
	if err := core.ValidateWordclass(wc); err != nil {
		return nil, err
	}
	items, err := d.ItemsForLemma(ctx, lemma)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(items, func(it core.Item) bool {
		return it.Wordclass != wc
	}), nil
}

// ItemsMatching returns the items of every lemma matching a store glob,
// such as "brauð*" or "mamm?".
func (d *ItemDictionary) ItemsMatching(ctx context.Context, pattern string) ([]core.Item, error) {
	if err := core.ValidateNonEmpty(pattern, "pattern"); err != nil {
		return nil, err
	}
	lemmaKeys, err := d.store.Keys(ctx, storage.LemmaPattern(pattern))
	if err != nil {
		return nil, err
	}
	if len(lemmaKeys) == 0 {
		return []core.Item{}, nil
	}
	keys, err := d.store.SUnion(ctx, lemmaKeys...)
	if err != nil {
		return nil, err
	}
	items, err := d.itemsByKeys(ctx, keys)
	if err != nil {
		return nil, err
	}
	markSenses(items)
	return items, nil
}

// ItemForID returns the item with the given id, or nil if there is none.
func (d *ItemDictionary) ItemForID(ctx context.Context, id core.ID) (*core.Item, error) {
	item, ok, err := d.itemByKey(ctx, storage.ItemKey(id))
	if err != nil || !ok {
		return nil, err
	}
	return &item, nil
}

// AllItems returns every item in the store, sorted.
func (d *ItemDictionary) AllItems(ctx context.Context) ([]core.Item, error) {
	keys, err := d.store.Keys(ctx, storage.AllItemsPattern())
	if err != nil {
		return nil, err
	}
	return d.itemsByKeys(ctx, keys)
}

// itemsByKeys decodes item keys concurrently, drops missing and malformed
// items and sorts the rest.
func (d *ItemDictionary) itemsByKeys(ctx context.Context, keys []string) ([]core.Item, error) {
	items, err := fanOut(ctx, d.pool, keys, d.itemByKey)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(items, core.CompareItems)
	return items, nil
}

// itemByKey reads one item hash. Absent items report false; malformed
// ones are logged and report false as well.
func (d *ItemDictionary) itemByKey(ctx context.Context, key string) (core.Item, bool, error) {
	id, err := storage.ParseItemKey(key)
	if err != nil {
		d.logger.Warn("skipping item", "key", key, "err", err)
		return core.Item{}, false, nil
	}
	fields, err := d.store.HGetAll(ctx, key)
	if err != nil {
		return core.Item{}, false, logStoreError(d.logger, "reading item", id, err)
	}
	if len(fields) == 0 {
		return core.Item{}, false, nil
	}
	item, err := decodeItem(id, fields)
	if err != nil {
		d.logger.Warn("skipping item", "key", key, "err", err)
		return core.Item{}, false, nil
	}
	n, err := d.store.ZCard(ctx, storage.SortedRelationsKey(id))
	if err != nil {
		return core.Item{}, false, logStoreError(d.logger, "counting wordpairs", id, err)
	}
	item.WordpairCount = int(n)
	return item, true, nil
}

func decodeItem(id core.ID, fields map[string]string) (core.Item, error) {
	lemma := fields[storage.FieldLemma]
	if lemma == "" {
		return core.Item{}, fmt.Errorf("%w: item %d has no lemma", storage.ErrMalformedRecord, id)
	}
	wc := core.Wordclass(fields[storage.FieldWordclass])
	if !core.IsValidWordclass(wc) {
		return core.Item{}, fmt.Errorf("%w: item %d has wordclass %q", storage.ErrMalformedRecord, id, wc)
	}
	return core.NewItem(id, lemma, wc), nil
}

// markSenses flags items sharing lemma and wordclass with another item.
func markSenses(items []core.Item) {
	counts := make(map[string]int, len(items))
	for _, it := range items {
		counts[it.LemmaAndWordclass()]++
	}
	for i := range items {
		items[i].HasMoreSenses = counts[items[i].LemmaAndWordclass()] > 1
	}
}
