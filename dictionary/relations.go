package dictionary

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/merkor/core"
	"github.com/poiesic/merkor/storage"
)

// minTopBatch is the smallest number of ranked relations read per round
// trip by the top-n queries.
const minTopBatch = 32

// RelationDictionary resolves relations between lexical items.
type RelationDictionary struct {
	store  storage.Store
	items  *ItemDictionary
	types  *core.RelationTypes
	pool   *ants.Pool
	logger *slog.Logger
}

// NewRelationDictionary creates a relation dictionary. Items resolves the
// endpoints of relations and types maps stored relation names to type ids.
func NewRelationDictionary(store storage.Store, items *ItemDictionary, types *core.RelationTypes, opts ...Option) (*RelationDictionary, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if items == nil {
		return nil, ErrItemDictionaryRequired
	}
	if types == nil {
		return nil, ErrRelationTypesRequired
	}
	s, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &RelationDictionary{
		store:  store,
		items:  items,
		types:  types,
		pool:   s.pool,
		logger: s.logger.With("dictionary", "relations"),
	}, nil
}

// RelationsFor returns every relation item takes part in, most related
// first.
func (d *RelationDictionary) RelationsFor(ctx context.Context, item *core.Item) ([]core.Relation, error) {
	if err := core.ValidateItem(item, "item"); err != nil {
		return nil, err
	}
	keys, err := d.store.ZRevRange(ctx, storage.SortedRelationsKey(item.ID), 0, -1)
	if err != nil {
		return nil, logStoreError(d.logger, "reading relation ranking", item.ID, err)
	}
	rels, err := fanOut(ctx, d.pool, keys, d.relationByKey)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(rels, core.CompareRelations)
	return rels, nil
}

// TopRelated returns the n relations of item with the highest confidence.
// The result is a prefix of RelationsFor.
func (d *RelationDictionary) TopRelated(ctx context.Context, item *core.Item, n int) ([]core.Relation, error) {
	if err := core.ValidateItem(item, "item"); err != nil {
		return nil, err
	}
	if err := core.ValidateCount(n, "n"); err != nil {
		return nil, err
	}
	return d.topN(ctx, storage.SortedRelationsKey(item.ID), n, nil)
}

// RelationsBetween returns the relations linking a and b. The result does
// not depend on the order of the arguments.
func (d *RelationDictionary) RelationsBetween(ctx context.Context, a, b *core.Item) ([]core.Relation, error) {
	if err := core.ValidateItem(a, "item1"); err != nil {
		return nil, err
	}
	if err := core.ValidateItem(b, "item2"); err != nil {
		return nil, err
	}
	left, err := d.RelationsFor(ctx, a)
	if err != nil {
		return nil, err
	}
	right, err := d.RelationsFor(ctx, b)
	if err != nil {
		return nil, err
	}
	return intersect(left, right), nil
}

// RelationsForLemma returns one RelationObject for every sense of lemma
// that has relations.
func (d *RelationDictionary) RelationsForLemma(ctx context.Context, lemma string) ([]core.RelationObject, error) {
	items, err := d.items.ItemsForLemma(ctx, lemma)
	if err != nil {
		return nil, err
	}
	objects := make([]core.RelationObject, 0, len(items))
	for _, item := range items {
		rels, err := d.RelationsFor(ctx, &item)
		if err != nil {
			return nil, err
		}
		if len(rels) > 0 {
			objects = append(objects, core.RelationObject{Item: &item, Relations: rels})
		}
	}
	return objects, nil
}

// RelationsForLemmas returns the relations between every sense of lemma1
// and every sense of lemma2, one RelationObject per related pair of senses.
//
// The object's item is the sense of the ambiguous lemma: the second
// lemma's when both are ambiguous, and none when neither is.
func (d *RelationDictionary) RelationsForLemmas(ctx context.Context, lemma1, lemma2 string) ([]core.RelationObject, error) {
	if err := core.ValidateNonEmpty(lemma1, "lemma1"); err != nil {
		return nil, err
	}
	if err := core.ValidateNonEmpty(lemma2, "lemma2"); err != nil {
		return nil, err
	}
	items1, err := d.items.ItemsForLemma(ctx, lemma1)
	if err != nil {
		return nil, err
	}
	items2, err := d.items.ItemsForLemma(ctx, lemma2)
	if err != nil {
		return nil, err
	}

	cache := make(map[core.ID][]core.Relation, len(items1)+len(items2))
	relationsOf := func(item *core.Item) ([]core.Relation, error) {
		if rels, ok := cache[item.ID]; ok {
			return rels, nil
		}
		rels, err := d.RelationsFor(ctx, item)
		if err != nil {
			return nil, err
		}
		cache[item.ID] = rels
		return rels, nil
	}

	ambiguous1, ambiguous2 := len(items1) > 1, len(items2) > 1
	objects := []core.RelationObject{}
	for _, item1 := range items1 {
		rels1, err := relationsOf(&item1)
		if err != nil {
			return nil, err
		}
		for _, item2 := range items2 {
			rels2, err := relationsOf(&item2)
			if err != nil {
				return nil, err
			}
			between := intersect(rels1, rels2)
			if len(between) == 0 {
				continue
			}
			var owner *core.Item
			switch {
			case ambiguous2:
				owner = &item2
			case ambiguous1:
				owner = &item1
			}
			objects = append(objects, core.RelationObject{Item: owner, Relations: between})
		}
	}
	return objects, nil
}

// MostRelatedForLemma returns, for every sense of lemma with relations, a
// RelationObject holding its n most related relations.
func (d *RelationDictionary) MostRelatedForLemma(ctx context.Context, lemma string, n int) ([]core.RelationObject, error) {
	if err := core.ValidateCount(n, "n"); err != nil {
		return nil, err
	}
	items, err := d.items.ItemsForLemma(ctx, lemma)
	if err != nil {
		return nil, err
	}
	objects := make([]core.RelationObject, 0, len(items))
	for _, item := range items {
		rels, err := d.TopRelated(ctx, &item, n)
		if err != nil {
			return nil, err
		}
		if len(rels) > 0 {
			objects = append(objects, core.RelationObject{Item: &item, Relations: rels})
		}
	}
	return objects, nil
}

// RelationsHavingLeft returns the relations of type t whose left item has
// the given lemma.
func (d *RelationDictionary) RelationsHavingLeft(ctx context.Context, lemma string, t *core.RelationType) ([]core.Relation, error) {
	return d.havingLemma(ctx, lemma, t, func(r core.Relation) core.Item { return r.Pair.From })
}

// RelationsHavingRight returns the relations of type t whose right item
// has the given lemma.
func (d *RelationDictionary) RelationsHavingRight(ctx context.Context, lemma string, t *core.RelationType) ([]core.Relation, error) {
	return d.havingLemma(ctx, lemma, t, func(r core.Relation) core.Item { return r.Pair.To })
}

// RelationsHavingLeftItem returns the relations of type t with item on the
// left.
func (d *RelationDictionary) RelationsHavingLeftItem(ctx context.Context, item *core.Item, t *core.RelationType) ([]core.Relation, error) {
	return d.havingItem(ctx, item, t, func(r core.Relation) core.Item { return r.Pair.From })
}

// RelationsHavingRightItem returns the relations of type t with item on
// the right.
func (d *RelationDictionary) RelationsHavingRightItem(ctx context.Context, item *core.Item, t *core.RelationType) ([]core.Relation, error) {
	return d.havingItem(ctx, item, t, func(r core.Relation) core.Item { return r.Pair.To })
}

// TopRelationsByType returns the n relations of type t with the highest
// confidence across the whole resource.
func (d *RelationDictionary) TopRelationsByType(ctx context.Context, t *core.RelationType, n int) ([]core.Relation, error) {
	if err := core.ValidateRelationType(t); err != nil {
		return nil, err
	}
	if err := core.ValidateCount(n, "n"); err != nil {
		return nil, err
	}
	return d.topN(ctx, storage.TopByTypeKey(t.ID), n, func(r core.Relation) bool {
		return r.Type.ID == t.ID
	})
}

// TypeIDFor returns the type id of a stored relation name given the left
// item of the relation, or 0 when the name is unknown. Names missing from
// the relation type table are looked up in the store's reltype keys.
func (d *RelationDictionary) TypeIDFor(ctx context.Context, name string, left core.Item) (core.ID, error) {
	if err := core.ValidateNonEmpty(name, "relation"); err != nil {
		return 0, err
	}
	if id, ok := d.types.IDFor(name, left); ok {
		return id, nil
	}
	value, found, err := d.store.Get(ctx, storage.RelationTypeKey(name))
	if err != nil || !found {
		return 0, err
	}
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		d.logger.Warn("ignoring relation type key", "name", name, "value", value)
		return 0, nil
	}
	return core.ID(id), nil
}

func (d *RelationDictionary) havingLemma(ctx context.Context, lemma string, t *core.RelationType, side func(core.Relation) core.Item) ([]core.Relation, error) {
	if err := core.ValidateNonEmpty(lemma, "lemma"); err != nil {
		return nil, err
	}
	if err := core.ValidateRelationType(t); err != nil {
		return nil, err
	}
	items, err := d.items.ItemsForLemma(ctx, lemma)
	if err != nil {
		return nil, err
	}
	seen := make(map[core.ID]struct{})
	out := []core.Relation{}
	for _, item := range items {
		rels, err := d.RelationsFor(ctx, &item)
		if err != nil {
			return nil, err
		}
		for _, r := range rels {
			if side(r).Lemma != lemma || r.Type.ID != t.ID {
				continue
			}
			if _, dup := seen[r.ID]; dup {
				continue
			}
			seen[r.ID] = struct{}{}
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, core.CompareRelations)
	return out, nil
}

func (d *RelationDictionary) havingItem(ctx context.Context, item *core.Item, t *core.RelationType, side func(core.Relation) core.Item) ([]core.Relation, error) {
	if err := core.ValidateItem(item, "item"); err != nil {
		return nil, err
	}
	if err := core.ValidateRelationType(t); err != nil {
		return nil, err
	}
	rels, err := d.RelationsFor(ctx, item)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(rels, func(r core.Relation) bool {
		return !side(r).Equal(*item) || r.Type.ID != t.ID
	}), nil
}

// topN reads the sorted set at key in batches until the n best relations
// passing keep are known. Reading continues past n while the ranking still
// holds scores tied with the n-th relation, so that ties order the same way
// as in RelationsFor.
func (d *RelationDictionary) topN(ctx context.Context, key string, n int, keep func(core.Relation) bool) ([]core.Relation, error) {
	batch := int64(max(n, minTopBatch))
	var rels []core.Relation
	for start := int64(0); ; start += batch {
		page, err := d.store.ZRevRangeWithScores(ctx, key, start, start+batch-1)
		if err != nil {
			return nil, logStoreError(d.logger, "reading ranking "+key, 0, err)
		}
		keys := make([]string, len(page))
		for i, m := range page {
			keys[i] = m.Member
		}
		decoded, err := fanOut(ctx, d.pool, keys, d.relationByKey)
		if err != nil {
			return nil, err
		}
		for _, r := range decoded {
			if keep == nil || keep(r) {
				rels = append(rels, r)
			}
		}
		if int64(len(page)) < batch {
			break
		}
		if len(rels) >= n {
			slices.SortStableFunc(rels, core.CompareRelations)
			if page[len(page)-1].Score < rels[n-1].Confidence {
				break
			}
		}
	}
	slices.SortStableFunc(rels, core.CompareRelations)
	if len(rels) > n {
		rels = rels[:n]
	}
	if rels == nil {
		rels = []core.Relation{}
	}
	return rels, nil
}

// relationByKey reads one relation hash and resolves its endpoints.
// Records with missing fields, an unparsable score or a missing endpoint
// are logged and skipped.
func (d *RelationDictionary) relationByKey(ctx context.Context, key string) (core.Relation, bool, error) {
	id, err := storage.ParseRelationKey(key)
	if err != nil {
		d.logger.Warn("skipping relation", "key", key, "err", err)
		return core.Relation{}, false, nil
	}
	fields, err := d.store.HGetAll(ctx, key)
	if err != nil {
		return core.Relation{}, false, logStoreError(d.logger, "reading relation", id, err)
	}
	skip := func(reason string, args ...any) (core.Relation, bool, error) {
		err := fmt.Errorf("%w: relation %d %s", storage.ErrMalformedRecord, id, fmt.Sprintf(reason, args...))
		d.logger.Warn("skipping relation", "key", key, "err", err)
		return core.Relation{}, false, nil
	}

	name := fields[storage.FieldRelation]
	if name == "" {
		return skip("has no relation name")
	}
	rawScore, ok := fields[storage.FieldScore]
	if !ok {
		return skip("has no score")
	}
	score, err := strconv.ParseFloat(rawScore, 64)
	if err != nil {
		return skip("has score %q", rawScore)
	}
	from, ok, err := d.items.itemByKey(ctx, fields[storage.FieldFromItem])
	if err != nil {
		return core.Relation{}, false, err
	}
	if !ok {
		return skip("has no left item %q", fields[storage.FieldFromItem])
	}
	to, ok, err := d.items.itemByKey(ctx, fields[storage.FieldToItem])
	if err != nil {
		return core.Relation{}, false, err
	}
	if !ok {
		return skip("has no right item %q", fields[storage.FieldToItem])
	}

	typeID, err := d.TypeIDFor(ctx, name, from)
	if err != nil {
		return core.Relation{}, false, err
	}
	if typeID == 0 {
		d.logger.Warn("unknown relation type", "relation", id, "name", name)
	}
	description := name
	if rt, ok := d.types.ByID(typeID); ok && rt.Description != "" {
		description = rt.Description
	}

	return core.Relation{
		ID:         id,
		Pair:       core.Pair{From: from, To: to},
		Type:       core.RelationType{ID: typeID, Name: name, Description: description},
		Confidence: score,
		Certainty:  core.DefaultCertainty,
	}, true, nil
}

// intersect returns the relations of a that also appear in b, keeping the
// order of a.
func intersect(a, b []core.Relation) []core.Relation {
	out := []core.Relation{}
	for _, r := range a {
		if slices.ContainsFunc(b, r.Equal) {
			out = append(out, r)
		}
	}
	return out
}
