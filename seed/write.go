package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/poiesic/merkor/core"
	"github.com/poiesic/merkor/storage"
)

// Stats counts what Write stored.
type Stats struct {
	Items     int
	Relations int
	Clusters  int
	Raw       int
}

// Write lays lex out in the keyspace behind w. Relations whose type id
// cannot be resolved from the document or from types are stored but left
// out of the per-type rankings.
func Write(ctx context.Context, w storage.Writer, lex *Lexicon, types *core.RelationTypes, logger *slog.Logger) (Stats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var stats Stats

	for name, id := range lex.RelationTypes {
		if err := w.Set(ctx, storage.RelationTypeKey(name), strconv.FormatUint(uint64(id), 10)); err != nil {
			return stats, fmt.Errorf("writing relation type %q: %w", name, err)
		}
	}

	items := make(map[core.ID]core.Item, len(lex.Items))
	for _, it := range lex.Items {
		key := storage.ItemKey(it.ID)
		err := w.HSet(ctx, key, map[string]string{
			storage.FieldLemma:     it.Lemma,
			storage.FieldWordclass: string(it.Wordclass),
		})
		if err != nil {
			return stats, fmt.Errorf("writing item %d: %w", it.ID, err)
		}
		if err := w.SAdd(ctx, storage.LemmaKey(it.Lemma), key); err != nil {
			return stats, fmt.Errorf("indexing item %d: %w", it.ID, err)
		}
		items[it.ID] = core.NewItem(it.ID, it.Lemma, it.Wordclass)
		stats.Items++
	}

	for _, rel := range lex.Relations {
		key := storage.RelationKey(rel.ID)
		err := w.HSet(ctx, key, map[string]string{
			storage.FieldFromItem: storage.ItemKey(rel.From),
			storage.FieldToItem:   storage.ItemKey(rel.To),
			storage.FieldRelation: rel.Relation,
			storage.FieldScore:    strconv.FormatFloat(rel.Score, 'g', -1, 64),
		})
		if err != nil {
			return stats, fmt.Errorf("writing relation %d: %w", rel.ID, err)
		}

		ranked := storage.ScoredMember{Member: key, Score: rel.Score}
		for _, end := range []core.ID{rel.From, rel.To} {
			if err := w.ZAdd(ctx, storage.SortedRelationsKey(end), ranked); err != nil {
				return stats, fmt.Errorf("ranking relation %d: %w", rel.ID, err)
			}
		}

		typeID := relationTypeID(rel, items[rel.From], lex, types)
		if typeID == 0 {
			logger.Warn("relation type not resolved, left out of type rankings", "relation", rel.ID, "name", rel.Relation)
		} else if err := w.ZAdd(ctx, storage.TopByTypeKey(typeID), ranked); err != nil {
			return stats, fmt.Errorf("ranking relation %d by type: %w", rel.ID, err)
		}
		stats.Relations++
	}

	for _, c := range lex.Clusters {
		key := storage.ClusterKey(c.Name, c.ID)
		members := make([]storage.ScoredMember, 0, len(c.Members))
		for _, m := range c.Members {
			members = append(members, storage.ScoredMember{Member: storage.ItemKey(m.Item), Score: m.Score})
			if err := w.SAdd(ctx, storage.InClusterKey(m.Item), key); err != nil {
				return stats, fmt.Errorf("indexing cluster %d: %w", c.ID, err)
			}
		}
		if err := w.ZAdd(ctx, key, members...); err != nil {
			return stats, fmt.Errorf("writing cluster %d: %w", c.ID, err)
		}
		stats.Clusters++
	}

	n, err := writeRaw(ctx, w, lex.Raw)
	stats.Raw = n
	if err != nil {
		return stats, err
	}

	logger.Info("lexicon written",
		"items", stats.Items,
		"relations", stats.Relations,
		"clusters", stats.Clusters,
		"raw", stats.Raw)
	return stats, nil
}

func relationTypeID(rel RelationEntry, from core.Item, lex *Lexicon, types *core.RelationTypes) core.ID {
	if rel.Type != 0 {
		return rel.Type
	}
	if types != nil {
		if id, ok := types.IDFor(rel.Relation, from); ok {
			return id
		}
	}
	return lex.RelationTypes[rel.Relation]
}

func writeRaw(ctx context.Context, w storage.Writer, raw RawRecords) (int, error) {
	n := 0
	for key, value := range raw.Strings {
		if err := w.Set(ctx, key, value); err != nil {
			return n, fmt.Errorf("writing raw %q: %w", key, err)
		}
		n++
	}
	for key, fields := range raw.Hashes {
		if err := w.HSet(ctx, key, fields); err != nil {
			return n, fmt.Errorf("writing raw %q: %w", key, err)
		}
		n++
	}
	for key, members := range raw.Sets {
		if err := w.SAdd(ctx, key, members...); err != nil {
			return n, fmt.Errorf("writing raw %q: %w", key, err)
		}
		n++
	}
	for key, entries := range raw.SortedSets {
		members := make([]storage.ScoredMember, len(entries))
		for i, e := range entries {
			members[i] = storage.ScoredMember{Member: e.Member, Score: e.Score}
		}
		if err := w.ZAdd(ctx, key, members...); err != nil {
			return n, fmt.Errorf("writing raw %q: %w", key, err)
		}
		n++
	}
	return n, nil
}
