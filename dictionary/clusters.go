package dictionary

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/merkor/core"
	"github.com/poiesic/merkor/storage"
)

// ClusterDictionary resolves clusters, their members and the domains
// items belong to.
type ClusterDictionary struct {
	store  storage.Store
	items  *ItemDictionary
	pool   *ants.Pool
	logger *slog.Logger
}

// NewClusterDictionary creates a cluster dictionary.
func NewClusterDictionary(store storage.Store, items *ItemDictionary, opts ...Option) (*ClusterDictionary, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if items == nil {
		return nil, ErrItemDictionaryRequired
	}
	s, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &ClusterDictionary{
		store:  store,
		items:  items,
		pool:   s.pool,
		logger: s.logger.With("dictionary", "clusters"),
	}, nil
}

// ClustersMatching returns the clusters whose name matches a store glob,
// ignoring case. ".*" and ".?" are accepted for "*" and "?".
func (d *ClusterDictionary) ClustersMatching(ctx context.Context, pattern string) ([]core.Cluster, error) {
	if err := core.ValidateNonEmpty(pattern, "pattern"); err != nil {
		return nil, err
	}
	keys, err := d.keysMatching(ctx, storage.ClusterNamePatterns(pattern))
	if err != nil {
		return nil, err
	}
	clusters, err := fanOut(ctx, d.pool, keys, d.clusterByKey)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(clusters, compareClusters)
	return clusters, nil
}

// ClusterByID returns the cluster with the given id, or nil if there is
// none.
func (d *ClusterDictionary) ClusterByID(ctx context.Context, id core.ID) (*core.Cluster, error) {
	keys, err := d.store.Keys(ctx, storage.ClusterIDPattern(id))
	if err != nil {
		return nil, logStoreError(d.logger, "scanning clusters", id, err)
	}
	slices.Sort(keys)
	for _, key := range keys {
		_, keyID, err := storage.ParseClusterKey(key)
		if err != nil || keyID != id {
			continue
		}
		c, ok, err := d.clusterByKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			return &c, nil
		}
	}
	return nil, nil
}

// AllClusterNames returns the distinct names of the named clusters, sorted.
func (d *ClusterDictionary) AllClusterNames(ctx context.Context) ([]string, error) {
	keys, err := d.store.Keys(ctx, storage.AllClustersPattern())
	if err != nil {
		return nil, logStoreError(d.logger, "scanning clusters", 0, err)
	}
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		name, _, err := storage.ParseClusterKey(key)
		if err != nil {
			d.logger.Debug("skipping cluster key", "key", key, "err", err)
			continue
		}
		if name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

// ClustersFor returns the clusters item belongs to with its score in each,
// highest score first.
func (d *ClusterDictionary) ClustersFor(ctx context.Context, item *core.Item) ([]core.ClusterMember, error) {
	if err := core.ValidateItem(item, "item"); err != nil {
		return nil, err
	}
	keys, err := d.store.SMembers(ctx, storage.InClusterKey(item.ID))
	if err != nil {
		return nil, logStoreError(d.logger, "reading cluster index", item.ID, err)
	}
	member := storage.ItemKey(item.ID)
	members, err := fanOut(ctx, d.pool, keys, func(ctx context.Context, key string) (core.ClusterMember, bool, error) {
		c, ok, err := d.clusterByKey(ctx, key)
		if err != nil || !ok {
			return core.ClusterMember{}, false, err
		}
		score, _, err := d.store.ZScore(ctx, key, member)
		if err != nil {
			return core.ClusterMember{}, false, logStoreError(d.logger, "reading cluster score", c.ID, err)
		}
		return core.ClusterMember{Item: *item, Cluster: c, Value: score}, true, nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(members, func(a, b core.ClusterMember) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return compareClusters(a.Cluster, b.Cluster)
	})
	return members, nil
}

// ClustersForID is ClustersFor for the item with the given id. An unknown
// id has no clusters.
func (d *ClusterDictionary) ClustersForID(ctx context.Context, id core.ID) ([]core.ClusterMember, error) {
	item, err := d.items.ItemForID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return []core.ClusterMember{}, nil
	}
	return d.ClustersFor(ctx, item)
}

// ClustersForLemma returns the cluster memberships of every sense of lemma.
func (d *ClusterDictionary) ClustersForLemma(ctx context.Context, lemma string) ([]core.ClusterMember, error) {
	items, err := d.items.ItemsForLemma(ctx, lemma)
	if err != nil {
		return nil, err
	}
	out := []core.ClusterMember{}
	for _, item := range items {
		members, err := d.ClustersFor(ctx, &item)
		if err != nil {
			return nil, err
		}
		out = append(out, members...)
	}
	return out, nil
}

// ClusterMembersOf returns the members of a cluster, closest to the center
// first. An unknown cluster has no members.
func (d *ClusterDictionary) ClusterMembersOf(ctx context.Context, id core.ID) ([]core.ClusterMember, error) {
	c, err := d.ClusterByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return []core.ClusterMember{}, nil
	}
	scored, err := d.store.ZRevRangeWithScores(ctx, storage.ClusterKey(c.Name, c.ID), 0, -1)
	if err != nil {
		return nil, logStoreError(d.logger, "reading cluster members", id, err)
	}
	return fanOut(ctx, d.pool, scored, func(ctx context.Context, m storage.ScoredMember) (core.ClusterMember, bool, error) {
		item, ok, err := d.items.itemByKey(ctx, m.Member)
		if err != nil || !ok {
			return core.ClusterMember{}, false, err
		}
		return core.ClusterMember{Item: item, Cluster: *c, Value: m.Score}, true, nil
	})
}

// ItemsForCluster returns the member items of a cluster, closest to the
// center first.
func (d *ClusterDictionary) ItemsForCluster(ctx context.Context, id core.ID) ([]core.Item, error) {
	members, err := d.ClusterMembersOf(ctx, id)
	if err != nil {
		return nil, err
	}
	items := make([]core.Item, len(members))
	for i, m := range members {
		items[i] = m.Item
	}
	return items, nil
}

// DomainsFor maps the domains of every sense of lemma to the sense in that
// domain. A domain is a cluster's display name, so unnamed clusters
// contribute the lemma of their center item. When a sense is in several
// clusters of the same domain, the highest scoring membership wins.
func (d *ClusterDictionary) DomainsFor(ctx context.Context, lemma string) (map[string]core.Item, error) {
	members, err := d.ClustersForLemma(ctx, lemma)
	if err != nil {
		return nil, err
	}
	domains := make(map[string]core.Item, len(members))
	for _, m := range members {
		name := m.Cluster.DisplayName()
		if name == "" {
			continue
		}
		if _, ok := domains[name]; !ok {
			domains[name] = m.Item
		}
	}
	return domains, nil
}

// ItemsForDomain returns the items of every cluster whose name matches
// domain in lower or upper case, sorted. Domain may be a glob such as
// "íþróttir_*". An empty domain has no items.
func (d *ClusterDictionary) ItemsForDomain(ctx context.Context, domain string) ([]core.Item, error) {
	if domain == "" {
		return []core.Item{}, nil
	}
	keys, err := d.keysMatching(ctx, storage.ClusterNamePatterns(domain))
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var members []string
	for _, key := range keys {
		if _, _, err := storage.ParseClusterKey(key); err != nil {
			d.logger.Debug("skipping cluster key", "key", key, "err", err)
			continue
		}
		ranked, err := d.store.ZRevRange(ctx, key, 0, -1)
		if err != nil {
			return nil, logStoreError(d.logger, "reading cluster "+key, 0, err)
		}
		for _, m := range ranked {
			if _, dup := seen[m]; !dup {
				seen[m] = struct{}{}
				members = append(members, m)
			}
		}
	}
	return d.items.itemsByKeys(ctx, members)
}

// keysMatching returns the distinct keys matching any of patterns, sorted.
func (d *ClusterDictionary) keysMatching(ctx context.Context, patterns []string) ([]string, error) {
	var keys []string
	for _, p := range patterns {
		matched, err := d.store.Keys(ctx, p)
		if err != nil {
			return nil, logStoreError(d.logger, "scanning "+p, 0, err)
		}
		keys = append(keys, matched...)
	}
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

// clusterByKey decodes a cluster key. Keys that do not decode are skipped.
// Unnamed clusters take their top ranked member as center item; named
// clusters keep the placeholder.
func (d *ClusterDictionary) clusterByKey(ctx context.Context, key string) (core.Cluster, bool, error) {
	name, id, err := storage.ParseClusterKey(key)
	if err != nil {
		d.logger.Warn("skipping cluster", "key", key, "err", err)
		return core.Cluster{}, false, nil
	}
	c := core.NewCluster(id, name)
	if name != "" {
		return c, true, nil
	}
	top, err := d.store.ZRevRange(ctx, key, 0, 0)
	if err != nil {
		return core.Cluster{}, false, logStoreError(d.logger, "reading cluster center", id, err)
	}
	if len(top) == 1 {
		center, ok, err := d.items.itemByKey(ctx, top[0])
		if err != nil {
			return core.Cluster{}, false, err
		}
		if ok {
			c.Center = center
		}
	}
	return c, true, nil
}

func compareClusters(a, b core.Cluster) int {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
