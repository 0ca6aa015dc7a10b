package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/poiesic/merkor/core"
)

// Key prefixes of the MerkOr keyspace
const (
	LemmaPrefix           = "merkor_is_lemma_"
	ItemPrefix            = "merkor_is_id_"
	RelationPrefix        = "merkor_is_rel_"
	SortedRelationsPrefix = "sorted_rel_set_"
	RelationTypePrefix    = "merkor_is_reltype_"
	TopByTypePrefix       = "merkor_is_top_by_reltype_"
	ClusterPrefix         = "merkor_is_cluster_"
	InClusterPrefix       = "in_cluster_"
)

// Hash fields of item and relation records
const (
	FieldLemma     = "lemma"
	FieldWordclass = "wordclass"
	FieldFromItem  = "from_item"
	FieldToItem    = "to_item"
	FieldRelation  = "relation"
	FieldScore     = "score"
)

// A cluster key splits on '_' into "merkor", "is", "cluster", the name
// tokens and the id.
const (
	clusterTokensOneName = 5
	clusterTokensTwoName = 6
	clusterIDSuffix      = "_[0123456789]*"
)

// LemmaKey returns the key of the set of item keys sharing lemma.
func LemmaKey(lemma string) string {
	return LemmaPrefix + lemma
}

// LemmaPattern returns the glob over lemma keys for a lemma glob.
func LemmaPattern(pattern string) string {
	return LemmaPrefix + pattern
}

// ItemKey returns the key of the item hash with the given id.
func ItemKey(id core.ID) string {
	return ItemPrefix + strconv.FormatUint(uint64(id), 10)
}

// ParseItemKey extracts the item id from an item key.
func ParseItemKey(key string) (core.ID, error) {
	return parseIDKey(key, ItemPrefix)
}

// AllItemsPattern matches every item key.
func AllItemsPattern() string {
	return ItemPrefix + "[0123456789]*"
}

// RelationKey returns the key of the relation hash with the given id.
func RelationKey(id core.ID) string {
	return RelationPrefix + strconv.FormatUint(uint64(id), 10)
}

// ParseRelationKey extracts the relation id from a relation key.
func ParseRelationKey(key string) (core.ID, error) {
	return parseIDKey(key, RelationPrefix)
}

// SortedRelationsKey returns the key of the sorted set ranking the
// relations of an item by confidence.
func SortedRelationsKey(itemID core.ID) string {
	return SortedRelationsPrefix + ItemKey(itemID)
}

// RelationTypeKey returns the key holding the type id of a relation name.
func RelationTypeKey(name string) string {
	return RelationTypePrefix + name
}

// TopByTypeKey returns the key of the global ranking of relations of a type.
func TopByTypeKey(typeID core.ID) string {
	return TopByTypePrefix + strconv.FormatUint(uint64(typeID), 10)
}

// InClusterKey returns the key of the set of cluster keys an item belongs to.
func InClusterKey(itemID core.ID) string {
	return InClusterPrefix + ItemKey(itemID)
}

// ClusterKey returns the key of the sorted set of a cluster's members.
func ClusterKey(name string, id core.ID) string {
	return ClusterPrefix + name + "_" + strconv.FormatUint(uint64(id), 10)
}

// ParseClusterKey decodes a cluster key into its name and id.
//
// Names are recovered by token count: five tokens carry a one-token name,
// six tokens a name of two tokens joined by '_'. Keys of names with two or
// more underscores cannot be told apart from other shapes and are
// rejected, as are keys whose last token is not a non-negative integer.
// Every rejection wraps ErrMalformedKey.
func ParseClusterKey(key string) (string, core.ID, error) {
	if !strings.HasPrefix(key, ClusterPrefix) {
		return "", 0, fmt.Errorf("%w: %q is not a cluster key", ErrMalformedKey, key)
	}
	tokens := strings.Split(key, "_")
	var name string
	switch len(tokens) {
	case clusterTokensOneName:
		name = tokens[3]
	case clusterTokensTwoName:
		name = tokens[3] + "_" + tokens[4]
	default:
		return "", 0, fmt.Errorf("%w: cluster key %q has %d tokens", ErrMalformedKey, key, len(tokens))
	}
	id, err := strconv.ParseUint(tokens[len(tokens)-1], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: cluster key %q has no numeric id", ErrMalformedKey, key)
	}
	return name, core.ID(id), nil
}

// NormalizePattern rewrites the ".*" and ".?" wildcard spellings into the
// store globs "*" and "?".
func NormalizePattern(pattern string) string {
	pattern = strings.ReplaceAll(pattern, ".*", "*")
	return strings.ReplaceAll(pattern, ".?", "?")
}

// ClusterNamePatterns returns the cluster key globs for a name pattern, one
// for its lower-case and one for its upper-case rendering. The two are the
// same glob when case folding does not change the pattern.
func ClusterNamePatterns(pattern string) []string {
	lower := ClusterPrefix + NormalizePattern(strings.ToLower(pattern)) + clusterIDSuffix
	upper := ClusterPrefix + NormalizePattern(strings.ToUpper(pattern)) + clusterIDSuffix
	if lower == upper {
		return []string{lower}
	}
	return []string{lower, upper}
}

// ClusterIDPattern returns the glob of cluster keys ending in id. Matches
// must still be decoded and their id compared, since the glob also matches
// longer ids sharing the suffix.
func ClusterIDPattern(id core.ID) string {
	return ClusterPrefix + "*_" + strconv.FormatUint(uint64(id), 10)
}

// AllClustersPattern matches every cluster key.
func AllClustersPattern() string {
	return ClusterPrefix + "*"
}

func parseIDKey(key, prefix string) (core.ID, error) {
	rest, ok := strings.CutPrefix(key, prefix)
	if !ok {
		return 0, fmt.Errorf("%w: %q lacks prefix %q", ErrMalformedKey, key, prefix)
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q has no numeric id", ErrMalformedKey, key)
	}
	return core.ID(id), nil
}
