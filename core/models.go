package core

import (
	"cmp"
	"fmt"
	"strings"
)

// ID is the store-assigned identifier of a lexical entity.
type ID uint64

// Wordclass is the part of speech of a lexical item.
type Wordclass string

const (
	Noun      Wordclass = "noun"
	Verb      Wordclass = "verb"
	Adjective Wordclass = "adjective"
)

// Wordclasses lists every valid wordclass.
var Wordclasses = []Wordclass{Noun, Verb, Adjective}

// Initial returns the first letter of the wordclass, "n", "v" or "a".
func (w Wordclass) Initial() string {
	if w == "" {
		return ""
	}
	return string(w[0])
}

// Item is a lexical item: one sense of a lemma in one wordclass.
type Item struct {
	ID            ID
	Lemma         string
	Wordclass     Wordclass
	Sense         int  // 1 for monosemous items
	HasMoreSenses bool // another item with the same lemma and wordclass exists
	WordpairCount int  // number of relations this item takes part in
}

// NewItem returns an item with the default sense number.
func NewItem(id ID, lemma string, wc Wordclass) Item {
	return Item{ID: id, Lemma: lemma, Wordclass: wc, Sense: 1}
}

// CompareItems orders items by lemma, then sense, then id.
func CompareItems(a, b Item) int {
	if c := strings.Compare(a.Lemma, b.Lemma); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Sense, b.Sense); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Equal reports whether two items are the same item under CompareItems.
func (i Item) Equal(other Item) bool {
	return CompareItems(i, other) == 0
}

// LemmaAndSense renders the item as "lemma_sense".
func (i Item) LemmaAndSense() string {
	return fmt.Sprintf("%s_%d", i.Lemma, i.Sense)
}

// LemmaAndWordclass renders the item as "lemma (n)".
func (i Item) LemmaAndWordclass() string {
	return fmt.Sprintf("%s (%s)", i.Lemma, i.Wordclass.Initial())
}

func (i Item) String() string {
	return fmt.Sprintf("lexical item: [id=%d, lemma=%s, wordclass=%s]", i.ID, i.LemmaAndSense(), i.Wordclass)
}

// Pair is an ordered pair of items. A zero ID marks a pair that is not
// persisted on its own.
type Pair struct {
	ID   ID
	From Item
	To   Item
}

// ComparePairs orders pairs by From, then To, then id.
func ComparePairs(a, b Pair) int {
	if c := CompareItems(a.From, b.From); c != 0 {
		return c
	}
	if c := CompareItems(a.To, b.To); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// RelationType is a named kind of relation. Two types are the same type
// when their ids are equal.
type RelationType struct {
	ID          ID
	Name        string
	Description string
}

// Same reports whether t and other denote the same relation type.
func (t RelationType) Same(other RelationType) bool {
	return t.ID == other.ID
}

// DefaultCertainty is the certainty of every relation read from the store.
const DefaultCertainty = 1

// Relation is a typed, scored link between two items.
type Relation struct {
	ID         ID
	Pair       Pair
	Type       RelationType
	Confidence float64
	Certainty  int // 1 (high) to 3 (low)
}

// CompareRelations orders relations by confidence descending, then by pair,
// then by id. The most related come first.
func CompareRelations(a, b Relation) int {
	if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
		return c
	}
	if c := ComparePairs(a.Pair, b.Pair); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Equal reports whether two relations are equal under CompareRelations.
func (r Relation) Equal(other Relation) bool {
	return CompareRelations(r, other) == 0
}

func (r Relation) String() string {
	return fmt.Sprintf("Relation: [%s %s %s (%g)]", r.Pair.From.Lemma, r.Type.Name, r.Pair.To.Lemma, r.Confidence)
}

// Cluster is a group of semantically related items.
type Cluster struct {
	ID     ID
	Name   string // may be empty for unnamed clusters
	Center Item
}

// PlaceholderCenter is the center item of every cluster read from the store.
// Centroid data is not part of the stored resource.
func PlaceholderCenter() Item {
	return NewItem(0, "", Noun)
}

// NewCluster returns a cluster with the placeholder center item.
func NewCluster(id ID, name string) Cluster {
	return Cluster{ID: id, Name: name, Center: PlaceholderCenter()}
}

// DisplayName returns the cluster name, or the center item's lemma for
// unnamed clusters.
func (c Cluster) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Center.Lemma
}

func (c Cluster) String() string {
	return fmt.Sprintf("cluster: %s [id=%d]", c.Name, c.ID)
}

// ClusterMember ties an item to a cluster it belongs to. Value is the
// item's score within the cluster, closer to 1.0 means closer to the center.
type ClusterMember struct {
	Item    Item
	Cluster Cluster
	Value   float64
}

func (m ClusterMember) String() string {
	return fmt.Sprintf("%s, %s, value: %g", m.Item, m.Cluster, m.Value)
}

// RelationObject groups the relations found for one item. Item is nil when
// no single item could be chosen to represent the relations.
type RelationObject struct {
	Item      *Item
	Relations []Relation
}
