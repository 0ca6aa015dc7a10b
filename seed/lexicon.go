// Package seed writes lexicon documents into the MerkOr keyspace.
//
// A lexicon document lists items, relations and clusters by id. Write lays
// them out the way the query layer reads them: lemma index sets, item and
// relation hashes, per-item relation rankings, per-type top rankings,
// cluster sorted sets and the reverse cluster index. The embedded sample
// lexicon backs the seeder's default and the tests of the other packages.
package seed

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/merkor/core"
)

//go:embed sample.yaml
var sampleLexicon string

// Lexicon is a lexicon document.
type Lexicon struct {
	// RelationTypes are written as reltype keys, name to type id.
	RelationTypes map[string]core.ID `yaml:"relation_types"`
	Items         []ItemEntry        `yaml:"items"`
	Relations     []RelationEntry    `yaml:"relations"`
	Clusters      []ClusterEntry     `yaml:"clusters"`
	Raw           RawRecords         `yaml:"raw"`
}

// ItemEntry is one lexical item.
type ItemEntry struct {
	ID        core.ID        `yaml:"id"`
	Lemma     string         `yaml:"lemma"`
	Wordclass core.Wordclass `yaml:"wordclass"`
}

// RelationEntry is one relation between two items. Type overrides the
// type id used for the per-type ranking; when zero it is resolved from the
// relation name.
type RelationEntry struct {
	ID       core.ID `yaml:"id"`
	From     core.ID `yaml:"from"`
	To       core.ID `yaml:"to"`
	Relation string  `yaml:"relation"`
	Score    float64 `yaml:"score"`
	Type     core.ID `yaml:"type,omitempty"`
}

// ClusterEntry is one cluster with its scored members.
type ClusterEntry struct {
	ID      core.ID       `yaml:"id"`
	Name    string        `yaml:"name"`
	Members []MemberEntry `yaml:"members"`
}

// MemberEntry is an item's membership score within a cluster.
type MemberEntry struct {
	Item  core.ID `yaml:"item"`
	Score float64 `yaml:"score"`
}

// RawRecords are written verbatim, without going through the key scheme.
type RawRecords struct {
	Strings    map[string]string            `yaml:"strings"`
	Hashes     map[string]map[string]string `yaml:"hashes"`
	Sets       map[string][]string          `yaml:"sets"`
	SortedSets map[string][]ScoredEntry     `yaml:"sorted_sets"`
}

// ScoredEntry is a raw sorted set member.
type ScoredEntry struct {
	Member string  `yaml:"member"`
	Score  float64 `yaml:"score"`
}

// Load reads a lexicon document and checks its internal references.
func Load(r io.Reader) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.NewDecoder(r).Decode(&lex); err != nil {
		if err == io.EOF {
			return &lex, nil
		}
		return nil, fmt.Errorf("decoding lexicon: %w", err)
	}
	if err := lex.Validate(); err != nil {
		return nil, err
	}
	return &lex, nil
}

// LoadFile reads a lexicon document from path.
func LoadFile(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Sample returns the embedded sample lexicon.
func Sample() (*Lexicon, error) {
	return Load(strings.NewReader(sampleLexicon))
}

// Validate checks that ids are unique and that relations and cluster
// members refer to items of the document.
func (l *Lexicon) Validate() error {
	items := make(map[core.ID]struct{}, len(l.Items))
	for _, it := range l.Items {
		if err := core.ValidateNonEmpty(it.Lemma, "lemma"); err != nil {
			return fmt.Errorf("item %d: %w", it.ID, err)
		}
		if err := core.ValidateWordclass(it.Wordclass); err != nil {
			return fmt.Errorf("item %d: %w", it.ID, err)
		}
		if _, dup := items[it.ID]; dup {
			return fmt.Errorf("%w: duplicate item id %d", core.ErrInvalidArgument, it.ID)
		}
		items[it.ID] = struct{}{}
	}

	relations := make(map[core.ID]struct{}, len(l.Relations))
	for _, rel := range l.Relations {
		if _, dup := relations[rel.ID]; dup {
			return fmt.Errorf("%w: duplicate relation id %d", core.ErrInvalidArgument, rel.ID)
		}
		relations[rel.ID] = struct{}{}
		if err := core.ValidateNonEmpty(rel.Relation, "relation"); err != nil {
			return fmt.Errorf("relation %d: %w", rel.ID, err)
		}
		for _, end := range []core.ID{rel.From, rel.To} {
			if _, ok := items[end]; !ok {
				return fmt.Errorf("%w: relation %d refers to unknown item %d", core.ErrInvalidArgument, rel.ID, end)
			}
		}
	}

	for _, c := range l.Clusters {
		if strings.Count(c.Name, "_") > 1 {
			return fmt.Errorf("%w: cluster %d name %q has more than one underscore", core.ErrInvalidArgument, c.ID, c.Name)
		}
		for _, m := range c.Members {
			if _, ok := items[m.Item]; !ok {
				return fmt.Errorf("%w: cluster %d refers to unknown item %d", core.ErrInvalidArgument, c.ID, m.Item)
			}
		}
	}
	return nil
}
