package core

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed reltypes.yaml
var defaultRelationTypes []byte

// Coordination ("og", "and") is stored under one name but has two type ids,
// chosen by the wordclass of the left item.
const (
	CoordinationName    = "og"
	CoordNounTypeID  ID = 7
	CoordOtherTypeID ID = 8
)

// Aliases registered for descriptions shared by two types.
var duplicateDescriptionAliases = map[string]string{
	"og":            "og_adj",
	"er eiginleiki": "lýsir",
}

type relationTypeDoc struct {
	RelationTypes []relationTypeEntry `yaml:"relation_types"`
}

type relationTypeEntry struct {
	ID          ID     `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// RelationTypes maps relation type names to ids. It is built once and is
// safe for concurrent reads.
type RelationTypes struct {
	types  []RelationType
	byID   map[ID]RelationType
	byName map[string]ID
}

// NewRelationTypes builds the lookup table. Every type must have a non-zero
// id and a name.
func NewRelationTypes(types []RelationType) (*RelationTypes, error) {
	t := &RelationTypes{
		types:  make([]RelationType, 0, len(types)),
		byID:   make(map[ID]RelationType, len(types)),
		byName: make(map[string]ID, len(types)*2),
	}
	for _, rt := range types {
		if rt.ID == 0 || rt.Name == "" {
			return nil, fmt.Errorf("%w: entry %+v needs an id and a name", ErrInvalidRelationTypes, rt)
		}
		if _, dup := t.byID[rt.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidRelationTypes, rt.ID)
		}
		t.types = append(t.types, rt)
		t.byID[rt.ID] = rt
		t.byName[rt.Name] = rt.ID

		if rt.Description == "" {
			continue
		}
		if _, taken := t.byName[rt.Description]; taken {
			if alias, ok := duplicateDescriptionAliases[rt.Description]; ok {
				t.byName[alias] = rt.ID
			}
		} else {
			t.byName[rt.Description] = rt.ID
		}
		if strings.Contains(rt.Description, " ") {
			underscored := strings.ReplaceAll(rt.Description, " ", "_")
			if _, taken := t.byName[underscored]; !taken {
				t.byName[underscored] = rt.ID
			}
		}
	}
	return t, nil
}

// LoadRelationTypes reads a YAML relation type table.
func LoadRelationTypes(r io.Reader) (*RelationTypes, error) {
	var doc relationTypeDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRelationTypes, err)
	}
	types := make([]RelationType, 0, len(doc.RelationTypes))
	for _, e := range doc.RelationTypes {
		types = append(types, RelationType{ID: e.ID, Name: e.Name, Description: e.Description})
	}
	return NewRelationTypes(types)
}

// LoadRelationTypesFile reads a YAML relation type table from path.
func LoadRelationTypesFile(path string) (*RelationTypes, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadRelationTypes(f)
}

// DefaultRelationTypes returns the built-in MerkOr relation type table.
func DefaultRelationTypes() (*RelationTypes, error) {
	return LoadRelationTypes(strings.NewReader(string(defaultRelationTypes)))
}

// Lookup returns the id registered for a type name, description or alias.
func (t *RelationTypes) Lookup(name string) (ID, bool) {
	id, ok := t.byName[name]
	return id, ok
}

// ByID returns the relation type with the given id.
func (t *RelationTypes) ByID(id ID) (RelationType, bool) {
	rt, ok := t.byID[id]
	return rt, ok
}

// All returns the relation types in table order.
func (t *RelationTypes) All() []RelationType {
	out := make([]RelationType, len(t.types))
	copy(out, t.types)
	return out
}

// Resolve turns a user supplied relation name into a RelationType carrying
// that name.
func (t *RelationTypes) Resolve(name string) (RelationType, error) {
	if err := ValidateNonEmpty(name, "relation"); err != nil {
		return RelationType{}, err
	}
	id, ok := t.Lookup(name)
	if !ok {
		return RelationType{}, fmt.Errorf("%w: %w: %q", ErrInvalidArgument, ErrUnknownRelationType, name)
	}
	desc := name
	if rt, ok := t.byID[id]; ok && rt.Description != "" {
		desc = rt.Description
	}
	return RelationType{ID: id, Name: name, Description: desc}, nil
}

// IDFor returns the type id of a stored relation name given the left item
// of the relation. The coordination relation resolves to CoordNounTypeID
// for noun left items and CoordOtherTypeID otherwise; other names go
// through the table.
func (t *RelationTypes) IDFor(name string, left Item) (ID, bool) {
	if name == CoordinationName {
		if left.Wordclass == Noun {
			return CoordNounTypeID, true
		}
		return CoordOtherTypeID, true
	}
	return t.Lookup(name)
}
