package dictionary

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/merkor/core"
	"github.com/poiesic/merkor/seed"
	"github.com/poiesic/merkor/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRelationDictionary_Preconditions(t *testing.T) {
	d := newTestDictionaries(t, false)
	types, err := core.DefaultRelationTypes()
	require.NoError(t, err)

	_, err = NewRelationDictionary(nil, d.items, types)
	assert.ErrorIs(t, err, ErrStoreRequired)
	_, err = NewRelationDictionary(d.store, nil, types)
	assert.ErrorIs(t, err, ErrItemDictionaryRequired)
	_, err = NewRelationDictionary(d.store, d.items, nil)
	assert.ErrorIs(t, err, ErrRelationTypesRequired)
}

func TestRelationsFor(t *testing.T) {
	forEachMode(t, func(t *testing.T, d *testDictionaries) {
		ctx := context.Background()

		kottur := mustItem(t, d, 11)
		rels, err := d.relations.RelationsFor(ctx, kottur)
		require.NoError(t, err)
		assert.Equal(t, []core.ID{102, 105, 114}, relationIDs(rels))

		first := rels[0]
		assert.Equal(t, "köttur", first.Pair.From.Lemma)
		assert.Equal(t, "hundur", first.Pair.To.Lemma)
		assert.Equal(t, core.ID(0), first.Pair.ID)
		assert.Equal(t, core.CoordNounTypeID, first.Type.ID)
		assert.Equal(t, "og", first.Type.Name)
		assert.Equal(t, 0.95, first.Confidence)
		assert.Equal(t, core.DefaultCertainty, first.Certainty)

		unknown := rels[2]
		assert.Equal(t, core.ID(0), unknown.Type.ID)
		assert.Equal(t, "óþekkt", unknown.Type.Description)

		// relation 199 has no name and outranks the rest
		skur := mustItem(t, d, 7)
		rels, err = d.relations.RelationsFor(ctx, skur)
		require.NoError(t, err)
		assert.Equal(t, []core.ID{104, 111}, relationIDs(rels))

		// relation 198 points at a missing item
		hus := mustItem(t, d, 8)
		rels, err = d.relations.RelationsFor(ctx, hus)
		require.NoError(t, err)
		assert.Equal(t, []core.ID{104, 112}, relationIDs(rels))

		// relation 197 has an unparsable score
		skip := mustItem(t, d, 10)
		rels, err = d.relations.RelationsFor(ctx, skip)
		require.NoError(t, err)
		assert.Equal(t, []core.ID{103, 112}, relationIDs(rels))

		mamma := mustItem(t, d, 17)
		rels, err = d.relations.RelationsFor(ctx, mamma)
		require.NoError(t, err)
		assert.Equal(t, []core.ID{114}, relationIDs(rels))

		_, err = d.relations.RelationsFor(ctx, nil)
		assert.ErrorIs(t, err, core.ErrNilItem)
	})
}

func TestRelationsFor_TypeResolution(t *testing.T) {
	d := newTestDictionaries(t, false)
	ctx := context.Background()

	batur := mustItem(t, d, 9)
	rels, err := d.relations.RelationsFor(ctx, batur)
	require.NoError(t, err)
	require.Equal(t, []core.ID{103, 113, 111}, relationIDs(rels))

	assert.Equal(t, core.ID(10), rels[1].Type.ID, "resolved through the reltype key")
	assert.Equal(t, "hliðstæða", rels[1].Type.Description)

	fallegur := mustItem(t, d, 13)
	rels, err = d.relations.RelationsFor(ctx, fallegur)
	require.NoError(t, err)
	require.Equal(t, []core.ID{107, 109, 115}, relationIDs(rels))
	assert.Equal(t, core.CoordOtherTypeID, rels[0].Type.ID)
	assert.Equal(t, core.ID(3), rels[1].Type.ID)
}

func TestTypeIDFor(t *testing.T) {
	d := newTestDictionaries(t, false)
	ctx := context.Background()

	tests := []struct {
		name string
		left core.Item
		want core.ID
	}{
		{"og", core.NewItem(1, "dýr", core.Noun), core.CoordNounTypeID},
		{"og", core.NewItem(2, "dýr", core.Adjective), core.CoordOtherTypeID},
		{"og", core.NewItem(3, "kaupa", core.Verb), core.CoordOtherTypeID},
		{"er eiginleiki", core.NewItem(13, "fallegur", core.Adjective), 3},
		{"hliðstæða", core.NewItem(9, "bátur", core.Noun), 10},
		{"óþekkt", core.NewItem(11, "köttur", core.Noun), 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.name, tt.left.Wordclass), func(t *testing.T) {
			id, err := d.relations.TypeIDFor(ctx, tt.name, tt.left)
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}

	_, err := d.relations.TypeIDFor(ctx, "", core.Item{})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestTopRelated(t *testing.T) {
	forEachMode(t, func(t *testing.T, d *testDictionaries) {
		ctx := context.Background()

		skur := mustItem(t, d, 7)
		top, err := d.relations.TopRelated(ctx, skur, 1)
		require.NoError(t, err)
		assert.Equal(t, []core.ID{104}, relationIDs(top))

		all, err := d.relations.RelationsFor(ctx, skur)
		require.NoError(t, err)
		top, err = d.relations.TopRelated(ctx, skur, 10)
		require.NoError(t, err)
		assert.Equal(t, all, top)

		_, err = d.relations.TopRelated(ctx, skur, 0)
		assert.ErrorIs(t, err, core.ErrNonPositiveCount)
		_, err = d.relations.TopRelated(ctx, nil, 1)
		assert.ErrorIs(t, err, core.ErrNilItem)
	})
}

// TestTopRelated_Batches ranks more relations than one read fetches, with
// ties straddling the batch boundary.
func TestTopRelated_Batches(t *testing.T) {
	ctx := context.Background()
	const fanout = 3 * minTopBatch

	lex := &seed.Lexicon{Items: []seed.ItemEntry{{ID: 1, Lemma: "hub", Wordclass: core.Noun}}}
	for i := 2; i <= fanout+1; i++ {
		lex.Items = append(lex.Items, seed.ItemEntry{ID: core.ID(i), Lemma: fmt.Sprintf("spoke%03d", i), Wordclass: core.Noun})
		score := 0.5
		if i <= 5 {
			score = 0.9
		}
		lex.Relations = append(lex.Relations, seed.RelationEntry{
			ID: core.ID(1000 + i), From: 1, To: core.ID(i), Relation: "og", Score: score,
		})
	}
	require.NoError(t, lex.Validate())

	store, err := badger.NewMemoryBackend()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	types, err := core.DefaultRelationTypes()
	require.NoError(t, err)
	_, err = seed.Write(ctx, store, lex, types, quietLogger)
	require.NoError(t, err)

	for _, pooled := range []bool{false, true} {
		d := newDictionaries(t, store, pooled)
		hub := mustItem(t, d, 1)

		all, err := d.relations.RelationsFor(ctx, hub)
		require.NoError(t, err)
		require.Len(t, all, fanout)

		for _, n := range []int{1, 4, 5, minTopBatch + 1, fanout, fanout + 10} {
			top, err := d.relations.TopRelated(ctx, hub, n)
			require.NoError(t, err)
			want := all[:min(n, len(all))]
			assert.Equal(t, relationIDs(want), relationIDs(top), "n=%d pooled=%v", n, pooled)
		}

		byType, err := d.relations.TopRelationsByType(ctx, &core.RelationType{ID: core.CoordNounTypeID}, 6)
		require.NoError(t, err)
		assert.Equal(t, relationIDs(all[:6]), relationIDs(byType))
	}
}

func TestRelationsBetween(t *testing.T) {
	forEachMode(t, func(t *testing.T, d *testDictionaries) {
		ctx := context.Background()

		skur, hus, batur := mustItem(t, d, 7), mustItem(t, d, 8), mustItem(t, d, 9)

		between, err := d.relations.RelationsBetween(ctx, skur, hus)
		require.NoError(t, err)
		assert.Equal(t, []core.ID{104}, relationIDs(between))

		reverse, err := d.relations.RelationsBetween(ctx, hus, skur)
		require.NoError(t, err)
		assert.Equal(t, between, reverse)

		none, err := d.relations.RelationsBetween(ctx, hus, batur)
		require.NoError(t, err)
		assert.Empty(t, none)

		_, err = d.relations.RelationsBetween(ctx, hus, nil)
		assert.ErrorIs(t, err, core.ErrNilItem)
	})
}

func TestRelationsForLemma(t *testing.T) {
	forEachMode(t, func(t *testing.T, d *testDictionaries) {
		ctx := context.Background()

		objects, err := d.relations.RelationsForLemma(ctx, "dýr")
		require.NoError(t, err)
		require.Len(t, objects, 2)
		assert.Equal(t, core.ID(1), objects[0].Item.ID)
		assert.Equal(t, []core.ID{105, 109}, relationIDs(objects[0].Relations))
		assert.Equal(t, core.ID(2), objects[1].Item.ID)
		assert.Equal(t, []core.ID{115}, relationIDs(objects[1].Relations))

		none, err := d.relations.RelationsForLemma(ctx, "gallað")
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestRelationsForLemmas(t *testing.T) {
	forEachMode(t, func(t *testing.T, d *testDictionaries) {
		ctx := context.Background()

		t.Run("second lemma ambiguous", func(t *testing.T) {
			objects, err := d.relations.RelationsForLemmas(ctx, "skerpa", "birta")
			require.NoError(t, err)
			require.Len(t, objects, 2)
			assert.Equal(t, core.ID(5), objects[0].Item.ID)
			assert.Equal(t, []core.ID{101}, relationIDs(objects[0].Relations))
			assert.Equal(t, core.ID(6), objects[1].Item.ID)
			assert.Equal(t, []core.ID{110}, relationIDs(objects[1].Relations))
		})

		t.Run("first lemma ambiguous", func(t *testing.T) {
			objects, err := d.relations.RelationsForLemmas(ctx, "dýr", "köttur")
			require.NoError(t, err)
			require.Len(t, objects, 1)
			require.NotNil(t, objects[0].Item)
			assert.Equal(t, core.ID(1), objects[0].Item.ID)
			assert.Equal(t, []core.ID{105}, relationIDs(objects[0].Relations))
		})

		t.Run("both ambiguous", func(t *testing.T) {
			objects, err := d.relations.RelationsForLemmas(ctx, "birta", "dýr")
			require.NoError(t, err)
			assert.Empty(t, objects)

			objects, err = d.relations.RelationsForLemmas(ctx, "dýr", "dýr")
			require.NoError(t, err)
			require.Len(t, objects, 2)
			assert.Equal(t, core.ID(1), objects[0].Item.ID)
			assert.Equal(t, core.ID(2), objects[1].Item.ID)
		})

		t.Run("neither ambiguous", func(t *testing.T) {
			objects, err := d.relations.RelationsForLemmas(ctx, "köttur", "hundur")
			require.NoError(t, err)
			require.Len(t, objects, 1)
			assert.Nil(t, objects[0].Item)
			assert.Equal(t, []core.ID{102}, relationIDs(objects[0].Relations))
		})

		_, err := d.relations.RelationsForLemmas(ctx, "köttur", "")
		assert.ErrorIs(t, err, core.ErrEmptyLemma)
	})
}

func TestMostRelatedForLemma(t *testing.T) {
	forEachMode(t, func(t *testing.T, d *testDictionaries) {
		ctx := context.Background()

		objects, err := d.relations.MostRelatedForLemma(ctx, "dýr", 1)
		require.NoError(t, err)
		require.Len(t, objects, 2)
		assert.Equal(t, []core.ID{105}, relationIDs(objects[0].Relations))
		assert.Equal(t, []core.ID{115}, relationIDs(objects[1].Relations))

		_, err = d.relations.MostRelatedForLemma(ctx, "dýr", -1)
		assert.ErrorIs(t, err, core.ErrNonPositiveCount)
	})
}

func TestRelationsHaving(t *testing.T) {
	forEachMode(t, func(t *testing.T, d *testDictionaries) {
		ctx := context.Background()
		coordNoun := &core.RelationType{ID: core.CoordNounTypeID, Name: "og"}
		coordOther := &core.RelationType{ID: core.CoordOtherTypeID, Name: "og"}

		left, err := d.relations.RelationsHavingLeft(ctx, "skerpa", coordNoun)
		require.NoError(t, err)
		assert.Equal(t, []core.ID{101}, relationIDs(left))

		right, err := d.relations.RelationsHavingRight(ctx, "skerpa", coordOther)
		require.NoError(t, err)
		assert.Equal(t, []core.ID{110}, relationIDs(right))

		none, err := d.relations.RelationsHavingRight(ctx, "skerpa", coordNoun)
		require.NoError(t, err)
		assert.Empty(t, none)

		analogy := &core.RelationType{ID: 10}
		shared, err := d.relations.RelationsHavingRight(ctx, "skip", analogy)
		require.NoError(t, err)
		assert.Equal(t, []core.ID{113}, relationIDs(shared))

		skerpa := mustItem(t, d, 4)
		leftItem, err := d.relations.RelationsHavingLeftItem(ctx, skerpa, coordNoun)
		require.NoError(t, err)
		assert.Equal(t, []core.ID{101}, relationIDs(leftItem))

		rightItem, err := d.relations.RelationsHavingRightItem(ctx, skerpa, coordOther)
		require.NoError(t, err)
		assert.Equal(t, []core.ID{110}, relationIDs(rightItem))

		_, err = d.relations.RelationsHavingLeft(ctx, "skerpa", nil)
		assert.ErrorIs(t, err, core.ErrNilRelationType)
		_, err = d.relations.RelationsHavingLeftItem(ctx, nil, coordNoun)
		assert.ErrorIs(t, err, core.ErrNilItem)
	})
}

func TestTopRelationsByType(t *testing.T) {
	forEachMode(t, func(t *testing.T, d *testDictionaries) {
		ctx := context.Background()

		top, err := d.relations.TopRelationsByType(ctx, &core.RelationType{ID: core.CoordNounTypeID}, 5)
		require.NoError(t, err)
		require.Len(t, top, 5)
		assert.Equal(t, []core.ID{102, 101, 103, 104, 105}, relationIDs(top))
		for _, r := range top {
			assert.Equal(t, core.CoordNounTypeID, r.Type.ID)
		}

		others, err := d.relations.TopRelationsByType(ctx, &core.RelationType{ID: core.CoordOtherTypeID}, 100)
		require.NoError(t, err)
		assert.Equal(t, []core.ID{108, 107, 110, 115}, relationIDs(others))

		empty, err := d.relations.TopRelationsByType(ctx, &core.RelationType{ID: 42}, 3)
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)

		_, err = d.relations.TopRelationsByType(ctx, nil, 3)
		assert.ErrorIs(t, err, core.ErrNilRelationType)
		_, err = d.relations.TopRelationsByType(ctx, &core.RelationType{ID: 7}, 0)
		assert.ErrorIs(t, err, core.ErrNonPositiveCount)
	})
}
