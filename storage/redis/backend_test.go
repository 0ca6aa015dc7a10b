package redis

import (
	"context"
	"slices"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/poiesic/merkor/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) (*Backend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	backend, err := Open(context.Background(), Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return backend, mr
}

func TestOpen_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Open(context.Background(), Options{Addr: addr})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.Contains(t, err.Error(), addr)
}

func TestBackend_ReadsSeededData(t *testing.T) {
	backend, mr := newTestBackend(t)
	ctx := context.Background()

	mr.Set("merkor_is_reltype_og", "7")
	mr.HSet("merkor_is_id_1", "lemma", "dýr", "wordclass", "noun")
	mr.SetAdd("merkor_is_lemma_dýr", "merkor_is_id_1", "merkor_is_id_2")
	mr.SetAdd("merkor_is_lemma_kaupa", "merkor_is_id_3")
	mr.ZAdd("sorted_rel_set_merkor_is_id_1", 0.70, "merkor_is_rel_105")
	mr.ZAdd("sorted_rel_set_merkor_is_id_1", 0.55, "merkor_is_rel_109")

	value, found, err := backend.Get(ctx, "merkor_is_reltype_og")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "7", value)

	_, found, err = backend.Get(ctx, "merkor_is_reltype_missing")
	require.NoError(t, err)
	assert.False(t, found)

	lemma, found, err := backend.HGet(ctx, "merkor_is_id_1", "lemma")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "dýr", lemma)

	_, found, err = backend.HGet(ctx, "merkor_is_id_1", "score")
	require.NoError(t, err)
	assert.False(t, found)

	fields, err := backend.HGetAll(ctx, "merkor_is_id_1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"lemma": "dýr", "wordclass": "noun"}, fields)

	members, err := backend.SMembers(ctx, "merkor_is_lemma_dýr")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"merkor_is_id_1", "merkor_is_id_2"}, members)

	union, err := backend.SUnion(ctx, "merkor_is_lemma_dýr", "merkor_is_lemma_kaupa")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"merkor_is_id_1", "merkor_is_id_2", "merkor_is_id_3"}, union)

	ranked, err := backend.ZRevRange(ctx, "sorted_rel_set_merkor_is_id_1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"merkor_is_rel_105"}, ranked)

	scored, err := backend.ZRevRangeWithScores(ctx, "sorted_rel_set_merkor_is_id_1", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []storage.ScoredMember{
		{Member: "merkor_is_rel_105", Score: 0.70},
		{Member: "merkor_is_rel_109", Score: 0.55},
	}, scored)

	score, found, err := backend.ZScore(ctx, "sorted_rel_set_merkor_is_id_1", "merkor_is_rel_109")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 0.55, score)

	_, found, err = backend.ZScore(ctx, "sorted_rel_set_merkor_is_id_1", "merkor_is_rel_1")
	require.NoError(t, err)
	assert.False(t, found)

	n, err := backend.ZCard(ctx, "sorted_rel_set_merkor_is_id_1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestBackend_Keys(t *testing.T) {
	backend, mr := newTestBackend(t)
	ctx := context.Background()

	mr.ZAdd("merkor_is_cluster_efnafræði_12", 1, "merkor_is_id_1")
	mr.ZAdd("merkor_is_cluster_íþróttir_keppni_31", 1, "merkor_is_id_9")
	mr.ZAdd("merkor_is_cluster_foo_bar", 1, "merkor_is_id_9")
	mr.Set("merkor_is_reltype_og", "7")

	keys, err := backend.Keys(ctx, "merkor_is_cluster_*_[0123456789]*")
	require.NoError(t, err)
	slices.Sort(keys)
	assert.Equal(t, []string{
		"merkor_is_cluster_efnafræði_12",
		"merkor_is_cluster_íþróttir_keppni_31",
	}, keys)

	none, err := backend.Keys(ctx, "merkor_is_lemma_quatsch*")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBackend_Writer(t *testing.T) {
	backend, mr := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, "merkor_is_reltype_og", "7"))
	require.NoError(t, backend.HSet(ctx, "merkor_is_id_3", map[string]string{"lemma": "kaupa", "wordclass": "verb"}))
	require.NoError(t, backend.SAdd(ctx, "merkor_is_lemma_kaupa", "merkor_is_id_3"))
	require.NoError(t, backend.ZAdd(ctx, "merkor_is_top_by_reltype_8",
		storage.ScoredMember{Member: "merkor_is_rel_108", Score: 0.93}))

	got, err := mr.Get("merkor_is_reltype_og")
	require.NoError(t, err)
	assert.Equal(t, "7", got)
	assert.Equal(t, "verb", mr.HGet("merkor_is_id_3", "wordclass"))

	isMember, err := mr.SIsMember("merkor_is_lemma_kaupa", "merkor_is_id_3")
	require.NoError(t, err)
	assert.True(t, isMember)

	score, err := mr.ZScore("merkor_is_top_by_reltype_8", "merkor_is_rel_108")
	require.NoError(t, err)
	assert.Equal(t, 0.93, score)
}

func TestBackend_ErrorClasses(t *testing.T) {
	backend, mr := newTestBackend(t)
	ctx := context.Background()

	mr.Set("plain", "value")
	_, err := backend.HGetAll(ctx, "plain")
	assert.ErrorIs(t, err, storage.ErrCommand)

	mr.Close()
	_, _, err = backend.Get(ctx, "plain")
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}

func TestBackend_Closed(t *testing.T) {
	backend, _ := newTestBackend(t)
	require.NoError(t, backend.Close())

	err := backend.Ping(context.Background())
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}
