package dictionary

import (
	"context"
	"testing"

	"github.com/poiesic/merkor/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clusterIDs(clusters []core.Cluster) []core.ID {
	ids := make([]core.ID, len(clusters))
	for i, c := range clusters {
		ids[i] = c.ID
	}
	return ids
}

func TestNewClusterDictionary_Preconditions(t *testing.T) {
	d := newTestDictionaries(t, false)

	_, err := NewClusterDictionary(nil, d.items)
	assert.ErrorIs(t, err, ErrStoreRequired)
	_, err = NewClusterDictionary(d.store, nil)
	assert.ErrorIs(t, err, ErrItemDictionaryRequired)
}

func TestClustersMatching(t *testing.T) {
	forEachMode(t, func(t *testing.T, d *testDictionaries) {
		ctx := context.Background()

		tests := []struct {
			pattern string
			want    []core.ID
		}{
			{"í*", []core.ID{8, 31}},
			{"íþróttir", []core.ID{8}},
			{"ÍÞRÓTTIR.*", []core.ID{8, 31}},
			{"dýraríki", []core.ID{12}},
			{"m?tur", []core.ID{23}},
			{"geimur", []core.ID{}},
		}
		for _, tt := range tests {
			t.Run(tt.pattern, func(t *testing.T) {
				clusters, err := d.clusters.ClustersMatching(ctx, tt.pattern)
				require.NoError(t, err)
				assert.Equal(t, tt.want, clusterIDs(clusters))
			})
		}

		_, err := d.clusters.ClustersMatching(ctx, "")
		assert.ErrorIs(t, err, core.ErrInvalidArgument)
	})
}

func TestClusterByID(t *testing.T) {
	forEachMode(t, func(t *testing.T, d *testDictionaries) {
		ctx := context.Background()

		c, err := d.clusters.ClusterByID(ctx, 7)
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, "sjór", c.Name)
		assert.Equal(t, core.PlaceholderCenter(), c.Center)

		c, err = d.clusters.ClusterByID(ctx, 31)
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, "íþróttir_keppni", c.Name)

		unnamed, err := d.clusters.ClusterByID(ctx, 40)
		require.NoError(t, err)
		require.NotNil(t, unnamed)
		assert.Empty(t, unnamed.Name)
		assert.Equal(t, core.ID(8), unnamed.Center.ID)
		assert.Equal(t, "hús", unnamed.DisplayName())

		// only a malformed key ends in _9
		missing, err := d.clusters.ClusterByID(ctx, 9)
		require.NoError(t, err)
		assert.Nil(t, missing)

		missing, err = d.clusters.ClusterByID(ctx, 1234)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestAllClusterNames(t *testing.T) {
	d := newTestDictionaries(t, false)

	names, err := d.clusters.AllClusterNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"dýraríki", "heimili", "matur", "sjór", "ÍÞRÓTTIR", "íþróttir_keppni"}, names)
}

func TestClustersFor(t *testing.T) {
	forEachMode(t, func(t *testing.T, d *testDictionaries) {
		ctx := context.Background()

		kottur := mustItem(t, d, 11)
		members, err := d.clusters.ClustersFor(ctx, kottur)
		require.NoError(t, err)
		require.Len(t, members, 1, "malformed cluster keys are skipped")
		assert.Equal(t, "dýraríki", members[0].Cluster.Name)
		assert.Equal(t, 0.90, members[0].Value)
		assert.Equal(t, *kottur, members[0].Item)

		batur := mustItem(t, d, 9)
		members, err = d.clusters.ClustersFor(ctx, batur)
		require.NoError(t, err)
		require.Len(t, members, 2)
		assert.Equal(t, core.ID(7), members[0].Cluster.ID)
		assert.Equal(t, 0.90, members[0].Value)
		assert.Equal(t, core.ID(31), members[1].Cluster.ID)
		assert.Equal(t, 0.70, members[1].Value)

		mamma := mustItem(t, d, 17)
		members, err = d.clusters.ClustersFor(ctx, mamma)
		require.NoError(t, err)
		assert.Empty(t, members)

		_, err = d.clusters.ClustersFor(ctx, nil)
		assert.ErrorIs(t, err, core.ErrNilItem)
	})
}

func TestClustersForID(t *testing.T) {
	d := newTestDictionaries(t, false)
	ctx := context.Background()

	members, err := d.clusters.ClustersForID(ctx, 12)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "dýraríki", members[0].Cluster.Name)
	assert.Equal(t, "ÍÞRÓTTIR", members[1].Cluster.Name)

	none, err := d.clusters.ClustersForID(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestClustersForLemma(t *testing.T) {
	d := newTestDictionaries(t, true)

	members, err := d.clusters.ClustersForLemma(context.Background(), "skip")
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, core.ID(10), members[0].Item.ID)
	assert.Equal(t, core.ID(7), members[0].Cluster.ID)
	assert.Equal(t, core.ID(10), members[1].Item.ID)
	assert.Equal(t, core.ID(31), members[1].Cluster.ID)
	assert.Equal(t, core.ID(19), members[2].Item.ID)
}

func TestClusterMembersOf(t *testing.T) {
	forEachMode(t, func(t *testing.T, d *testDictionaries) {
		ctx := context.Background()

		members, err := d.clusters.ClusterMembersOf(ctx, 12)
		require.NoError(t, err)
		require.Len(t, members, 3)
		want := []struct {
			lemma string
			value float64
		}{{"köttur", 0.90}, {"hundur", 0.85}, {"dýr", 0.60}}
		for i, w := range want {
			assert.Equal(t, w.lemma, members[i].Item.Lemma)
			assert.Equal(t, w.value, members[i].Value)
			assert.Equal(t, "dýraríki", members[i].Cluster.Name)
		}

		none, err := d.clusters.ClusterMembersOf(ctx, 9)
		require.NoError(t, err)
		assert.Empty(t, none)

		items, err := d.clusters.ItemsForCluster(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, []core.ID{9, 10, 19}, itemIDs(items))
	})
}

func TestDomainsFor(t *testing.T) {
	forEachMode(t, func(t *testing.T, d *testDictionaries) {
		ctx := context.Background()

		domains, err := d.clusters.DomainsFor(ctx, "hús")
		require.NoError(t, err)
		require.Len(t, domains, 2)
		assert.Equal(t, core.ID(8), domains["hús"].ID, "unnamed cluster is named after its center")
		assert.Equal(t, core.ID(8), domains["heimili"].ID)

		domains, err = d.clusters.DomainsFor(ctx, "bátur")
		require.NoError(t, err)
		assert.Len(t, domains, 2)
		assert.Contains(t, domains, "sjór")
		assert.Contains(t, domains, "íþróttir_keppni")

		domains, err = d.clusters.DomainsFor(ctx, "mamma")
		require.NoError(t, err)
		assert.Empty(t, domains)
	})
}

func TestItemsForDomain(t *testing.T) {
	forEachMode(t, func(t *testing.T, d *testDictionaries) {
		ctx := context.Background()

		tests := []struct {
			domain string
			want   []core.ID
		}{
			{"íþróttir", []core.ID{12}},
			{"íþróttir_*", []core.ID{9, 10}},
			{"sjór", []core.ID{9, 10, 19}},
			{"heimili", []core.ID{8, 7}},
			{"foo", []core.ID{}},
			{"", []core.ID{}},
		}
		for _, tt := range tests {
			t.Run(tt.domain, func(t *testing.T) {
				items, err := d.clusters.ItemsForDomain(ctx, tt.domain)
				require.NoError(t, err)
				assert.Equal(t, tt.want, itemIDs(items))
			})
		}
	})
}
