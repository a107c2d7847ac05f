package hapmerge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asmvar/diploid/interval"
)

func TestFilterByTigTreeNil(t *testing.T) {
	df := mustIndexedTable(t,
		"ID\tTIG_REGION\n"+
			"v1\ttig1:100-200\n")
	got, err := FilterByTigTree(df, nil)
	require.NoError(t, err)
	assert.True(t, got == df, "nil tree must be an identity pass-through")
}

func TestFilterByTigTree(t *testing.T) {
	df := mustIndexedTable(t,
		"ID\tTIG_REGION\n"+
			"v1\ttig1:100-200\n"+ // [99,200): no overlap with [200,300)
			"v2\ttig1:150-250\n"+ // [149,250): overlaps
			"v3\ttig1:201-250\n"+ // [200,250): overlaps
			"v4\ttig2:150-250\n") // other contig: retained

	excl := interval.NewForest()
	excl.Add("tig1", 200, 300)
	excl.Freeze()

	got, err := FilterByTigTree(df, excl)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v4"}, got.Column("ID"))
	// Surviving rows keep their identity and the index still resolves.
	val, err := got.Lookup("v4", "TIG_REGION")
	require.NoError(t, err)
	assert.Equal(t, "tig2:150-250", val)
}

func TestFilterByTigTreeNoRemovals(t *testing.T) {
	df := mustIndexedTable(t,
		"ID\tTIG_REGION\n"+
			"v1\ttig1:100-200\n")
	excl := interval.NewForest()
	excl.Add("tig9", 0, 1000)
	excl.Freeze()

	got, err := FilterByTigTree(df, excl)
	require.NoError(t, err)
	assert.True(t, got == df, "no removals returns the input unchanged")
}

func TestFilterByTigTreeBadRegion(t *testing.T) {
	df := mustIndexedTable(t,
		"ID\tTIG_REGION\n"+
			"v1\ttig1:100-200\n"+
			"v2\ttig1_100_200\n")
	excl := interval.NewForest()
	excl.Freeze()

	_, err := FilterByTigTree(df, excl)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "v2")
	assert.Contains(t, err.Error(), "tig1_100_200")
}
