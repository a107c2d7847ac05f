package hapmerge

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asmvar/diploid/callset"
	"github.com/asmvar/diploid/interval"
)

const srcHeader = "ID\t#CHROM\tPOS\tEND\tSVTYPE\tTIG_REGION\tQUERY_STRAND\tCI\tALIGN_INDEX\tCLUSTER_MATCH\tCALL_SOURCE\n"

const bedHeader = "#CHROM\tPOS\tEND\n"

func writeTmp(t *testing.T, dir, name, text string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, ioutil.WriteFile(path, []byte(text), 0644))
	return path
}

// standardFixture writes a two-haplotype INS call set:
//   - v1 (h1) and v9 (h2) co-represent chr1:100-200,
//   - v2 is h1-only at chr1:350-400, only partially mappable in h2,
//   - v10 is h2-only at chr1:500-600, fully mappable in h1.
func standardFixture(t *testing.T, dir string) Options {
	h1 := writeTmp(t, dir, "h1.bed", srcHeader+
		"v1\tchr1\t100\t200\tINS\ttig1:100-200\t+\t0,5\t0\t\tCIGAR\n"+
		"v2\tchr1\t350\t400\tINS\ttig1:500-550\t+\t0,0\t1\tcl2\tCIGAR\n")
	h2 := writeTmp(t, dir, "h2.bed", srcHeader+
		"v9\tchr1\t100\t200\tINS\ttig9:50-150\t-\t0,3\t2\tcl1\tCIGAR\n"+
		"v10\tchr1\t500\t600\tINS\ttig9:300-400\t-\t0,0\t0\t\tCIGAR\n")
	h1Callable := writeTmp(t, dir, "h1_callable.bed", bedHeader+
		"chr1\t50\t300\n"+
		"chr1\t450\t700\n")
	h2Callable := writeTmp(t, dir, "h2_callable.bed", bedHeader+
		"chr1\t50\t300\n"+
		"chr1\t340\t380\n")
	return Options{
		H1File:     h1,
		H2File:     h2,
		H1Callable: h1Callable,
		H2Callable: h2Callable,
		Config:     MergeConfig{Strategy: "nr::exact", Threads: 1},
	}
}

func TestMergeHaplotypes(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	opts := standardFixture(t, dir)

	df, err := MergeHaplotypes(context.Background(), ExactMerger{}, opts)
	require.NoError(t, err)
	require.Equal(t, 3, df.NumRows())

	assert.Equal(t, []string{"v1", "v2", "v10"}, df.Column(callset.IDCol))
	assert.Equal(t, []string{"h1;h2", "h1", "h2"}, df.Column(HapCol))
	assert.Equal(t, []string{"v1;v9", "v2", "v10"}, df.Column(HapVariantsCol))
	assert.Equal(t, []string{"1|1", "1|.", "0|1"}, df.Column(GTCol))

	// Reconciled columns pull from each haplotype's source call set in
	// HAP order.
	assert.Equal(t, []string{"0,5;0,3", "0,0", "0,0"}, df.Column(CICol))
	assert.Equal(t, []string{"+;-", "+", "-"}, df.Column(QueryStrandCol))
	assert.Equal(t, []string{"tig1:100-200;tig9:50-150", "tig1:500-550", "tig9:300-400"},
		df.Column(TigRegionCol))
	assert.Equal(t, []string{"0;2", "1", "0"}, df.Column(AlignIndexCol))
	// Empty CLUSTER_MATCH is normalized to the NA placeholder.
	assert.Equal(t, []string{"NA;cl1", "cl2", "NA"}, df.Column(ClusterMatchCol))

	// Merger bookkeeping is gone.
	for _, col := range []string{"HAP_SRC", "HAP_SRC_ID", "HAP_AC", "HAP_AF", "HAP_SAMPLES", "DISC_CLASS"} {
		assert.False(t, df.HasColumn(col), col)
	}
}

func TestMergeHaplotypesTigFilter(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	opts := standardFixture(t, dir)

	// Exclude v10's supporting contig region; v10 never reaches the merge.
	excl := interval.NewForest()
	excl.Add("tig9", 299, 400)
	excl.Freeze()
	opts.TigFilter = excl

	df, err := MergeHaplotypes(context.Background(), ExactMerger{}, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, df.Column(callset.IDCol))
}

func TestMergeHaplotypesChromRestriction(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	opts := standardFixture(t, dir)
	opts.Config.Chrom = "chr2"

	df, err := MergeHaplotypes(context.Background(), ExactMerger{}, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, df.NumRows())
	// The empty branch still delivers the full output schema.
	for _, col := range append(append([]string{}, reconcileCols...), HapCol, HapVariantsCol, GTCol) {
		assert.True(t, df.HasColumn(col), col)
	}
}

func TestMergeHaplotypesByChrom(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	h1 := writeTmp(t, dir, "h1.bed", srcHeader+
		"v1\tchr1\t100\t200\tINS\ttig1:100-200\t+\t0,5\t0\t\tCIGAR\n"+
		"v3\tchr2\t100\t200\tINS\ttig2:100-200\t+\t0,0\t0\t\tCIGAR\n")
	h2 := writeTmp(t, dir, "h2.bed", srcHeader+
		"v9\tchr2\t100\t200\tINS\ttig8:100-200\t-\t0,3\t0\t\tCIGAR\n")
	callable := bedHeader + "chr1\t0\t1000\nchr2\t0\t1000\n"
	opts := Options{
		H1File:     h1,
		H2File:     h2,
		H1Callable: writeTmp(t, dir, "h1c.bed", callable),
		H2Callable: writeTmp(t, dir, "h2c.bed", callable),
		Config:     MergeConfig{Threads: 2},
	}

	df, err := MergeHaplotypesByChrom(context.Background(), ExactMerger{}, opts, []string{"chr2", "chr1"})
	require.NoError(t, err)
	// Partition results concatenate in the requested chromosome order.
	assert.Equal(t, []string{"v3", "v1"}, df.Column(callset.IDCol))
	assert.Equal(t, []string{"1|1", "1|0"}, df.Column(GTCol))
}

const invHeader = "ID\t#CHROM\tPOS\tEND\tSVTYPE\tTIG_REGION\tQUERY_STRAND\tCI\tALIGN_INDEX\tCLUSTER_MATCH\tCALL_SOURCE\t" +
	"RGN_REF_INNER\tRGN_TIG_INNER\tRGN_REF_DISC\tRGN_TIG_DISC\tFLAG_ID\tFLAG_TYPE\n"

func invFixture(t *testing.T, dir string) Options {
	h1 := writeTmp(t, dir, "h1.bed", invHeader+
		"v1\tchr1\t1000\t5000\tINV\ttig1:900-5100\t+\t0,0\t0\t\tFLAG\t"+
		"chr1:1200-4800\ttig1:1100-4900\tchr1:900-5100\ttig1:800-5200\tf1\tCLUSTER\n")
	h2 := writeTmp(t, dir, "h2.bed", invHeader+
		"v9\tchr1\t1000\t5000\tINV\ttig9:900-5100\t-\t0,0\t0\t\tFLAG\t"+
		"chr1:1300-4700\ttig9:1000-4800\tchr1:900-5100\ttig9:800-5200\tf9\tCLUSTER\n")
	callable := bedHeader + "chr1\t0\t10000\n"
	return Options{
		H1File:     h1,
		H2File:     h2,
		H1Callable: writeTmp(t, dir, "h1c.bed", callable),
		H2Callable: writeTmp(t, dir, "h2c.bed", callable),
		Config:     MergeConfig{Threads: 1},
	}
}

func TestMergeHaplotypesInversion(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	opts := invFixture(t, dir)

	// InvAuto: all records are inversions, so inversion columns are on.
	df, err := MergeHaplotypes(context.Background(), ExactMerger{}, opts)
	require.NoError(t, err)
	require.Equal(t, 1, df.NumRows())
	assert.Equal(t, "1|1", df.Get(0, GTCol))
	assert.Equal(t, "chr1:1200-4800;chr1:1300-4700", df.Get(0, RgnRefInnerCol))
	assert.Equal(t, "tig1:1100-4900;tig9:1000-4800", df.Get(0, RgnTigInnerCol))
	for _, col := range invDropCols {
		assert.False(t, df.HasColumn(col), col)
	}
}

// A chromosome with no records must not change the inversion decision:
// the empty partition has to deliver the same schema as the populated one
// or concatenation fails.
func TestMergeHaplotypesByChromEmptyPartition(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	opts := invFixture(t, dir)

	df, err := MergeHaplotypesByChrom(context.Background(), ExactMerger{}, opts,
		[]string{"chr1", "chr2"})
	require.NoError(t, err)
	require.Equal(t, 1, df.NumRows())
	assert.Equal(t, "1|1", df.Get(0, GTCol))
	assert.True(t, df.HasColumn(RgnRefInnerCol))
	for _, col := range invDropCols {
		assert.False(t, df.HasColumn(col), col)
	}
}

func TestMergeHaplotypesInvOnMixed(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	opts := standardFixture(t, dir)
	opts.Inv = InvOn

	_, err := MergeHaplotypes(context.Background(), ExactMerger{}, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not all variants are inversions (0 of 3)")
}

// truncatingMerger drops a required output column, violating the Merger
// contract.
type truncatingMerger struct{}

func (truncatingMerger) Merge(ctx context.Context, h1, h2 *callset.Table, config MergeConfig) (*callset.Table, error) {
	out, err := ExactMerger{}.Merge(ctx, h1, h2, config)
	if err != nil {
		return nil, err
	}
	if err := out.DropColumn("MERGE_VARIANTS"); err != nil {
		return nil, err
	}
	return out, nil
}

func TestMergeHaplotypesMergerSchemaViolation(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	opts := standardFixture(t, dir)

	_, err := MergeHaplotypes(context.Background(), truncatingMerger{}, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MERGE_VARIANTS")
}

func TestAssembleGenotypesDoubleAbsence(t *testing.T) {
	df := mustIndexedTable(t,
		"ID\t#CHROM\tPOS\tEND\n"+
			"v1\tchr1\t100\t200\n")
	pairings := []Pairing{{ID: "v1", Labels: []string{"hX"}, Variants: []string{"v1"}}}

	mapped := interval.NewForest()
	mapped.Add("chr1", 50, 300)
	mapped.Freeze()

	_, err := assembleGenotypes(df, pairings, mapped, mapped)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "program bug")
	assert.Contains(t, err.Error(), "v1")
}

func TestRestructureColumns(t *testing.T) {
	df := mustIndexedTable(t,
		"ID\tSVTYPE\tHAP\tDISC_CLASS\tMERGE_SRC\tMERGE_SRC_ID\tMERGE_AC\tMERGE_AF\tMERGE_SAMPLES\tMERGE_VARIANTS\tMERGE_RO\n"+
			"v1\tINS\tx\ty\th1\tv1\t2\t1.0\th1,h2\tv1,v9\t1.0,1.0\n")
	require.NoError(t, restructureColumns(df))

	assert.Equal(t,
		[]string{"ID", "SVTYPE", "HAP", "HAP_VARIANTS", "HAP_RO"},
		df.Columns())
	assert.Equal(t, "h1,h2", df.Get(0, HapCol))

	require.NoError(t, normalizeDelims(df))
	assert.Equal(t, "h1;h2", df.Get(0, HapCol))
	assert.Equal(t, "v1;v9", df.Get(0, HapVariantsCol))
	assert.Equal(t, "1.0;1.0", df.Get(0, "HAP_RO"))
}

func TestRestructureColumnsMissingBookkeeping(t *testing.T) {
	df := mustIndexedTable(t,
		"ID\tSVTYPE\tMERGE_SRC\tMERGE_SRC_ID\tMERGE_AF\tMERGE_SAMPLES\tMERGE_VARIANTS\n"+
			"v1\tINS\th1\tv1\t1.0\th1\tv1\n")
	require.Error(t, restructureColumns(df))
}

func TestExactMerger(t *testing.T) {
	h1 := mustIndexedTable(t,
		"ID\t#CHROM\tPOS\tEND\tSVTYPE\n"+
			"v1\tchr1\t100\t200\tINS\n"+
			"v2\tchr1\t300\t400\tDEL\n")
	h2 := mustIndexedTable(t,
		"ID\t#CHROM\tPOS\tEND\tSVTYPE\n"+
			"v9\tchr1\t100\t200\tINS\n"+
			"v10\tchr2\t100\t200\tINS\n")

	out, err := ExactMerger{}.Merge(context.Background(), h1, h2,
		MergeConfig{Samples: DefaultSamples})
	require.NoError(t, err)
	require.Equal(t, 3, out.NumRows())
	assert.Equal(t, []string{"v1", "v2", "v10"}, out.Column(callset.IDCol))
	assert.Equal(t, []string{"h1,h2", "h1", "h2"}, out.Column("MERGE_SAMPLES"))
	assert.Equal(t, []string{"v1,v9", "v2", "v10"}, out.Column("MERGE_VARIANTS"))
	assert.Equal(t, []string{"2", "1", "1"}, out.Column("MERGE_AC"))
	assert.Equal(t, []string{"1", "0.5", "0.5"}, out.Column("MERGE_AF"))
}
