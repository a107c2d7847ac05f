package hapmerge

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/pkg/errors"

	"github.com/asmvar/diploid/callset"
	"github.com/asmvar/diploid/interval"
)

// InvMode selects how inversion-specific columns are handled.
type InvMode int

const (
	// InvAuto resolves inversion handling from the merge output: inversion
	// columns are processed iff the clustered call set is non-empty and
	// every record is SVTYPE=INV.
	InvAuto InvMode = iota
	// InvOff never processes inversion columns.
	InvOff
	// InvOn requires an all-inversion merge output and processes the
	// inversion columns; a mixed output is a schema violation.
	InvOn
)

// Options parameterizes MergeHaplotypes.
type Options struct {
	// H1File and H2File are the per-haplotype call-set tables.
	H1File string
	H2File string
	// H1Callable and H2Callable are the per-haplotype callable-region
	// tables, 0-based half-open [POS, END).
	H1Callable string
	H2Callable string
	// Config is handed to the external merger.
	Config MergeConfig
	// Inv selects inversion-column handling.
	Inv InvMode
	// TigFilter holds optional no-call regions in contig space.  Records
	// whose TIG_REGION intersects it are removed from both haplotype call
	// sets before the merge.
	TigFilter *interval.Forest
}

// MergeHaplotypes merges the two haplotype call sets of one variant class
// into a diploid call set with per-site genotypes.  The clustering itself
// is performed by merger; this function restructures the merger's schema,
// rebuilds the per-haplotype columns from the source call sets, and infers
// GT per haplotype from the callable-region tables.
func MergeHaplotypes(ctx context.Context, merger Merger, opts Options) (*callset.Table, error) {
	h1, err := loadSource(opts.H1File, opts.Config.Chrom, opts.TigFilter)
	if err != nil {
		return nil, err
	}
	h2, err := loadSource(opts.H2File, opts.Config.Chrom, opts.TigFilter)
	if err != nil {
		return nil, err
	}

	config := opts.Config
	if config.Samples == [2]string{} {
		config.Samples = DefaultSamples
	}
	df, err := merger.Merge(ctx, h1, h2, config)
	if err != nil {
		return nil, errors.Wrap(err, "hapmerge: external merge")
	}
	if err := df.SetIndex(callset.IDCol); err != nil {
		return nil, errors.Wrap(err, "hapmerge: merge output")
	}
	if err := validateMergeOutput(df); err != nil {
		return nil, err
	}

	isInv, err := resolveInvMode(df, opts.Inv)
	if err != nil {
		return nil, err
	}

	if err := restructureColumns(df); err != nil {
		return nil, err
	}

	if df.NumRows() == 0 {
		if err := emptySchema(df, isInv); err != nil {
			return nil, err
		}
		log.Printf("hapmerge: merge produced no records (chrom=%q)", opts.Config.Chrom)
		return df, nil
	}

	if err := normalizeDelims(df); err != nil {
		return nil, err
	}
	normalizeClusterMatch(h1)
	normalizeClusterMatch(h2)

	pairings, err := Pairings(df)
	if err != nil {
		return nil, err
	}

	for _, col := range reconcileCols {
		vals, err := ValPerHap(pairings, h1, h2, col, Delim)
		if err != nil {
			return nil, err
		}
		if err := setOrAdd(df, col, vals); err != nil {
			return nil, err
		}
	}
	if isInv {
		for _, col := range invDropCols {
			if err := df.DropColumn(col); err != nil {
				return nil, errors.Wrap(err, "hapmerge: inversion merge output")
			}
		}
		for _, col := range invReconcileCols {
			vals, err := ValPerHap(pairings, h1, h2, col, Delim)
			if err != nil {
				return nil, err
			}
			if err := setOrAdd(df, col, vals); err != nil {
				return nil, err
			}
		}
	}

	mapH1, err := interval.ReadBEDFromPath(opts.H1Callable, interval.ReadBEDOpts{})
	if err != nil {
		return nil, errors.Wrapf(err, "hapmerge: callable regions %s", opts.H1Callable)
	}
	mapH2, err := interval.ReadBEDFromPath(opts.H2Callable, interval.ReadBEDOpts{})
	if err != nil {
		return nil, errors.Wrapf(err, "hapmerge: callable regions %s", opts.H2Callable)
	}

	gts, err := assembleGenotypes(df, pairings, mapH1, mapH2)
	if err != nil {
		return nil, err
	}
	if err := setOrAdd(df, GTCol, gts); err != nil {
		return nil, err
	}

	log.Printf("hapmerge: merged %d record(s) (chrom=%q, inv=%v)", df.NumRows(), opts.Config.Chrom, isInv)
	return df, nil
}

// MergeHaplotypesByChrom runs MergeHaplotypes once per chromosome
// partition, at most opts.Config.Threads partitions in flight, and
// concatenates the results in the order of chroms.  Partitioning is safe
// because the merger never pairs calls across chromosomes.  InvAuto is
// resolved once from the source call sets before partitioning, so every
// partition agrees on the output schema even when some chromosomes carry
// no records.
func MergeHaplotypesByChrom(ctx context.Context, merger Merger, opts Options, chroms []string) (*callset.Table, error) {
	if opts.Inv == InvAuto {
		mode, err := scanInvMode(opts.H1File, opts.H2File)
		if err != nil {
			return nil, err
		}
		opts.Inv = mode
	}
	parallelism := opts.Config.Threads
	if parallelism < 1 {
		parallelism = 1
	}
	results := make([]*callset.Table, len(chroms))
	err := traverse.Limit(parallelism).Each(len(chroms), func(i int) error {
		chromOpts := opts
		chromOpts.Config.Chrom = chroms[i]
		t, err := MergeHaplotypes(ctx, merger, chromOpts)
		if err != nil {
			return errors.Wrapf(err, "chrom %s", chroms[i])
		}
		results[i] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return callset.Concat(results...)
}

// loadSource reads one haplotype call set, restricts it to chrom when
// nonempty, applies the contig-space exclusion filter, and indexes it by
// variant ID.
func loadSource(path, chrom string, tigFilter *interval.Forest) (*callset.Table, error) {
	t, err := callset.ReadTableFromPath(path)
	if err != nil {
		return nil, err
	}
	if chrom != "" {
		if t, err = t.SubsetChrom(chrom); err != nil {
			return nil, errors.Wrapf(err, "hapmerge: %s", path)
		}
	}
	if err := t.SetIndex(callset.IDCol); err != nil {
		return nil, errors.Wrapf(err, "hapmerge: %s", path)
	}
	if t, err = FilterByTigTree(t, tigFilter); err != nil {
		return nil, errors.Wrapf(err, "hapmerge: %s", path)
	}
	return t, nil
}

// resolveInvMode decides whether inversion columns are processed.  The
// decision is made strictly from the merge output: InvAuto means
// "non-empty and all records are inversions", and InvOn validates that
// the merger in fact returned only inversions.
func resolveInvMode(df *callset.Table, mode InvMode) (bool, error) {
	nInv := 0
	for r := 0; r < df.NumRows(); r++ {
		if df.Get(r, callset.SVTypeCol) == SVTypeInv {
			nInv++
		}
	}
	switch mode {
	case InvOff:
		return false, nil
	case InvOn:
		if nInv != df.NumRows() {
			return false, fmt.Errorf(
				"hapmerge: detected inversions in merge, but not all variants are inversions (%d of %d)",
				nInv, df.NumRows())
		}
		return true, nil
	default:
		return df.NumRows() > 0 && nInv == df.NumRows(), nil
	}
}

// scanInvMode resolves InvAuto ahead of a multi-partition run by scanning
// the source call sets: InvOn when they are non-empty and all-inversion,
// InvOff otherwise.
func scanInvMode(h1File, h2File string) (InvMode, error) {
	n, nInv := 0, 0
	for _, path := range []string{h1File, h2File} {
		t, err := callset.ReadTableFromPath(path)
		if err != nil {
			return InvOff, err
		}
		if !t.HasColumn(callset.SVTypeCol) {
			return InvOff, fmt.Errorf("hapmerge: %s: missing column %q", path, callset.SVTypeCol)
		}
		for r := 0; r < t.NumRows(); r++ {
			n++
			if t.Get(r, callset.SVTypeCol) == SVTypeInv {
				nInv++
			}
		}
	}
	if n > 0 && n == nInv {
		return InvOn, nil
	}
	return InvOff, nil
}

// validateMergeOutput checks that the merger honored its output contract
// before any column is read, so a missing column surfaces as a schema
// violation naming the column instead of failing downstream.
func validateMergeOutput(df *callset.Table) error {
	required := []string{
		callset.ChromCol, callset.PosCol, callset.EndCol, callset.SVTypeCol,
		"MERGE_SAMPLES", "MERGE_VARIANTS",
	}
	for _, col := range required {
		if !df.HasColumn(col) {
			return fmt.Errorf("hapmerge: merge output missing column %q", col)
		}
	}
	return nil
}

// restructureColumns rewrites the raw merger schema into the HAP_* output
// schema: conditional pre-merge artifacts are dropped, the MERGE_ prefix
// becomes HAP_, bookkeeping columns go away, and HAP_SAMPLES becomes HAP.
func restructureColumns(df *callset.Table) error {
	for _, col := range []string{HapCol, discClassCol} {
		if df.HasColumn(col) {
			if err := df.DropColumn(col); err != nil {
				return err
			}
		}
	}
	for _, col := range append([]string(nil), df.Columns()...) {
		if strings.HasPrefix(col, mergePrefix) {
			if err := df.RenameColumn(col, hapPrefix+strings.TrimPrefix(col, mergePrefix)); err != nil {
				return errors.Wrap(err, "hapmerge: merge output")
			}
		}
	}
	for _, col := range mergeArtifactCols {
		if err := df.DropColumn(col); err != nil {
			return errors.Wrap(err, "hapmerge: merge output missing bookkeeping column")
		}
	}
	if err := df.RenameColumn(hapSamplesCol, HapCol); err != nil {
		return errors.Wrap(err, "hapmerge: merge output")
	}
	return nil
}

// normalizeDelims rewrites merger-emitted comma separators to Delim in
// the multi-value columns.
func normalizeDelims(df *callset.Table) error {
	cols := append([]string(nil), requiredCommaCols...)
	for _, col := range optionalCommaCols {
		if df.HasColumn(col) {
			cols = append(cols, col)
		}
	}
	for _, col := range cols {
		vals := df.Column(col)
		for i, v := range vals {
			vals[i] = strings.Replace(v, ",", Delim, -1)
		}
		if err := df.SetColumn(col, vals); err != nil {
			return err
		}
	}
	return nil
}

// normalizeClusterMatch replaces an empty CLUSTER_MATCH with the literal
// missing placeholder in a source call set.
func normalizeClusterMatch(t *callset.Table) {
	if !t.HasColumn(ClusterMatchCol) {
		return
	}
	for r := 0; r < t.NumRows(); r++ {
		if t.Get(r, ClusterMatchCol) == "" {
			t.Set(r, ClusterMatchCol, clusterMatchMissing)
		}
	}
}

// assembleGenotypes calls both haplotypes per record and joins them as
// "<h1>|<h2>".  A "0|0" genotype can only come from an upstream merge
// emitting a variant absent from both haplotypes in mappable sequence,
// which is a bug, not a data-quality condition.
func assembleGenotypes(df *callset.Table, pairings []Pairing, mapH1, mapH2 *interval.Forest) ([]string, error) {
	gts := make([]string, df.NumRows())
	for r := 0; r < df.NumRows(); r++ {
		chrom := df.Get(r, callset.ChromCol)
		pos, err := strconv.Atoi(df.Get(r, callset.PosCol))
		if err != nil {
			return nil, fmt.Errorf("hapmerge: record %s: bad POS %q", df.ID(r), df.Get(r, callset.PosCol))
		}
		end, err := strconv.Atoi(df.Get(r, callset.EndCol))
		if err != nil {
			return nil, fmt.Errorf("hapmerge: record %s: bad END %q", df.ID(r), df.Get(r, callset.EndCol))
		}
		gtH1 := Genotype(pairings[r].Labels, Hap1, chrom, pos, end, mapH1)
		gtH2 := Genotype(pairings[r].Labels, Hap2, chrom, pos, end, mapH2)
		gt := gtH1 + "|" + gtH2
		if gt == GTAbsent+"|"+GTAbsent {
			return nil, fmt.Errorf("hapmerge: program bug: found 0|0 genotype after merging haplotypes (record %s)", df.ID(r))
		}
		gts[r] = gt
	}
	return gts, nil
}

// emptySchema gives a zero-row merge result the full output column set,
// with the reconciled columns and GT holding the missing marker.
func emptySchema(df *callset.Table, isInv bool) error {
	for _, col := range reconcileCols {
		if err := setConst(df, col, missingMarker); err != nil {
			return err
		}
	}
	if isInv {
		for _, col := range invDropCols {
			if err := df.DropColumn(col); err != nil {
				return errors.Wrap(err, "hapmerge: inversion merge output")
			}
		}
		for _, col := range invReconcileCols {
			if err := setConst(df, col, missingMarker); err != nil {
				return err
			}
		}
	}
	return setConst(df, GTCol, missingMarker)
}

func setOrAdd(df *callset.Table, name string, vals []string) error {
	if df.HasColumn(name) {
		return df.SetColumn(name, vals)
	}
	return df.AddColumn(name, vals)
}

func setConst(df *callset.Table, name, val string) error {
	if df.HasColumn(name) {
		vals := make([]string, df.NumRows())
		for i := range vals {
			vals[i] = val
		}
		return df.SetColumn(name, vals)
	}
	return df.AddConstColumn(name, val)
}
