package hapmerge

import (
	"context"

	"github.com/asmvar/diploid/callset"
)

// MergeConfig parameterizes one external clustering-merge invocation.
type MergeConfig struct {
	// Strategy is the clustering strategy definition, passed through to the
	// merger verbatim (e.g. "nr::exact:ro(0.5):szro(0.5,200)").
	Strategy string
	// Threads bounds the merger's internal parallelism.  Values below 1 are
	// treated as 1.
	Threads int
	// Chrom restricts the merge to one chromosome when nonempty.
	Chrom string
	// Samples names the two input call sets, in output order.
	Samples [2]string
}

// DefaultSamples are the sample labels handed to the merger for the two
// haplotype call sets.
var DefaultSamples = [2]string{Hap1, Hap2}

// Merger is the external clustering collaborator: given the two haplotype
// call sets it decides which calls co-represent one variant and returns a
// unified table.  The output must carry ID, SVTYPE, comma-joined
// MERGE_SAMPLES and MERGE_VARIANTS columns, further MERGE_*-prefixed
// per-haplotype columns, and the MERGE_SRC/MERGE_SRC_ID/MERGE_AC/MERGE_AF
// bookkeeping columns; the orchestrator restructures all of these.
//
// A Merger may parallelize internally up to config.Threads, but its output
// row order must be deterministic for a given input.
type Merger interface {
	Merge(ctx context.Context, h1, h2 *callset.Table, config MergeConfig) (*callset.Table, error)
}
