package hapmerge

import (
	"context"
	"fmt"
	"strconv"

	"github.com/asmvar/diploid/callset"
)

// ExactMerger is a minimal Merger that clusters calls with identical
// (#CHROM, POS, END, SVTYPE) placement.  Real merge strategies (reciprocal
// overlap, size-overlap, offset windows) live behind external Merger
// implementations; this one exists so the pipeline can run end to end and
// so tests exercise the full MERGE_* schema contract.
type ExactMerger struct{}

type exactKey struct {
	chrom  string
	pos    string
	end    string
	svtype string
}

// Merge implements Merger.  The output row order follows h1's input order
// with h2-only records appended in h2's input order; Threads is ignored.
func (ExactMerger) Merge(ctx context.Context, h1, h2 *callset.Table, config MergeConfig) (*callset.Table, error) {
	if config.Chrom != "" {
		var err error
		if h1, err = h1.SubsetChrom(config.Chrom); err != nil {
			return nil, err
		}
		if h2, err = h2.SubsetChrom(config.Chrom); err != nil {
			return nil, err
		}
	}
	cols := h1.Columns()
	if len(cols) != len(h2.Columns()) {
		return nil, fmt.Errorf("hapmerge: exact merge: haplotype call sets have different schemas")
	}
	for i, name := range h2.Columns() {
		if cols[i] != name {
			return nil, fmt.Errorf("hapmerge: exact merge: haplotype call sets have different schemas")
		}
	}

	key := func(t *callset.Table, r int) exactKey {
		return exactKey{
			chrom:  t.Get(r, callset.ChromCol),
			pos:    t.Get(r, callset.PosCol),
			end:    t.Get(r, callset.EndCol),
			svtype: t.Get(r, callset.SVTypeCol),
		}
	}

	h2ByKey := map[exactKey]int{}
	for r := 0; r < h2.NumRows(); r++ {
		k := key(h2, r)
		if _, found := h2ByKey[k]; !found {
			h2ByKey[k] = r
		}
	}

	out, err := callset.NewTable(cols)
	if err != nil {
		return nil, err
	}
	var samples, variants, srcs, srcIDs, acs, afs []string

	addRow := func(lead *callset.Table, r int, sampleList, variantList string, src, srcID string, ac int) error {
		row := make([]string, len(cols))
		for i, name := range cols {
			row[i] = lead.Get(r, name)
		}
		if err := out.AppendRow(row); err != nil {
			return err
		}
		samples = append(samples, sampleList)
		variants = append(variants, variantList)
		srcs = append(srcs, src)
		srcIDs = append(srcIDs, srcID)
		acs = append(acs, strconv.Itoa(ac))
		afs = append(afs, strconv.FormatFloat(float64(ac)/2, 'f', -1, 64))
		return nil
	}

	h2Used := make(map[int]bool, h2.NumRows())
	for r := 0; r < h1.NumRows(); r++ {
		k := key(h1, r)
		id := h1.Get(r, callset.IDCol)
		if r2, found := h2ByKey[k]; found && !h2Used[r2] {
			h2Used[r2] = true
			err = addRow(h1, r,
				config.Samples[0]+","+config.Samples[1],
				id+","+h2.Get(r2, callset.IDCol),
				config.Samples[0], id, 2)
		} else {
			err = addRow(h1, r, config.Samples[0], id, config.Samples[0], id, 1)
		}
		if err != nil {
			return nil, err
		}
	}
	for r := 0; r < h2.NumRows(); r++ {
		if h2Used[r] {
			continue
		}
		id := h2.Get(r, callset.IDCol)
		if err := addRow(h2, r, config.Samples[1], id, config.Samples[1], id, 1); err != nil {
			return nil, err
		}
	}

	mergeCols := []struct {
		name string
		vals []string
	}{
		{"MERGE_SRC", srcs},
		{"MERGE_SRC_ID", srcIDs},
		{"MERGE_AC", acs},
		{"MERGE_AF", afs},
		{"MERGE_SAMPLES", samples},
		{"MERGE_VARIANTS", variants},
	}
	for _, mc := range mergeCols {
		if err := out.AddColumn(mc.name, mc.vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}
