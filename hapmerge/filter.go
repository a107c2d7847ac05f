package hapmerge

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/asmvar/diploid/callset"
	"github.com/asmvar/diploid/interval"
)

// FilterByTigTree removes records whose TIG_REGION intersects a no-call
// region in tigFilter (any intersection, not containment).  A nil
// tigFilter returns df unchanged.  The relative order and identity of the
// remaining rows is preserved.
func FilterByTigTree(df *callset.Table, tigFilter *interval.Forest) (*callset.Table, error) {
	if tigFilter == nil {
		return df, nil
	}

	keep := make([]bool, df.NumRows())
	removed := 0
	for r := 0; r < df.NumRows(); r++ {
		raw := df.Get(r, TigRegionCol)
		rgn, err := callset.ParseRegion(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "hapmerge: record %s", recordID(df, r))
		}
		keep[r] = !tigFilter.Overlaps(rgn.Contig, rgn.Start, rgn.End)
		if !keep[r] {
			removed++
		}
	}
	if removed == 0 {
		return df, nil
	}
	return df.Subset(keep)
}

// recordID names a row for diagnostics: the ID column when present,
// otherwise the row position.
func recordID(df *callset.Table, row int) string {
	if df.HasColumn(callset.IDCol) {
		return df.Get(row, callset.IDCol)
	}
	return "#" + strconv.Itoa(row)
}
