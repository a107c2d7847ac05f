package hapmerge

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/asmvar/diploid/callset"
)

// Pairing is the fixed-order association between a merged record's
// haplotype labels and the source variant IDs those labels refer to.
// Labels[i] names the haplotype that called Variants[i].
type Pairing struct {
	// ID is the merged record's variant identifier, carried for error
	// reporting.
	ID       string
	Labels   []string
	Variants []string
}

// Pairings extracts one Pairing per record from the HAP and HAP_VARIANTS
// columns.  Both columns must hold the same number of Delim-joined
// segments per record.
func Pairings(df *callset.Table) ([]Pairing, error) {
	pairings := make([]Pairing, df.NumRows())
	for r := 0; r < df.NumRows(); r++ {
		id := df.Get(r, callset.IDCol)
		labels := strings.Split(df.Get(r, HapCol), Delim)
		variants := strings.Split(df.Get(r, HapVariantsCol), Delim)
		if len(labels) != len(variants) {
			return nil, fmt.Errorf("hapmerge: record %s: %d haplotype label(s) for %d variant ID(s)",
				id, len(labels), len(variants))
		}
		pairings[r] = Pairing{ID: id, Labels: labels, Variants: variants}
	}
	return pairings, nil
}

// ValPerHap builds one value per merged record for the named column by
// looking up each paired source variant in the source table of its
// haplotype and joining the results with delim, in pairing order.  A
// variant ID missing from its source table is a dangling reference and is
// fatal.
func ValPerHap(pairings []Pairing, h1, h2 *callset.Table, col, delim string) ([]string, error) {
	sources := map[string]*callset.Table{Hap1: h1, Hap2: h2}

	vals := make([]string, len(pairings))
	var sb strings.Builder
	for i, p := range pairings {
		sb.Reset()
		for j, label := range p.Labels {
			src, found := sources[label]
			if !found {
				return nil, fmt.Errorf("hapmerge: record %s: unknown haplotype label %q", p.ID, label)
			}
			val, err := src.Lookup(p.Variants[j], col)
			if err != nil {
				return nil, errors.Wrapf(err, "hapmerge: record %s: haplotype %s", p.ID, label)
			}
			if j > 0 {
				sb.WriteString(delim)
			}
			sb.WriteString(val)
		}
		vals[i] = sb.String()
	}
	return vals, nil
}
