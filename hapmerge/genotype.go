package hapmerge

import (
	"github.com/asmvar/diploid/interval"
)

// Genotype calls for one haplotype of a merged variant.
const (
	GTPresent = "1" // variant called in this haplotype
	GTAbsent  = "0" // not called, placement fully mappable
	GTNoCall  = "." // not called, placement not confidently mappable
)

// Genotype returns the ternary call for one haplotype of a merged variant.
// labels is the record's haplotype-label set, hap the haplotype being
// called, and mapped that haplotype's mappability forest.  The placement
// [pos, end) must be fully contained in a single mappable interval for a
// confident absence; partial overlap yields a no-call.
func Genotype(labels []string, hap, chrom string, pos, end int, mapped *interval.Forest) string {
	for _, label := range labels {
		if label == hap {
			return GTPresent
		}
	}
	if mapped.Contains(chrom, pos, end) {
		return GTAbsent
	}
	return GTNoCall
}
