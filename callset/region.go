package callset

import (
	"fmt"
	"regexp"
	"strconv"
)

// Column names shared by all call-set tables.
const (
	IDCol     = "ID"
	ChromCol  = "#CHROM"
	PosCol    = "POS"
	EndCol    = "END"
	SVTypeCol = "SVTYPE"
)

// Region is a contig-local span in 0-based half-open coordinates.
type Region struct {
	Contig string
	Start  int
	End    int
}

func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Contig, r.Start+1, r.End)
}

var regionRE = regexp.MustCompile(`^([^:]+):(\d+)-(\d+)$`)

// ParseRegion parses a "contig:start-end" region string with 1-based
// inclusive coordinates, returning the 0-based half-open equivalent.
func ParseRegion(s string) (Region, error) {
	m := regionRE.FindStringSubmatch(s)
	if m == nil {
		return Region{}, fmt.Errorf("callset.ParseRegion: unrecognized region format: %q", s)
	}
	start, err := strconv.Atoi(m[2])
	if err != nil {
		return Region{}, fmt.Errorf("callset.ParseRegion: bad start in %q: %v", s, err)
	}
	end, err := strconv.Atoi(m[3])
	if err != nil {
		return Region{}, fmt.Errorf("callset.ParseRegion: bad end in %q: %v", s, err)
	}
	if start < 1 || end < start {
		return Region{}, fmt.Errorf("callset.ParseRegion: invalid coordinate pair in %q", s)
	}
	return Region{Contig: m[1], Start: start - 1, End: end}, nil
}
