package interval

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/klauspost/compress/gzip"
)

// ReadBEDOpts defines behavior of this package's BED-loading functions.
type ReadBEDOpts struct {
	// OneBasedInput interprets interval boundaries as one-based [start, end]
	// instead of the usual zero-based [start, end).
	OneBasedInput bool
}

// ReadBED loads a Forest from a tab-delimited region table with a
// "#CHROM POS END" header row.  Unlike a plain BED, the header is
// required; extra columns are ignored.  The returned Forest is frozen.
func ReadBED(r io.Reader, opts ReadBEDOpts) (*Forest, error) {
	scanner := bufio.NewScanner(r)

	startSubtract := 0
	if opts.OneBasedInput {
		startSubtract = 1
	}

	f := NewForest()
	lineIdx := 0
	sawHeader := false
	totBases := 0
	for scanner.Scan() {
		lineIdx++
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if !sawHeader {
			if len(fields) < 3 || fields[0] != "#CHROM" {
				return nil, fmt.Errorf("interval.ReadBED: line %d: expected \"#CHROM\tPOS\tEND\" header", lineIdx)
			}
			sawHeader = true
			continue
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("interval.ReadBED: line %d has fewer than 3 fields", lineIdx)
		}
		start, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("interval.ReadBED: line %d: bad start %q", lineIdx, fields[1])
		}
		start -= startSubtract
		if start < 0 {
			return nil, fmt.Errorf("interval.ReadBED: line %d: negative start coordinate", lineIdx)
		}
		end, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("interval.ReadBED: line %d: bad end %q", lineIdx, fields[2])
		}
		if end < start {
			return nil, fmt.Errorf("interval.ReadBED: line %d: invalid coordinate pair", lineIdx)
		}
		f.Add(fields[0], start, end)
		totBases += end - start
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !sawHeader {
		return nil, fmt.Errorf("interval.ReadBED: empty input")
	}
	f.Freeze()
	log.Printf("region table loaded, %d interval(s), %d base(s) covered", f.NumIntervals(), totBases)
	return f, nil
}

// ReadBEDFromPath is a wrapper for ReadBED that takes a path instead of an
// io.Reader.  Gzipped input is detected from the path suffix.
func ReadBEDFromPath(path string, opts ReadBEDOpts) (f *Forest, err error) {
	ctx := vcontext.Background()
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := in.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(in.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		if reader, err = gzip.NewReader(reader); err != nil {
			return
		}
	}
	return ReadBED(reader, opts)
}
