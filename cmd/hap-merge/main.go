// hap-merge merges the two per-haplotype structural-variant call sets of a
// diploid assembly into one genotyped call set.
//
// Example:
//
//	hap-merge \
//	  -h1 h1/sv_ins.bed.gz -h2 h2/sv_ins.bed.gz \
//	  -h1-callable h1/callable.bed.gz -h2-callable h2/callable.bed.gz \
//	  -strategy "nr::exact" -threads 4 -o merged/sv_ins.bed.gz
package main

import (
	"flag"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/asmvar/diploid/callset"
	"github.com/asmvar/diploid/hapmerge"
	"github.com/asmvar/diploid/interval"
)

func main() {
	var (
		h1Path     = flag.String("h1", "", "h1 variant call table.")
		h2Path     = flag.String("h2", "", "h2 variant call table.")
		h1Callable = flag.String("h1-callable", "", "h1 callable-region table ([POS,END) half-open).")
		h2Callable = flag.String("h2-callable", "", "h2 callable-region table ([POS,END) half-open).")
		strategy   = flag.String("strategy", "", "Merge strategy definition, passed to the merger verbatim.")
		threads    = flag.Int("threads", 1, "Merger threads; also bounds per-chromosome parallelism.")
		chroms     = flag.String("chrom", "", "Comma-separated chromosome restriction. Empty merges all chromosomes in one step.")
		invFlag    = flag.String("inv", "auto", "Inversion columns: auto, yes, or no.")
		filterPath = flag.String("filter", "", "Optional no-call region table in contig space (1-based inclusive). Calls whose TIG_REGION intersects it are dropped.")
		outPath    = flag.String("o", "", "Output table path. Empty writes to stdout.")
	)
	cleanup := grail.Init()
	defer cleanup()

	for _, required := range []struct{ name, val string }{
		{"h1", *h1Path}, {"h2", *h2Path},
		{"h1-callable", *h1Callable}, {"h2-callable", *h2Callable},
	} {
		if required.val == "" {
			log.Fatalf("missing required flag -%s", required.name)
		}
	}

	var inv hapmerge.InvMode
	switch *invFlag {
	case "auto":
		inv = hapmerge.InvAuto
	case "yes":
		inv = hapmerge.InvOn
	case "no":
		inv = hapmerge.InvOff
	default:
		log.Fatalf("-inv must be auto, yes, or no (got %q)", *invFlag)
	}

	var tigFilter *interval.Forest
	if *filterPath != "" {
		var err error
		tigFilter, err = interval.ReadBEDFromPath(*filterPath, interval.ReadBEDOpts{OneBasedInput: true})
		if err != nil {
			log.Fatalf("read filter regions: %v", err)
		}
	}

	opts := hapmerge.Options{
		H1File:     *h1Path,
		H2File:     *h2Path,
		H1Callable: *h1Callable,
		H2Callable: *h2Callable,
		Config: hapmerge.MergeConfig{
			Strategy: *strategy,
			Threads:  *threads,
			Samples:  hapmerge.DefaultSamples,
		},
		Inv:       inv,
		TigFilter: tigFilter,
	}

	ctx := vcontext.Background()
	merger := hapmerge.ExactMerger{}

	var (
		df  *callset.Table
		err error
	)
	if chromList := splitChroms(*chroms); len(chromList) > 1 {
		df, err = hapmerge.MergeHaplotypesByChrom(ctx, merger, opts, chromList)
	} else {
		if len(chromList) == 1 {
			opts.Config.Chrom = chromList[0]
		}
		df, err = hapmerge.MergeHaplotypes(ctx, merger, opts)
	}
	if err != nil {
		log.Fatalf("merge haplotypes: %v", err)
	}

	if *outPath == "" {
		err = df.Write(os.Stdout)
	} else {
		err = df.WriteToPath(*outPath)
	}
	if err != nil {
		log.Fatalf("write output: %v", err)
	}
}

func splitChroms(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, c := range strings.Split(s, ",") {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
