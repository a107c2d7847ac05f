// Package hapmerge reconciles two independently called per-haplotype
// structural-variant call sets into a single diploid call set with
// per-site genotypes.  Variant clustering itself is delegated to an
// external Merger; this package consumes its output schema, restructures
// it, re-derives the per-haplotype columns from the source call sets, and
// infers a ternary genotype per haplotype from mappability evidence.
package hapmerge
