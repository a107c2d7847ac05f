/*Package interval implements chromosome-keyed interval forests for sets of
  genomic coordinates represented by BED files.
  (Note: stored intervals are NOT merged.  Genotype inference needs to know
  whether a single stored interval fully contains a query range; merging two
  abutting callable regions would turn a no-call into a confident absence.)
*/
package interval
