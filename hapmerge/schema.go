package hapmerge

// Haplotype labels of a diploid assembly.
const (
	Hap1 = "h1"
	Hap2 = "h2"
)

// Delim separates per-haplotype segments in multi-value columns.  The
// external merger emits comma-joined values; the output schema uses
// semicolons throughout.
const Delim = ";"

// SVTypeInv is the SVTYPE value that switches on inversion columns.
const SVTypeInv = "INV"

// Columns of the restructured merge schema.
const (
	HapCol          = "HAP"
	HapVariantsCol  = "HAP_VARIANTS"
	TigRegionCol    = "TIG_REGION"
	QueryStrandCol  = "QUERY_STRAND"
	CICol           = "CI"
	AlignIndexCol   = "ALIGN_INDEX"
	ClusterMatchCol = "CLUSTER_MATCH"
	CallSourceCol   = "CALL_SOURCE"
	RgnRefInnerCol  = "RGN_REF_INNER"
	RgnTigInnerCol  = "RGN_TIG_INNER"
	GTCol           = "GT"
)

// mergePrefix marks per-haplotype columns in the raw merger output; the
// prefix is rewritten to "HAP_" during schema restructuring.
const (
	mergePrefix = "MERGE_"
	hapPrefix   = "HAP_"
)

// hapSamplesCol is the merger's sample-label column ("MERGE_SAMPLES" on
// the wire); after prefix rewriting it becomes the HAP column.
const hapSamplesCol = "HAP_SAMPLES"

// discClassCol is a pre-merge artifact column dropped when present.
const discClassCol = "DISC_CLASS"

// mergeArtifactCols are merger bookkeeping columns (post prefix rewrite)
// that are always dropped; their absence is a schema violation.
var mergeArtifactCols = []string{"HAP_SRC", "HAP_SRC_ID", "HAP_AC", "HAP_AF"}

// commaCols are columns whose merger-emitted comma separators are
// rewritten to Delim.  The first two are required; the rest are rewritten
// only when the merge strategy produced them.
var (
	requiredCommaCols = []string{HapCol, HapVariantsCol}
	optionalCommaCols = []string{"HAP_RO", "HAP_OFFSET", "HAP_SZRO", "HAP_OFFSZ"}
)

// reconcileCols are rebuilt from the per-haplotype source tables after
// the merge; invReconcileCols are additionally rebuilt in inversion mode.
var (
	reconcileCols    = []string{TigRegionCol, QueryStrandCol, CICol, AlignIndexCol, ClusterMatchCol, CallSourceCol}
	invReconcileCols = []string{RgnRefInnerCol, RgnTigInnerCol}
)

// invDropCols are superseded by the reconciled inner-region columns and
// dropped in inversion mode.
var invDropCols = []string{"RGN_REF_DISC", "RGN_TIG_DISC", "FLAG_ID", "FLAG_TYPE"}

// clusterMatchMissing replaces an empty CLUSTER_MATCH in the source call
// sets before reconciliation.
const clusterMatchMissing = "NA"

// missingMarker fills the reconciled columns and GT when the clustered
// call set is empty.
const missingMarker = ""
