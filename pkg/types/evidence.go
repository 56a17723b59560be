// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// IndicatorTier grades the strength of a matched indicator.
// Per prd001-evidence R2.1.
type IndicatorTier string

const (
	// TierStrong marks indicators that alone carry most of a category's
	// signal (e.g. "custom-developed" for Category 5).
	TierStrong IndicatorTier = "strong"

	// TierSupporting marks corroborating indicators.
	TierSupporting IndicatorTier = "supporting"

	// TierExclusionary marks indicators that argue against a category.
	// Exclusionary findings reduce, but never eliminate, eligibility.
	TierExclusionary IndicatorTier = "exclusionary"
)

// Valid reports whether t is a known tier.
func (t IndicatorTier) Valid() bool {
	switch t {
	case TierStrong, TierSupporting, TierExclusionary:
		return true
	}
	return false
}

// EvidenceFinding is one matched indicator occurrence within a document.
// Findings are immutable and owned by the scoring pass that produced them.
// Per prd001-evidence R2.1-R2.4.
type EvidenceFinding struct {
	// Category is the GAMP category the finding supports (or, for
	// exclusionary findings, argues against).
	Category Category `json:"category" yaml:"category"`

	// Phrase is the canonical indicator phrase that matched.
	Phrase string `json:"phrase" yaml:"phrase"`

	// Tier grades the finding: strong, supporting, or exclusionary.
	Tier IndicatorTier `json:"tier" yaml:"tier"`

	// Offset is the byte offset of the match within the document text.
	Offset int `json:"offset" yaml:"offset"`

	// Source records where the indicator came from: "curated" for the
	// built-in indicator sets, "signal" for verified signal-service
	// suggestions. Per prd001-evidence R5.3.
	Source string `json:"source" yaml:"source"`
}

// FindingSource values for EvidenceFinding.Source.
const (
	FindingSourceCurated = "curated"
	FindingSourceSignal  = "signal"
)

// CategoryScore is the per-category aggregate derived deterministically from
// a document's findings. Recomputed fresh per document; never mutated.
// Per prd002-scoring R1.1-R1.4.
type CategoryScore struct {
	// Category identifies the scored category.
	Category Category `json:"category" yaml:"category"`

	// Raw is the weighted sum of finding weights. It may be negative when
	// exclusionary findings dominate.
	Raw float64 `json:"raw" yaml:"raw"`

	// Confidence is Raw normalized to [0, 1] against the maximum attainable
	// score for the document's finding count. It is computed once and never
	// overwritten.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// FindingCount is the number of findings that contributed.
	FindingCount int `json:"finding_count" yaml:"finding_count"`
}
