// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scoring aggregates evidence findings into per-category scores and
// normalized confidences. Implements: prd002-scoring (R1-R3).
package scoring

import (
	"fmt"

	"github.com/pdiddy/gamp-engine/pkg/types"
)

// Scorer computes CategoryScores from findings. Scoring is pure: the same
// findings always yield the same scores, and nothing downstream may
// overwrite a computed confidence (R1.4).
type Scorer struct {
	cfg types.ScoringConfig
}

// New validates the weight configuration and returns a Scorer. The ratio
// strong > supporting > 0 > exclusionary must hold (R1.2).
func New(cfg types.ScoringConfig) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scoring config: %w", err)
	}
	return &Scorer{cfg: cfg}, nil
}

// Score aggregates findings into one CategoryScore per GAMP category. It
// never fails for a valid (possibly empty) finding sequence; an empty
// sequence yields all-zero scores with confidence 0.0 (R2.1, R2.2).
//
// Raw score per category is the weighted sum of its findings; exclusionary
// findings subtract but never veto (R2.3). Confidence is the category's
// positive evidence share of the document's total attainable positive
// evidence, so it reaches 1.0 only when every positive signal in the
// document points at one category (R3.1, R3.2).
func (s *Scorer) Score(findings []types.EvidenceFinding) map[types.Category]types.CategoryScore {
	raw := make(map[types.Category]float64, len(types.Categories))
	count := make(map[types.Category]int, len(types.Categories))

	for _, f := range findings {
		raw[f.Category] += s.weight(f.Tier)
		count[f.Category]++
	}

	// Total attainable positive evidence across the document. Categories
	// driven negative by exclusionary findings contribute nothing.
	var attainable float64
	for _, c := range types.Categories {
		if raw[c] > 0 {
			attainable += raw[c]
		}
	}

	scores := make(map[types.Category]types.CategoryScore, len(types.Categories))
	for _, c := range types.Categories {
		confidence := 0.0
		if attainable > 0 && raw[c] > 0 {
			confidence = raw[c] / attainable
		}
		if confidence > 1 {
			confidence = 1
		}
		scores[c] = types.CategoryScore{
			Category:     c,
			Raw:          raw[c],
			Confidence:   confidence,
			FindingCount: count[c],
		}
	}
	return scores
}

func (s *Scorer) weight(tier types.IndicatorTier) float64 {
	switch tier {
	case types.TierStrong:
		return s.cfg.StrongWeight
	case types.TierSupporting:
		return s.cfg.SupportingWeight
	case types.TierExclusionary:
		return s.cfg.ExclusionaryWeight
	}
	return 0
}
