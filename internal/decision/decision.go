// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package decision selects a GAMP category from scored evidence and applies
// the category-specific confidence threshold policy. The engine never
// substitutes a default category: every below-threshold or ambiguous result
// escalates to human consultation, and a consultation timeout surfaces as an
// explicit failure. Implements: prd003-decision (R1-R4).
package decision

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/gamp-engine/pkg/types"
)

// Engine applies the decision policy to category scores.
type Engine struct {
	cfg types.DecisionConfig
}

// New validates the threshold policy and returns an Engine. Every threshold
// must lie in (0, 1].
func New(cfg types.DecisionConfig) (*Engine, error) {
	for _, c := range types.Categories {
		th := cfg.Threshold(c)
		if th <= 0 || th > 1 {
			return nil, fmt.Errorf("decision config: threshold %.2f for %v out of range (0, 1]", th, c)
		}
	}
	if cfg.TieUrgency == "" {
		cfg.TieUrgency = types.UrgencyHigh
	}
	if cfg.LowConfidenceUrgency == "" {
		cfg.LowConfidenceUrgency = types.UrgencyNormal
	}
	return &Engine{cfg: cfg}, nil
}

// Escalation describes why a decision requires consultation.
type Escalation struct {
	// Reason is ReasonBelowThreshold or ReasonAmbiguousTie.
	Reason string

	// Urgency is the configured urgency for the reason.
	Urgency types.ConsultationUrgency

	// Tied lists the categories sharing the top confidence when Reason is
	// ReasonAmbiguousTie.
	Tied []types.Category
}

// Result pairs the decision record with its escalation, when one is needed.
type Result struct {
	// Decision is the decision record. When Escalation is non-nil the
	// decision is provisional: it must not be treated as finalized until
	// consultation resolves it.
	Decision *types.CategorizationDecision

	// Escalation is nil when the decision stands on its own.
	Escalation *Escalation
}

// Decide selects the category with the highest confidence and applies its
// threshold (R2.1, R2.2). A tie at the top confidence escalates
// unconditionally regardless of thresholds: ambiguity is itself a threshold
// failure (R3.1).
func (e *Engine) Decide(docID string, scores map[types.Category]types.CategoryScore) Result {
	top := types.Category(0)
	topConfidence := -1.0
	var tied []types.Category

	// Fixed category order keeps selection deterministic.
	for _, c := range types.Categories {
		sc := scores[c]
		switch {
		case sc.Confidence > topConfidence:
			top = c
			topConfidence = sc.Confidence
			tied = []types.Category{c}
		case sc.Confidence == topConfidence:
			tied = append(tied, c)
		}
	}

	threshold := e.cfg.Threshold(top)
	isTie := len(tied) > 1
	belowThreshold := topConfidence < threshold

	d := &types.CategorizationDecision{
		DocumentID:           docID,
		Category:             top,
		Confidence:           topConfidence,
		Threshold:            threshold,
		RequiresConsultation: belowThreshold || isTie,
		Rationale:            rationale(top, scores, isTie, tied),
		Source:               types.SourceEngine,
		DecidedAt:            time.Now().UTC(),
	}

	var esc *Escalation
	switch {
	case isTie:
		esc = &Escalation{
			Reason:  types.ReasonAmbiguousTie,
			Urgency: e.cfg.TieUrgency,
			Tied:    tied,
		}
	case belowThreshold:
		esc = &Escalation{
			Reason:  types.ReasonBelowThreshold,
			Urgency: e.cfg.LowConfidenceUrgency,
		}
	}

	return Result{Decision: d, Escalation: esc}
}

// AmbiguityError builds the typed error for a tie escalation, for audit
// payloads and propagation when consultation cannot run.
func (r Result) AmbiguityError() *types.AmbiguousCategorizationError {
	if r.Escalation == nil || r.Escalation.Reason != types.ReasonAmbiguousTie {
		return nil
	}
	return &types.AmbiguousCategorizationError{
		DocumentID: r.Decision.DocumentID,
		Tied:       r.Escalation.Tied,
		Confidence: r.Decision.Confidence,
	}
}

// FromResolution builds the finalized decision for a human-resolved
// consultation. The human category is recorded under SourceHuman so it can
// never be mistaken for an engine assignment (R4.2); the engine's computed
// confidence for that category is preserved, never overwritten to a
// fabricated certainty.
func FromResolution(docID string, res types.Resolution, scores map[types.Category]types.CategoryScore, cfg types.DecisionConfig) *types.CategorizationDecision {
	return &types.CategorizationDecision{
		DocumentID:           docID,
		Category:             res.Category,
		Confidence:           scores[res.Category].Confidence,
		Threshold:            cfg.Threshold(res.Category),
		RequiresConsultation: true,
		Rationale:            fmt.Sprintf("human consultation (%s): %s", res.ResolvedBy, res.Rationale),
		Source:               types.SourceHuman,
		DecidedAt:            res.ResolvedAt,
	}
}

// rationale summarizes the evidence behind a selection.
func rationale(top types.Category, scores map[types.Category]types.CategoryScore, isTie bool, tied []types.Category) string {
	var b strings.Builder

	topScore := scores[top]
	fmt.Fprintf(&b, "%v at confidence %.2f (raw %.1f, %d findings)",
		top, topScore.Confidence, topScore.Raw, topScore.FindingCount)

	if isTie {
		names := make([]string, len(tied))
		for i, c := range tied {
			names[i] = c.String()
		}
		fmt.Fprintf(&b, "; tied with %s", strings.Join(names, ", "))
		return b.String()
	}

	// Runner-up, for context.
	runner := types.Category(0)
	runnerConfidence := -1.0
	for _, c := range types.Categories {
		if c == top {
			continue
		}
		if scores[c].Confidence > runnerConfidence {
			runner = c
			runnerConfidence = scores[c].Confidence
		}
	}
	if runnerConfidence > 0 {
		fmt.Fprintf(&b, "; runner-up %v at %.2f", runner, runnerConfidence)
	}
	return b.String()
}
