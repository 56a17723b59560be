// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DecisionSource records how a decision's category was assigned.
// Per prd004-consultation R5.1: automatically-assigned and human-confirmed
// categories must never share a representation.
type DecisionSource string

const (
	// SourceEngine marks a decision made by the engine above threshold.
	SourceEngine DecisionSource = "engine"

	// SourceHuman marks a decision confirmed through consultation.
	SourceHuman DecisionSource = "human"
)

// CategorizationDecision is the immutable decision record for one document.
// Created once by the decision engine (or consultation resolution); referenced
// by consultation and audit records. Per prd003-decision R2.1-R2.5.
type CategorizationDecision struct {
	// DocumentID identifies the categorized document.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// Category is the selected GAMP category.
	Category Category `json:"category" yaml:"category"`

	// Confidence is the normalized confidence for the selected category.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Threshold is the category-specific threshold that was applied.
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// RequiresConsultation is true whenever Confidence < Threshold, with no
	// exception, and unconditionally on a top-confidence tie.
	RequiresConsultation bool `json:"requires_consultation" yaml:"requires_consultation"`

	// Rationale summarizes the evidence behind the selection.
	Rationale string `json:"rationale" yaml:"rationale"`

	// Source records whether the engine or a human assigned the category.
	Source DecisionSource `json:"source" yaml:"source"`

	// DecidedAt is the decision timestamp.
	DecidedAt time.Time `json:"decided_at" yaml:"decided_at"`
}

// DecisionOutcome is the tagged result of running a document through the
// decision engine and, when required, consultation. Exactly one of the two
// variants is set; callers must branch on both. The type exists so a
// consultation timeout cannot be accidentally treated as a resolved
// category. Per prd003-decision R4.1.
type DecisionOutcome struct {
	decision *CategorizationDecision
	timeout  *ConsultationTimeoutError
}

// ResolvedOutcome wraps a finalized decision.
func ResolvedOutcome(d *CategorizationDecision) DecisionOutcome {
	return DecisionOutcome{decision: d}
}

// TimedOutOutcome wraps a consultation timeout diagnostic.
func TimedOutOutcome(e *ConsultationTimeoutError) DecisionOutcome {
	return DecisionOutcome{timeout: e}
}

// Resolved returns the decision and true when the outcome is a finalized
// decision.
func (o DecisionOutcome) Resolved() (*CategorizationDecision, bool) {
	return o.decision, o.decision != nil
}

// TimedOut returns the timeout diagnostic and true when the outcome is a
// consultation timeout.
func (o DecisionOutcome) TimedOut() (*ConsultationTimeoutError, bool) {
	return o.timeout, o.timeout != nil
}
