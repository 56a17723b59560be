// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ConsultationStatus is the state of a consultation request.
// Transitions: pending → resolved, pending → timed_out. Both targets are
// terminal; requests are never deleted. Per prd004-consultation R2.1-R2.3.
type ConsultationStatus string

const (
	ConsultationPending  ConsultationStatus = "pending"
	ConsultationResolved ConsultationStatus = "resolved"
	ConsultationTimedOut ConsultationStatus = "timed_out"
)

// Terminal reports whether the status admits no further transitions.
func (s ConsultationStatus) Terminal() bool {
	return s == ConsultationResolved || s == ConsultationTimedOut
}

// ConsultationUrgency tags how quickly a request needs attention. Whether a
// top-confidence tie escalates above a plain low-confidence case is policy,
// so both map to configurable urgency values.
type ConsultationUrgency string

const (
	UrgencyNormal ConsultationUrgency = "normal"
	UrgencyHigh   ConsultationUrgency = "high"
)

// ConsultationRequest tracks a pending human review of a low-confidence or
// ambiguous categorization. Per prd004-consultation R1.1-R1.4.
type ConsultationRequest struct {
	// ID is the request identifier (UUID).
	ID string `json:"id" yaml:"id"`

	// DocumentID identifies the document whose decision is under review.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// Candidate is the engine's highest-scoring category.
	Candidate Category `json:"candidate" yaml:"candidate"`

	// Confidence is the candidate's confidence at escalation time.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Threshold is the threshold the candidate failed.
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// Reason explains the escalation: "below_threshold" or "ambiguous_tie".
	Reason string `json:"reason" yaml:"reason"`

	// Urgency tags reviewer priority.
	Urgency ConsultationUrgency `json:"urgency" yaml:"urgency"`

	// ExpertiseTags lists the reviewer expertise the request needs
	// (e.g. "gamp", "csv", "infrastructure").
	ExpertiseTags []string `json:"expertise_tags" yaml:"expertise_tags"`

	// CreatedAt is the request creation time.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// Timeout is the wall-clock deadline duration from CreatedAt.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Status is the current state: pending, resolved, or timed_out.
	Status ConsultationStatus `json:"status" yaml:"status"`
}

// ConsultationReason values for ConsultationRequest.Reason.
const (
	ReasonBelowThreshold = "below_threshold"
	ReasonAmbiguousTie   = "ambiguous_tie"
)

// Resolution is a human reviewer's answer to a consultation request,
// submitted through the resolution channel. Per prd004-consultation R3.1-R3.3.
type Resolution struct {
	// RequestID is the consultation request being answered.
	RequestID string `json:"request_id" yaml:"request_id"`

	// Category is the human-assigned GAMP category.
	Category Category `json:"category" yaml:"category"`

	// Rationale is the reviewer's justification. Required.
	Rationale string `json:"rationale" yaml:"rationale"`

	// ResolvedBy identifies the reviewer.
	ResolvedBy string `json:"resolved_by" yaml:"resolved_by"`

	// ResolvedAt is the submission timestamp.
	ResolvedAt time.Time `json:"resolved_at" yaml:"resolved_at"`
}
