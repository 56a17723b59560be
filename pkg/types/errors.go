// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// InvalidInputError reports malformed or empty document text. It fails the
// document immediately; the pipeline never retries it. Per prd001-evidence R1.2.
type InvalidInputError struct {
	// DocumentID identifies the rejected document, if known.
	DocumentID string

	// Reason describes why the input was rejected.
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.DocumentID == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid input for document %s: %s", e.DocumentID, e.Reason)
}

// AmbiguousCategorizationError reports a tie between two or more categories
// at the top confidence. Ambiguity always routes to consultation; it is never
// auto-resolved. Per prd003-decision R3.1.
type AmbiguousCategorizationError struct {
	// DocumentID identifies the document.
	DocumentID string

	// Tied lists the categories sharing the top confidence.
	Tied []Category

	// Confidence is the shared top confidence value.
	Confidence float64
}

func (e *AmbiguousCategorizationError) Error() string {
	return fmt.Sprintf("ambiguous categorization for document %s: %v tied at confidence %.4f",
		e.DocumentID, e.Tied, e.Confidence)
}

// ConsultationTimeoutError reports that no human response arrived before the
// consultation deadline. It is fatal to the document's pipeline run and must
// not be caught-and-defaulted anywhere in the call stack; no component may
// substitute a category on its behalf. Per prd004-consultation R4.1-R4.3.
type ConsultationTimeoutError struct {
	// DocumentID identifies the document whose pipeline timed out.
	DocumentID string

	// RequestID is the consultation request that expired.
	RequestID string

	// Scores holds the per-category scores at the time of escalation.
	Scores map[Category]CategoryScore

	// FindingCount is the number of evidence findings that fed the scores.
	FindingCount int

	// Candidate is the highest-scoring category that failed its threshold.
	Candidate Category

	// Confidence is the candidate's confidence.
	Confidence float64

	// Threshold is the confidence threshold the candidate failed.
	Threshold float64

	// Elapsed is the wall-clock time waited before the deadline expired.
	Elapsed time.Duration
}

func (e *ConsultationTimeoutError) Error() string {
	return fmt.Sprintf(
		"consultation %s for document %s timed out after %v: %v at confidence %.4f (threshold %.2f) requires human review",
		e.RequestID, e.DocumentID, e.Elapsed, e.Candidate, e.Confidence, e.Threshold)
}

// AuditNotFoundError reports a request for the audit trail of an unknown
// correlation id. Readers receive this error rather than a silently empty
// sequence. Per prd005-audit-trail R3.2.
type AuditNotFoundError struct {
	// CorrelationID is the unknown id.
	CorrelationID string
}

func (e *AuditNotFoundError) Error() string {
	return fmt.Sprintf("no audit trail for correlation id %q", e.CorrelationID)
}

// AlreadyResolvedError reports a resolve call against a consultation request
// that already reached a terminal state. Human decisions are never silently
// overwritten. Per prd004-consultation R3.4.
type AlreadyResolvedError struct {
	// RequestID is the consultation request.
	RequestID string

	// Status is the terminal status the request already holds.
	Status ConsultationStatus
}

func (e *AlreadyResolvedError) Error() string {
	return fmt.Sprintf("consultation %s is already %s", e.RequestID, e.Status)
}
