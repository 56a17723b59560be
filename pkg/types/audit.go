// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// AuditEventType labels the state transition an audit entry records.
// Per prd005-audit-trail R1.1.
type AuditEventType string

const (
	EventDocumentIngested      AuditEventType = "document_ingested"
	EventEvidenceExtracted     AuditEventType = "evidence_extracted"
	EventScoresComputed        AuditEventType = "scores_computed"
	EventDecisionMade          AuditEventType = "decision_made"
	EventConsultationRequested AuditEventType = "consultation_requested"
	EventConsultationResolved  AuditEventType = "consultation_resolved"
	EventConsultationTimedOut  AuditEventType = "consultation_timed_out"
	EventConsultationCancelled AuditEventType = "consultation_cancelled"
	EventPipelineCompleted     AuditEventType = "pipeline_completed"
	EventPipelineFailed        AuditEventType = "pipeline_failed"
)

// AuditEntry is one record in the append-only, hash-chained audit log.
// Entries are never mutated or deleted. The payload is canonical JSON so the
// hash is reproducible on re-marshal. Per prd005-audit-trail R1.2-R1.5.
type AuditEntry struct {
	// Seq is the globally monotonic sequence number assigned at append.
	Seq int64 `json:"seq" yaml:"seq"`

	// CorrelationID groups entries belonging to one document's run.
	CorrelationID string `json:"correlation_id" yaml:"correlation_id"`

	// EventType labels the recorded transition.
	EventType AuditEventType `json:"event_type" yaml:"event_type"`

	// Payload is the canonical JSON snapshot recorded for the event.
	Payload string `json:"payload" yaml:"payload"`

	// Timestamp is the append time, UTC.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// PrevHash is the hex hash of the preceding entry in the chain; the
	// genesis entry carries the empty string.
	PrevHash string `json:"prev_hash" yaml:"prev_hash"`

	// Hash is the hex SHA-256 over (PrevHash, Seq, CorrelationID,
	// EventType, Payload, Timestamp). Altering any entry invalidates the
	// hashes of all subsequent entries.
	Hash string `json:"hash" yaml:"hash"`
}
