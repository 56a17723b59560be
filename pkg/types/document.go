// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RequirementsDocument is an immutable ingested requirements document.
// It is created at ingestion, never mutated, and referenced by all
// downstream records. Per prd006-pipeline R1.1-R1.3.
type RequirementsDocument struct {
	// ID is the document identifier, derived from the source filename.
	ID string `json:"id" yaml:"id"`

	// Text is the normalized document text.
	Text string `json:"text" yaml:"text"`

	// DeclaredCategory is the expected category declared in a metadata
	// sidecar. It is set only for validation-set documents and is never
	// consulted during categorization itself.
	DeclaredCategory *Category `json:"declared_category,omitempty" yaml:"declared_category,omitempty"`

	// IngestedAt is the ingestion timestamp.
	IngestedAt time.Time `json:"ingested_at" yaml:"ingested_at"`
}

// DocumentMetadata is the optional metadata sidecar stored at
// documents/metadata/[id].yaml alongside a document.
type DocumentMetadata struct {
	// DeclaredCategory is the expected GAMP category for validation-set
	// documents. Zero means undeclared.
	DeclaredCategory int `json:"declared_category,omitempty" yaml:"declared_category,omitempty"`

	// Title is an optional human-readable title.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Source records where the document came from.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}
