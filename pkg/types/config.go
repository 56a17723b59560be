// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings for components that make network
// requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "gamp-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// EvidenceConfig holds settings for the evidence extraction stage.
// Per prd001-evidence R3.1-R3.3.
type EvidenceConfig struct {
	// IndicatorsFile optionally overrides the built-in indicator sets with
	// a YAML file. Empty uses the built-ins.
	IndicatorsFile string `json:"indicators_file,omitempty" yaml:"indicators_file,omitempty"`

	// NegationWindow is the number of bytes preceding an indicator match
	// scanned for negation tokens (default 48).
	NegationWindow int `json:"negation_window" yaml:"negation_window"`
}

// ScoringConfig holds the evidence weights. The ratio
// strong ≫ supporting ≫ |exclusionary| must hold; Validate enforces it.
// Per prd002-scoring R1.2.
type ScoringConfig struct {
	// StrongWeight is the weight of a strong finding (default 3).
	StrongWeight float64 `json:"strong_weight" yaml:"strong_weight"`

	// SupportingWeight is the weight of a supporting finding (default 1).
	SupportingWeight float64 `json:"supporting_weight" yaml:"supporting_weight"`

	// ExclusionaryWeight is the (negative) weight of an exclusionary
	// finding (default -2).
	ExclusionaryWeight float64 `json:"exclusionary_weight" yaml:"exclusionary_weight"`
}

// Validate checks the weight ordering invariant.
func (c ScoringConfig) Validate() error {
	if c.StrongWeight <= c.SupportingWeight {
		return fmt.Errorf("strong weight %.2f must exceed supporting weight %.2f",
			c.StrongWeight, c.SupportingWeight)
	}
	if c.SupportingWeight <= 0 {
		return fmt.Errorf("supporting weight %.2f must be positive", c.SupportingWeight)
	}
	if c.ExclusionaryWeight >= 0 {
		return fmt.Errorf("exclusionary weight %.2f must be negative", c.ExclusionaryWeight)
	}
	return nil
}

// DecisionConfig holds the category-specific confidence thresholds and
// escalation urgency policy. Thresholds are configuration, not hardcoded
// invariants. Per prd003-decision R1.2-R1.4.
type DecisionConfig struct {
	// Threshold1 is the confidence threshold for Category 1 (default 0.80).
	Threshold1 float64 `json:"threshold_1" yaml:"threshold_1"`

	// Threshold3 is the confidence threshold for Category 3 (default 0.85).
	Threshold3 float64 `json:"threshold_3" yaml:"threshold_3"`

	// Threshold4 is the confidence threshold for Category 4 (default 0.85).
	Threshold4 float64 `json:"threshold_4" yaml:"threshold_4"`

	// Threshold5 is the confidence threshold for Category 5 (default 0.92).
	// Highest-risk category, highest certainty demanded.
	Threshold5 float64 `json:"threshold_5" yaml:"threshold_5"`

	// TieUrgency is the consultation urgency for top-confidence ties
	// (default "high").
	TieUrgency ConsultationUrgency `json:"tie_urgency" yaml:"tie_urgency"`

	// LowConfidenceUrgency is the consultation urgency for plain
	// below-threshold escalations (default "normal").
	LowConfidenceUrgency ConsultationUrgency `json:"low_confidence_urgency" yaml:"low_confidence_urgency"`
}

// Threshold returns the configured threshold for c.
func (d DecisionConfig) Threshold(c Category) float64 {
	switch c {
	case Category1:
		return d.Threshold1
	case Category3:
		return d.Threshold3
	case Category4:
		return d.Threshold4
	case Category5:
		return d.Threshold5
	}
	return 1.0
}

// ConsultationConfig holds settings for the consultation manager.
// Per prd004-consultation R1.2, R3.1.
type ConsultationConfig struct {
	// Dir is the base directory for the consultation file channel
	// (contains pending/, resolved/).
	Dir string `json:"dir" yaml:"dir"`

	// Timeout is the default wall-clock deadline for a request
	// (default 24h; tests and demos use much shorter values).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// PollInterval is the fallback poll cadence when file notifications
	// are missed (default 2s).
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// ExpertiseTags lists the reviewer expertise attached to new requests.
	ExpertiseTags []string `json:"expertise_tags" yaml:"expertise_tags"`
}

// AuditConfig holds settings for the audit trail store.
// Per prd005-audit-trail R2.1.
type AuditConfig struct {
	// Dir is the directory holding the audit database (audit.db) and
	// exports.
	Dir string `json:"dir" yaml:"dir"`
}

// SignalConfig holds settings for the optional LLM-assisted signal service.
// Per prd001-evidence R5.1-R5.4.
type SignalConfig struct {
	HTTPConfig `yaml:",inline"`

	// Enabled turns the signal service on. Off by default; the extractor
	// is fully functional without it.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Endpoint is the signal service URL.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// APIKey authenticates to the signal service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// CacheDir is the replay cache directory. Responses are recorded per
	// document content hash and replayed on reruns so the signal service
	// never makes a rerun non-deterministic.
	CacheDir string `json:"cache_dir" yaml:"cache_dir"`

	// MaxRetries is the number of retry attempts for rate-limited calls
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// PipelineConfig groups all stage configurations plus orchestrator settings.
type PipelineConfig struct {
	// DocumentsDir is the base directory for input documents (contains
	// metadata/ for sidecars).
	DocumentsDir string `json:"documents_dir" yaml:"documents_dir"`

	// MaxConcurrent bounds the number of documents categorized in
	// parallel (default 4).
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`

	Evidence     EvidenceConfig     `json:"evidence" yaml:"evidence"`
	Scoring      ScoringConfig      `json:"scoring" yaml:"scoring"`
	Decision     DecisionConfig     `json:"decision" yaml:"decision"`
	Consultation ConsultationConfig `json:"consultation" yaml:"consultation"`
	Audit        AuditConfig        `json:"audit" yaml:"audit"`
	Signal       SignalConfig       `json:"signal" yaml:"signal"`
}

// DefaultPipelineConfig returns the documented default configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		DocumentsDir:  "documents",
		MaxConcurrent: 4,
		Evidence: EvidenceConfig{
			NegationWindow: 48,
		},
		Scoring: ScoringConfig{
			StrongWeight:       3,
			SupportingWeight:   1,
			ExclusionaryWeight: -2,
		},
		Decision: DecisionConfig{
			Threshold1:           0.80,
			Threshold3:           0.85,
			Threshold4:           0.85,
			Threshold5:           0.92,
			TieUrgency:           UrgencyHigh,
			LowConfidenceUrgency: UrgencyNormal,
		},
		Consultation: ConsultationConfig{
			Dir:           "consultations",
			Timeout:       24 * time.Hour,
			PollInterval:  2 * time.Second,
			ExpertiseTags: []string{"gamp", "csv"},
		},
		Audit: AuditConfig{
			Dir: "audit",
		},
		Signal: SignalConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "gamp-engine/0.1",
			},
			CacheDir:   "signal-cache",
			MaxRetries: 3,
		},
	}
}
