package decision

import (
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/gamp-engine/pkg/types"
)

func testConfig() types.DecisionConfig {
	return types.DecisionConfig{
		Threshold1:           0.80,
		Threshold3:           0.85,
		Threshold4:           0.85,
		Threshold5:           0.92,
		TieUrgency:           types.UrgencyHigh,
		LowConfidenceUrgency: types.UrgencyNormal,
	}
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func scoresWith(confidences map[types.Category]float64) map[types.Category]types.CategoryScore {
	scores := make(map[types.Category]types.CategoryScore, 4)
	for _, c := range types.Categories {
		scores[c] = types.CategoryScore{
			Category:     c,
			Confidence:   confidences[c],
			Raw:          confidences[c] * 10,
			FindingCount: 2,
		}
	}
	return scores
}

func TestNewRejectsBadThresholds(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*types.DecisionConfig)
	}{
		{"zero threshold", func(c *types.DecisionConfig) { c.Threshold3 = 0 }},
		{"above one", func(c *types.DecisionConfig) { c.Threshold5 = 1.01 }},
		{"negative", func(c *types.DecisionConfig) { c.Threshold1 = -0.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mod(&cfg)
			if _, err := New(cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestDecideAboveThreshold(t *testing.T) {
	e := testEngine(t)

	r := e.Decide("doc-1", scoresWith(map[types.Category]float64{
		types.Category3: 0.90,
		types.Category4: 0.10,
	}))

	if r.Decision.Category != types.Category3 {
		t.Errorf("category = %v, want Category 3", r.Decision.Category)
	}
	if r.Decision.RequiresConsultation {
		t.Error("confidence 0.90 >= threshold 0.85 must not require consultation")
	}
	if r.Escalation != nil {
		t.Errorf("unexpected escalation: %+v", r.Escalation)
	}
	if r.Decision.Source != types.SourceEngine {
		t.Errorf("source = %q, want engine", r.Decision.Source)
	}
	if r.Decision.Threshold != 0.85 {
		t.Errorf("threshold = %v, want 0.85", r.Decision.Threshold)
	}
}

func TestDecideThresholdInvariant(t *testing.T) {
	e := testEngine(t)

	// requires_consultation == true iff confidence < threshold(category),
	// for every non-tied confidence level.
	tests := []struct {
		category   types.Category
		confidence float64
		want       bool
	}{
		{types.Category3, 0.84, true},
		{types.Category3, 0.85, false},
		{types.Category4, 0.86, false},
		{types.Category5, 0.91, true},
		{types.Category5, 0.92, false},
		{types.Category1, 0.79, true},
		{types.Category1, 0.80, false},
	}

	for _, tt := range tests {
		confidences := map[types.Category]float64{tt.category: tt.confidence}
		// Give another category a distinct smaller confidence to avoid ties.
		other := types.Category3
		if tt.category == types.Category3 {
			other = types.Category4
		}
		confidences[other] = tt.confidence / 2

		r := e.Decide("doc-1", scoresWith(confidences))
		if r.Decision.Category != tt.category {
			t.Errorf("%v at %.2f: selected %v", tt.category, tt.confidence, r.Decision.Category)
			continue
		}
		if r.Decision.RequiresConsultation != tt.want {
			t.Errorf("%v at %.2f: requires_consultation = %v, want %v",
				tt.category, tt.confidence, r.Decision.RequiresConsultation, tt.want)
		}
	}
}

func TestDecideBelowThresholdEscalates(t *testing.T) {
	e := testEngine(t)

	r := e.Decide("doc-1", scoresWith(map[types.Category]float64{
		types.Category4: 0.60,
		types.Category3: 0.40,
	}))

	if !r.Decision.RequiresConsultation {
		t.Fatal("below-threshold decision must require consultation")
	}
	if r.Escalation == nil {
		t.Fatal("expected escalation")
	}
	if r.Escalation.Reason != types.ReasonBelowThreshold {
		t.Errorf("reason = %q, want below_threshold", r.Escalation.Reason)
	}
	if r.Escalation.Urgency != types.UrgencyNormal {
		t.Errorf("urgency = %q, want normal", r.Escalation.Urgency)
	}
	if r.AmbiguityError() != nil {
		t.Error("below-threshold escalation must not carry an ambiguity error")
	}
}

func TestDecideTieEscalatesUnconditionally(t *testing.T) {
	e := testEngine(t)

	// Both categories sit above their thresholds; the tie alone forces
	// consultation.
	r := e.Decide("doc-1", scoresWith(map[types.Category]float64{
		types.Category3: 0.90,
		types.Category4: 0.90,
	}))

	if !r.Decision.RequiresConsultation {
		t.Fatal("tied decision must require consultation regardless of threshold")
	}
	if r.Escalation == nil || r.Escalation.Reason != types.ReasonAmbiguousTie {
		t.Fatalf("escalation = %+v, want ambiguous_tie", r.Escalation)
	}
	if r.Escalation.Urgency != types.UrgencyHigh {
		t.Errorf("tie urgency = %q, want high", r.Escalation.Urgency)
	}
	if len(r.Escalation.Tied) != 2 {
		t.Errorf("tied = %v, want two categories", r.Escalation.Tied)
	}

	ambErr := r.AmbiguityError()
	if ambErr == nil {
		t.Fatal("tie must produce an AmbiguousCategorizationError")
	}
	if ambErr.Confidence != 0.90 || len(ambErr.Tied) != 2 {
		t.Errorf("ambiguity error = %+v", ambErr)
	}
}

func TestDecideNoEvidenceTiesAllCategories(t *testing.T) {
	e := testEngine(t)

	r := e.Decide("doc-1", scoresWith(nil))
	if !r.Decision.RequiresConsultation {
		t.Fatal("zero-evidence decision must require consultation")
	}
	if r.Escalation == nil || r.Escalation.Reason != types.ReasonAmbiguousTie {
		t.Fatalf("escalation = %+v, want ambiguous_tie across all categories", r.Escalation)
	}
	if len(r.Escalation.Tied) != 4 {
		t.Errorf("tied = %v, want all four categories", r.Escalation.Tied)
	}
}

func TestDecideRationale(t *testing.T) {
	e := testEngine(t)

	r := e.Decide("doc-1", scoresWith(map[types.Category]float64{
		types.Category5: 0.70,
		types.Category4: 0.30,
	}))

	if !strings.Contains(r.Decision.Rationale, "Category 5") {
		t.Errorf("rationale %q missing selected category", r.Decision.Rationale)
	}
	if !strings.Contains(r.Decision.Rationale, "runner-up Category 4") {
		t.Errorf("rationale %q missing runner-up", r.Decision.Rationale)
	}
}

func TestFromResolution(t *testing.T) {
	scores := scoresWith(map[types.Category]float64{
		types.Category4: 0.60,
		types.Category3: 0.40,
	})

	res := types.Resolution{
		RequestID:  "req-1",
		Category:   types.Category4,
		Rationale:  "vendor package configured on site",
		ResolvedBy: "qa-lead",
		ResolvedAt: time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
	}

	d := FromResolution("doc-1", res, scores, testConfig())
	if d.Source != types.SourceHuman {
		t.Errorf("source = %q, want human", d.Source)
	}
	if d.Category != types.Category4 {
		t.Errorf("category = %v, want Category 4", d.Category)
	}
	if d.Confidence != 0.60 {
		t.Errorf("confidence = %v, want the engine's computed 0.60, never a fabricated value", d.Confidence)
	}
	if !d.RequiresConsultation {
		t.Error("resolved decision must still record that consultation was required")
	}
	if !strings.Contains(d.Rationale, "qa-lead") {
		t.Errorf("rationale %q missing reviewer", d.Rationale)
	}
}
