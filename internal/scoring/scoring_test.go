package scoring

import (
	"math"
	"reflect"
	"testing"

	"github.com/pdiddy/gamp-engine/pkg/types"
)

func defaultScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := New(types.ScoringConfig{
		StrongWeight:       3,
		SupportingWeight:   1,
		ExclusionaryWeight: -2,
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func finding(c types.Category, tier types.IndicatorTier) types.EvidenceFinding {
	return types.EvidenceFinding{Category: c, Phrase: "p", Tier: tier, Source: types.FindingSourceCurated}
}

func TestNewRejectsBadWeights(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.ScoringConfig
	}{
		{"strong not above supporting", types.ScoringConfig{StrongWeight: 1, SupportingWeight: 1, ExclusionaryWeight: -2}},
		{"supporting not positive", types.ScoringConfig{StrongWeight: 3, SupportingWeight: 0, ExclusionaryWeight: -2}},
		{"exclusionary not negative", types.ScoringConfig{StrongWeight: 3, SupportingWeight: 1, ExclusionaryWeight: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestScoreEmptyFindings(t *testing.T) {
	s := defaultScorer(t)

	scores := s.Score(nil)
	if len(scores) != 4 {
		t.Fatalf("got %d categories, want 4", len(scores))
	}
	for _, c := range types.Categories {
		sc := scores[c]
		if sc.Raw != 0 || sc.Confidence != 0 || sc.FindingCount != 0 {
			t.Errorf("%v: got %+v, want all-zero score", c, sc)
		}
	}
}

func TestScoreWeights(t *testing.T) {
	s := defaultScorer(t)

	findings := []types.EvidenceFinding{
		finding(types.Category3, types.TierStrong),
		finding(types.Category3, types.TierSupporting),
		finding(types.Category3, types.TierExclusionary),
	}

	scores := s.Score(findings)
	if got := scores[types.Category3].Raw; got != 2 { // 3 + 1 - 2
		t.Errorf("Category 3 raw = %v, want 2", got)
	}
	if got := scores[types.Category3].FindingCount; got != 3 {
		t.Errorf("Category 3 finding count = %d, want 3", got)
	}
}

func TestScoreUnambiguousCategoryReachesFullConfidence(t *testing.T) {
	s := defaultScorer(t)

	findings := []types.EvidenceFinding{
		finding(types.Category3, types.TierStrong),
		finding(types.Category3, types.TierStrong),
		finding(types.Category3, types.TierSupporting),
	}

	scores := s.Score(findings)
	if got := scores[types.Category3].Confidence; got != 1.0 {
		t.Errorf("Category 3 confidence = %v, want 1.0 for sole-category evidence", got)
	}
	for _, c := range []types.Category{types.Category1, types.Category4, types.Category5} {
		if scores[c].Confidence != 0 {
			t.Errorf("%v confidence = %v, want 0", c, scores[c].Confidence)
		}
	}
}

func TestScoreSplitEvidenceSplitsConfidence(t *testing.T) {
	s := defaultScorer(t)

	findings := []types.EvidenceFinding{
		finding(types.Category3, types.TierStrong),     // 3
		finding(types.Category4, types.TierStrong),     // 3
		finding(types.Category4, types.TierSupporting), // 1
	}

	scores := s.Score(findings)
	got3 := scores[types.Category3].Confidence
	got4 := scores[types.Category4].Confidence

	if math.Abs(got3-3.0/7.0) > 1e-9 {
		t.Errorf("Category 3 confidence = %v, want %v", got3, 3.0/7.0)
	}
	if math.Abs(got4-4.0/7.0) > 1e-9 {
		t.Errorf("Category 4 confidence = %v, want %v", got4, 4.0/7.0)
	}
	if got3 >= 0.85 || got4 >= 0.85 {
		t.Errorf("split evidence must not cross a 0.85 threshold: cat3=%v cat4=%v", got3, got4)
	}
}

func TestScoreExclusionaryReducesButNeverEliminates(t *testing.T) {
	s := defaultScorer(t)

	findings := []types.EvidenceFinding{
		finding(types.Category5, types.TierStrong),
		finding(types.Category5, types.TierStrong),
		finding(types.Category5, types.TierExclusionary),
		finding(types.Category3, types.TierSupporting),
	}

	scores := s.Score(findings)
	if got := scores[types.Category5].Raw; got != 4 { // 3+3-2
		t.Errorf("Category 5 raw = %v, want 4", got)
	}
	if scores[types.Category5].Confidence <= 0 {
		t.Error("exclusionary finding must reduce, not eliminate, Category 5 eligibility")
	}
	if scores[types.Category5].Confidence <= scores[types.Category3].Confidence {
		t.Error("Category 5 should still dominate Category 3")
	}
}

func TestScoreAllNegativeYieldsZeroConfidence(t *testing.T) {
	s := defaultScorer(t)

	findings := []types.EvidenceFinding{
		finding(types.Category5, types.TierExclusionary),
		finding(types.Category5, types.TierExclusionary),
	}

	scores := s.Score(findings)
	if got := scores[types.Category5].Raw; got != -4 {
		t.Errorf("Category 5 raw = %v, want -4", got)
	}
	if got := scores[types.Category5].Confidence; got != 0 {
		t.Errorf("Category 5 confidence = %v, want 0 (never negative)", got)
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := defaultScorer(t)

	findings := []types.EvidenceFinding{
		finding(types.Category3, types.TierStrong),
		finding(types.Category4, types.TierSupporting),
		finding(types.Category5, types.TierExclusionary),
	}

	first := s.Score(findings)
	second := s.Score(findings)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated scoring differs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}
