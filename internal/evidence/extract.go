// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/gamp-engine/pkg/types"
)

// Extractor matches curated indicator phrases against document text. It is
// deterministic: the same input always yields the same ordered findings
// (R1.1). No network or AI call happens inside Extract; signal-service
// suggestions enter only through AdmitSuggestions after verification.
type Extractor struct {
	sets      []IndicatorSet
	negations []string
	negWindow int
}

// New builds an Extractor from config. An empty IndicatorsFile uses the
// built-in sets (R3.1, R3.2).
func New(cfg types.EvidenceConfig) (*Extractor, error) {
	sets := DefaultIndicators()
	negations := defaultNegations

	if cfg.IndicatorsFile != "" {
		f, err := LoadIndicators(cfg.IndicatorsFile)
		if err != nil {
			return nil, err
		}
		sets = f.Categories
		if len(f.Negations) > 0 {
			negations = f.Negations
		}
	}

	window := cfg.NegationWindow
	if window <= 0 {
		window = 48
	}

	return &Extractor{
		sets:      sets,
		negations: negations,
		negWindow: window,
	}, nil
}

// match is one indicator occurrence before deduplication.
type match struct {
	category types.Category
	phrase   string
	tier     types.IndicatorTier
	start    int
	end      int
}

// Extract scans the document text and returns the ordered findings.
// Empty or blank text fails with InvalidInputError (R1.2). Overlapping
// spans within a category count once, preferring the longer canonical
// indicator (R4.3).
func (e *Extractor) Extract(docID, text string) ([]types.EvidenceFinding, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &types.InvalidInputError{DocumentID: docID, Reason: "empty document text"}
	}

	lower := strings.ToLower(text)

	var findings []types.EvidenceFinding
	for _, set := range e.sets {
		category := types.Category(set.Category)

		var matches []match
		matches = append(matches, e.occurrences(lower, category, set.Strong, types.TierStrong)...)
		matches = append(matches, e.occurrences(lower, category, set.Supporting, types.TierSupporting)...)
		matches = append(matches, e.occurrences(lower, category, set.Exclusionary, types.TierExclusionary)...)

		for _, m := range dedupe(matches) {
			findings = append(findings, types.EvidenceFinding{
				Category: m.category,
				Phrase:   m.phrase,
				Tier:     m.tier,
				Offset:   m.start,
				Source:   types.FindingSourceCurated,
			})
		}
	}

	sortFindings(findings)
	return findings, nil
}

// AdmitSuggestions verifies signal-service suggestions against the document
// and appends the ones that hold up as supporting-tier findings (R5.3).
// A suggestion is admitted only where its phrase occurs un-negated in the
// text and no curated finding already covers that occurrence. The merged
// sequence is re-sorted so output order stays deterministic.
func (e *Extractor) AdmitSuggestions(text string, curated []types.EvidenceFinding, suggestions []Suggestion) []types.EvidenceFinding {
	lower := strings.ToLower(text)

	seen := make(map[string]bool, len(curated))
	for _, f := range curated {
		seen[findingKey(f.Category, f.Phrase, f.Offset)] = true
	}

	merged := curated
	for _, s := range suggestions {
		category, err := types.ParseCategory(s.Category)
		if err != nil {
			continue
		}
		phrase := strings.ToLower(strings.TrimSpace(s.Phrase))
		if phrase == "" {
			continue
		}

		for _, m := range e.occurrences(lower, category, []string{phrase}, types.TierSupporting) {
			key := findingKey(category, phrase, m.start)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, types.EvidenceFinding{
				Category: category,
				Phrase:   phrase,
				Tier:     types.TierSupporting,
				Offset:   m.start,
				Source:   types.FindingSourceSignal,
			})
		}
	}

	sortFindings(merged)
	return merged
}

// Suggestion is a candidate indicator phrase proposed by the signal service.
type Suggestion struct {
	// Category is the GAMP category the phrase is claimed to support.
	Category int `json:"category" yaml:"category"`

	// Phrase is the proposed indicator phrase.
	Phrase string `json:"phrase" yaml:"phrase"`
}

// occurrences finds every non-negated occurrence of the given phrases.
func (e *Extractor) occurrences(lower string, category types.Category, phrases []string, tier types.IndicatorTier) []match {
	var out []match
	for _, p := range phrases {
		phrase := strings.ToLower(p)
		if phrase == "" {
			continue
		}
		for from := 0; ; {
			idx := strings.Index(lower[from:], phrase)
			if idx < 0 {
				break
			}
			start := from + idx
			from = start + len(phrase)

			if e.negated(lower, start) {
				continue
			}
			out = append(out, match{
				category: category,
				phrase:   phrase,
				tier:     tier,
				start:    start,
				end:      start + len(phrase),
			})
		}
	}
	return out
}

// negated reports whether a negation token appears in the context window
// immediately before offset, within the same sentence (R4.2). This is the
// context-aware exclusion check: "NOT custom-developed" must not count as a
// positive "custom-developed" signal.
func (e *Extractor) negated(lower string, offset int) bool {
	windowStart := offset - e.negWindow
	if windowStart < 0 {
		windowStart = 0
	}
	window := lower[windowStart:offset]

	// Clip the window at the last sentence boundary so a negation in the
	// previous sentence does not bleed through.
	if i := strings.LastIndexAny(window, ".;!?\n"); i >= 0 {
		window = window[i+1:]
	}

	normalized := " " + strings.Join(strings.FieldsFunc(window, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '-' && r != '\''
	}), " ") + " "

	for _, tok := range e.negations {
		if strings.Contains(normalized, " "+tok+" ") {
			return true
		}
	}
	return false
}

// dedupe drops matches whose span is contained within a longer kept match
// of the same category, and exact duplicates. Matches survive in
// offset-then-length order, longest first on equal offsets.
func dedupe(matches []match) []match {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].start != matches[j].start {
			return matches[i].start < matches[j].start
		}
		li, lj := matches[i].end-matches[i].start, matches[j].end-matches[j].start
		if li != lj {
			return li > lj
		}
		return matches[i].phrase < matches[j].phrase
	})

	var kept []match
	for _, m := range matches {
		contained := false
		for _, k := range kept {
			if m.start >= k.start && m.end <= k.end {
				contained = true
				break
			}
		}
		if !contained {
			kept = append(kept, m)
		}
	}
	return kept
}

// sortFindings orders findings by offset, then category, then phrase.
func sortFindings(findings []types.EvidenceFinding) {
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Offset != findings[j].Offset {
			return findings[i].Offset < findings[j].Offset
		}
		if findings[i].Category != findings[j].Category {
			return findings[i].Category < findings[j].Category
		}
		return findings[i].Phrase < findings[j].Phrase
	})
}

func findingKey(c types.Category, phrase string, offset int) string {
	return fmt.Sprintf("%d|%s|%d", int(c), phrase, offset)
}
