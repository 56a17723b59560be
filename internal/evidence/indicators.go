// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evidence scans requirements documents for category-indicative
// signal phrases and produces deterministic, ordered evidence findings.
// Implements: prd001-evidence (R1-R5).
package evidence

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/gamp-engine/pkg/types"
)

// IndicatorSet holds the curated indicator phrases for one GAMP category,
// grouped by tier (R3.1).
type IndicatorSet struct {
	// Category is the GAMP category the set describes.
	Category int `json:"category" yaml:"category"`

	// Strong lists phrases that alone carry most of the category's signal.
	Strong []string `json:"strong" yaml:"strong"`

	// Supporting lists corroborating phrases.
	Supporting []string `json:"supporting" yaml:"supporting"`

	// Exclusionary lists phrases that argue against the category.
	Exclusionary []string `json:"exclusionary" yaml:"exclusionary"`
}

// IndicatorFile is the YAML schema for an indicator override file (R3.2).
type IndicatorFile struct {
	// Categories holds one IndicatorSet per GAMP category.
	Categories []IndicatorSet `json:"categories" yaml:"categories"`

	// Negations optionally overrides the built-in negation token list.
	Negations []string `json:"negations,omitempty" yaml:"negations,omitempty"`
}

// defaultNegations are the tokens that, appearing in the context window
// before an indicator, suppress the finding (R4.2).
var defaultNegations = []string{
	"not", "no", "never", "without", "excluding", "except",
	"rather than", "instead of", "avoids", "prohibits",
}

// DefaultIndicators returns the built-in curated indicator sets for GAMP
// categories 1, 3, 4, and 5 (R3.1).
func DefaultIndicators() []IndicatorSet {
	return []IndicatorSet{
		{
			Category: 1,
			Strong: []string{
				"infrastructure software",
				"operating system",
				"middleware",
				"database engine",
			},
			Supporting: []string{
				"network protocol",
				"virtualization layer",
				"system utility",
				"runtime environment",
			},
			Exclusionary: []string{
				"business process",
				"custom application",
			},
		},
		{
			Category: 3,
			Strong: []string{
				"commercial off-the-shelf",
				"used as supplied",
				"non-configured product",
				"vendor's standard",
			},
			Supporting: []string{
				"off-the-shelf",
				"standard product",
				"standard software package",
				"default settings",
				"no customization",
				"vendor-supplied",
			},
			Exclusionary: []string{
				"custom-developed",
				"bespoke",
				"configured workflow",
			},
		},
		{
			Category: 4,
			Strong: []string{
				"configured product",
				"configurable package",
				"configured to meet",
			},
			Supporting: []string{
				"configuration",
				"configure",
				"user-defined parameters",
				"workflow configuration",
				"formula editor",
				"configurable reports",
				"macro",
			},
			Exclusionary: []string{
				"custom code",
				"bespoke",
				"used as supplied",
			},
		},
		{
			Category: 5,
			Strong: []string{
				"custom-developed",
				"bespoke",
				"custom development",
				"purpose-built",
			},
			Supporting: []string{
				"custom code",
				"custom calculations",
				"custom interface",
				"in-house development",
				"proprietary algorithm",
				"developed specifically",
			},
			Exclusionary: []string{
				"commercial off-the-shelf",
				"vendor's standard",
				"no customization",
			},
		},
	}
}

// LoadIndicators reads an indicator override file. Every listed category
// must be a valid GAMP category and carry at least one strong phrase.
func LoadIndicators(path string) (*IndicatorFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading indicators file %s: %w", path, err)
	}

	var f IndicatorFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing indicators file %s: %w", path, err)
	}

	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("indicators file %s lists no categories", path)
	}
	for _, set := range f.Categories {
		if _, err := types.ParseCategory(set.Category); err != nil {
			return nil, fmt.Errorf("indicators file %s: %w", path, err)
		}
		if len(set.Strong) == 0 {
			return nil, fmt.Errorf("indicators file %s: category %d has no strong indicators", path, set.Category)
		}
	}

	return &f, nil
}
