// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for the GAMP categorization
// pipeline: documents, evidence findings, scores, decisions, consultation
// requests, and audit entries.
package types

import "fmt"

// Category is a GAMP software category. Category 2 was retired in GAMP 5;
// only 1, 3, 4, and 5 are valid. Per prd003-decision R1.1.
type Category int

const (
	// Category1 covers infrastructure software (operating systems, middleware).
	Category1 Category = 1

	// Category3 covers non-configured commercial off-the-shelf products.
	Category3 Category = 3

	// Category4 covers configured products adapted through vendor-supplied
	// configuration rather than custom code.
	Category4 Category = 4

	// Category5 covers custom-developed (bespoke) applications, the
	// highest-risk classification.
	Category5 Category = 5
)

// Categories lists all valid categories in ascending risk order.
var Categories = []Category{Category1, Category3, Category4, Category5}

// Valid reports whether c is one of the GAMP 5 categories.
func (c Category) Valid() bool {
	switch c {
	case Category1, Category3, Category4, Category5:
		return true
	}
	return false
}

// String renders the category as "Category N".
func (c Category) String() string {
	return fmt.Sprintf("Category %d", int(c))
}

// ParseCategory converts a numeric category value to a Category.
func ParseCategory(n int) (Category, error) {
	c := Category(n)
	if !c.Valid() {
		return 0, fmt.Errorf("invalid GAMP category %d: must be 1, 3, 4, or 5", n)
	}
	return c, nil
}
