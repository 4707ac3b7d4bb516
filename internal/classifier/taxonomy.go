// Package classifier tags product ledger rows with a retail vertical using
// a Gemini model, so product-level aggregation can roll up beyond the raw
// network categories.
package classifier

import (
	"fmt"
	"strings"
)

// Verticals is the fixed taxonomy products are classified into. The model
// must answer with one of these, verbatim.
var Verticals = []string{
	"apparel",
	"beauty",
	"electronics",
	"food & drink",
	"health",
	"home",
	"kids",
	"outdoors",
	"pets",
	"sports",
	"travel",
	"other",
}

// VerticalValidator checks model answers against the taxonomy.
type VerticalValidator struct {
	verticals map[string]bool
}

// NewVerticalValidator builds the lookup set once per run.
func NewVerticalValidator() *VerticalValidator {
	validator := &VerticalValidator{verticals: make(map[string]bool, len(Verticals))}
	for _, v := range Verticals {
		validator.verticals[normalizeVertical(v)] = true
	}
	return validator
}

// Validate returns an error when the vertical is outside the taxonomy.
func (v *VerticalValidator) Validate(vertical string) error {
	if !v.verticals[normalizeVertical(vertical)] {
		return fmt.Errorf("invalid vertical: %q", vertical)
	}
	return nil
}

// normalizeVertical normalizes a vertical for case-insensitive comparison.
func normalizeVertical(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
