// Package core holds the derivation and composition rules of the POS: item
// pricing, the order composer invariants, the per-table state derivation and
// the layout repair heuristics. Everything in this package is pure; all
// persistence and transport lives in the surrounding services.
package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"SmilePos/app/models"
)

// Round2 rounds a monetary amount to 2 decimals. Totals are re-rounded after
// every addition and subtraction so float drift never becomes a visible
// penny error.
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// ParsePrice normalizes a catalog price that may be numeric-formatted with a
// comma decimal separator ("12,90") into a float amount.
func ParsePrice(raw string) (float64, error) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if s == "" {
		return 0, fmt.Errorf("empty price")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", raw, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("invalid price %q", raw)
	}
	return v, nil
}

// Variant is a burger base choice that can carry a surcharge
type Variant struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Price float64 `json:"price"`
	// NeedsPoint marks variants that require a doneness choice
	NeedsPoint bool `json:"needs_point,omitempty"`
}

// ItemPrice computes the final price of one configured line:
// base + variant surcharge + extras.
func ItemPrice(basePrice float64, variant *Variant, extras []models.Extra) float64 {
	total := basePrice
	if variant != nil {
		total += variant.Price
	}
	for _, e := range extras {
		total += e.Price
	}
	return Round2(total)
}
