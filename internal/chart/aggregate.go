// Package chart computes the spending donut: arc allocation, polar hit
// testing, legend percentages and tooltip placement.
//
// Everything here is synchronous and free of side effects. Degenerate input
// (malformed amounts, empty category lists, touches outside the ring) maps to
// a well-defined degenerate output rather than an error.
package chart

import (
	"strings"

	"activity/internal/core"
)

// FallbackColor is used for categories the provider did not colour.
const FallbackColor = "#B0B7C3"

// Aggregate sanitizes provider records into non-negative amounts and returns
// them together with their sum. Malformed amounts count as zero.
func Aggregate(raw []core.RawCategory) ([]core.CategoryRecord, float64) {
	out := make([]core.CategoryRecord, len(raw))
	var total float64
	for i, r := range raw {
		amount, ok := core.ParseAmount(r.Amount)
		if !ok || amount < 0 {
			amount = 0
		}
		color := r.Color
		if strings.TrimSpace(color) == "" {
			color = FallbackColor
		}
		out[i] = core.CategoryRecord{
			Key:    r.Key,
			Label:  r.Label,
			Color:  color,
			Amount: amount,
		}
		total += amount
	}
	return out, total
}

// Total sums the amounts of already sanitized records.
func Total(categories []core.CategoryRecord) float64 {
	var total float64
	for _, c := range categories {
		total += c.Amount
	}
	return total
}
