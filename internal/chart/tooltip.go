package chart

import "math"

// Size is a width/height pair.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// DefaultTooltip is the fixed tooltip box shown next to a touched arc.
var DefaultTooltip = Size{W: 120, H: 48}

// PlaceTooltip returns the top-left corner for a tooltip centred on p while
// keeping the box inside the chart with the given padding.
func PlaceTooltip(p Point, chart, tooltip Size, padding float64) Point {
	return Point{
		X: clamp(p.X-tooltip.W/2, padding, chart.W-tooltip.W-padding),
		Y: clamp(p.Y-tooltip.H/2, padding, chart.H-tooltip.H-padding),
	}
}

// clamp prefers lo when the range is inverted, i.e. the tooltip is larger
// than the chart.
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
