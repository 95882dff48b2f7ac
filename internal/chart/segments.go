package chart

import (
	"math"

	"activity/internal/core"
)

// Segment is one arc of the ring.
//
// Length is measured in circumference units. Start is the clockwise position
// from 12 o'clock where the arc begins. Offset is the dash offset expected by
// stroke-based renderers that draw each arc as a full-circle dash pattern:
// it equals C - Start.
type Segment struct {
	ID     string  `json:"id"`
	Color  string  `json:"color"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
	Length float64 `json:"length"`
	Offset float64 `json:"offset"`
	Start  float64 `json:"start"`
}

// End returns the clockwise position where the arc stops.
func (s Segment) End() float64 {
	return s.Start + s.Length
}

// Angles converts the arc into start/end angles in degrees, clockwise from
// 12 o'clock, for renderers that accept angles instead of dash offsets.
func (s Segment) Angles(circumference float64) (start, end float64) {
	if circumference <= 0 {
		return 0, 0
	}
	return s.Start / circumference * 360, s.End() / circumference * 360
}

// Circumference returns 2πR.
func Circumference(radius float64) float64 {
	return 2 * math.Pi * radius
}

// ComputeSegments allocates the circumference among categories in proportion
// to their amounts. When every amount is zero the ring is split evenly. The
// last segment absorbs rounding drift so lengths always sum to C.
func ComputeSegments(categories []core.CategoryRecord, circumference float64) []Segment {
	n := len(categories)
	if n == 0 {
		return []Segment{}
	}
	c := circumference
	if math.IsNaN(c) || c < 0 {
		c = 0
	}

	total := Total(categories)
	lengths := make([]float64, n)
	for i, cat := range categories {
		if total > 0 {
			lengths[i] = cat.Amount / total * c
		} else {
			lengths[i] = c / float64(n)
		}
	}

	var preceding float64
	for _, l := range lengths[:n-1] {
		preceding += l
	}
	lengths[n-1] = math.Max(0, c-preceding)

	out := make([]Segment, n)
	var start float64
	for i, cat := range categories {
		out[i] = Segment{
			ID:     cat.Key,
			Color:  cat.Color,
			Label:  cat.Label,
			Amount: cat.Amount,
			Length: lengths[i],
			Offset: c - start,
			Start:  start,
		}
		start += lengths[i]
	}
	return out
}
