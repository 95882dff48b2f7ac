package chart

import "math"

// DefaultPadding is the margin between the hole and the interactive ring.
const DefaultPadding = 8

// Point is a position in the chart's local coordinate space, origin at the
// top-left corner, y growing downwards.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Geometry describes a square chart of Size×Size units with a ring of
// OuterRadius drawn with a stroke of StrokeWidth.
type Geometry struct {
	Size        float64 `json:"size"`
	OuterRadius float64 `json:"outer_radius"`
	StrokeWidth float64 `json:"stroke_width"`
	Padding     float64 `json:"padding"`
}

// DefaultGeometry matches the Activity screen layout.
func DefaultGeometry() Geometry {
	return Geometry{
		Size:        240,
		OuterRadius: 100,
		StrokeWidth: 20,
		Padding:     DefaultPadding,
	}
}

// Circumference of the outer ring.
func (g Geometry) Circumference() float64 {
	return Circumference(g.OuterRadius)
}

// Center of the chart.
func (g Geometry) Center() Point {
	return Point{X: g.Size / 2, Y: g.Size / 2}
}

// InnerRadius is the edge of the donut hole for hit-testing purposes.
func (g Geometry) InnerRadius() float64 {
	return g.OuterRadius - g.StrokeWidth - g.Padding
}

// HitTest resolves a touch to the index of the segment under it. ok is false
// when the point lies in the hole, outside the ring, or there are no segments.
func HitTest(p Point, g Geometry, segments []Segment) (index int, ok bool) {
	if len(segments) == 0 {
		return -1, false
	}
	center := g.Center()
	dx := p.X - center.X
	dy := p.Y - center.Y
	r := math.Hypot(dx, dy)
	if math.IsNaN(r) || r < g.InnerRadius() || r > g.OuterRadius+g.StrokeWidth/2 {
		return -1, false
	}

	angle := math.Atan2(dy, dx) * 180 / math.Pi
	if angle < 0 {
		angle += 360
	}
	// The ring starts at 12 o'clock, a quarter turn before 3 o'clock.
	progress := math.Mod(angle+90, 360)
	pos := progress / 360 * g.Circumference()

	var cumulative float64
	for i, s := range segments {
		cumulative += s.Length
		if cumulative >= pos {
			return i, true
		}
	}
	return len(segments) - 1, true
}
