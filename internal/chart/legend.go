package chart

// LegendItem is a segment annotated with its share of the total and its
// highlight state.
type LegendItem struct {
	Segment
	Percent float64 `json:"percent"`
	Active  bool    `json:"active"`
	Dimmed  bool    `json:"dimmed"`
}

// Selection holds the highlighted segment, if any. The zero value has no
// selection.
type Selection struct {
	index int
	set   bool
}

// Selected returns a selection pointing at index i. Negative values yield an
// empty selection.
func Selected(i int) Selection {
	if i < 0 {
		return Selection{}
	}
	return Selection{index: i, set: true}
}

// Index returns the active index and whether one is set.
func (s Selection) Index() (int, bool) {
	return s.index, s.set
}

// IsActive reports whether i is the selected index.
func (s Selection) IsActive(i int) bool {
	return s.set && s.index == i
}

// Toggle selects i, or clears the selection if i is already selected.
func (s *Selection) Toggle(i int) {
	if i < 0 {
		return
	}
	if s.IsActive(i) {
		s.Clear()
		return
	}
	s.index, s.set = i, true
}

// Clear drops the selection.
func (s *Selection) Clear() {
	s.index, s.set = 0, false
}

// Clamp clears a selection that no longer points inside a list of n segments.
func (s *Selection) Clamp(n int) {
	if s.set && s.index >= n {
		s.Clear()
	}
}

// ComputeLegend derives the percentage of total for each segment and marks
// the active and dimmed entries.
func ComputeLegend(segments []Segment, total float64, sel Selection) []LegendItem {
	denom := total
	if denom <= 0 {
		denom = 1
	}
	_, hasSel := sel.Index()
	out := make([]LegendItem, len(segments))
	for i, s := range segments {
		active := sel.IsActive(i)
		out[i] = LegendItem{
			Segment: s,
			Percent: s.Amount / denom * 100,
			Active:  active,
			Dimmed:  hasSel && !active,
		}
	}
	return out
}
