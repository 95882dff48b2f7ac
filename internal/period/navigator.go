// Package period implements the bounded month/year navigation used by the
// Activity view: a sliding window of the W most recent years, newest first,
// times twelve months.
package period

import "time"

// DefaultWindow is the number of years browsable by default.
const DefaultWindow = 3

// State identifies a period inside the window. YearIndex 0 is the most recent
// year; MonthIndex is 0 for January through 11 for December.
type State struct {
	YearIndex  int `json:"year_index"`
	MonthIndex int `json:"month_index"`
}

// Navigator is a bounded state machine over (year, month). It is not safe
// for concurrent use; owners serialize access.
type Navigator struct {
	window   int
	baseYear int
	state    State
	version  uint64
}

// New returns a navigator positioned on the month of now in its year.
// Windows smaller than one year are clamped to one.
func New(window int, now time.Time) *Navigator {
	if window < 1 {
		window = 1
	}
	return &Navigator{
		window:   window,
		baseYear: now.Year(),
		state:    State{YearIndex: 0, MonthIndex: int(now.Month()) - 1},
	}
}

// State returns the current position.
func (n *Navigator) State() State {
	return n.state
}

// Window returns the number of years in the window.
func (n *Navigator) Window() int {
	return n.window
}

// Version changes on every effective transition. Results computed for an
// older version are stale.
func (n *Navigator) Version() uint64 {
	return n.version
}

// Year returns the calendar year of the current position.
func (n *Navigator) Year() int {
	return n.baseYear - n.state.YearIndex
}

// Month returns the calendar month (1-12) of the current position.
func (n *Navigator) Month() int {
	return n.state.MonthIndex + 1
}

// Years lists the calendar years in the window, newest first.
func (n *Navigator) Years() []int {
	out := make([]int, n.window)
	for i := range out {
		out[i] = n.baseYear - i
	}
	return out
}

func (n *Navigator) CanGoOlder() bool {
	return n.state.YearIndex < n.window-1 || n.state.MonthIndex > 0
}

func (n *Navigator) CanGoNewer() bool {
	return n.state.YearIndex > 0 || n.state.MonthIndex < 11
}

// GoOlder moves one month back, crossing into December of the previous year
// when needed. It is a no-op at the oldest bound.
func (n *Navigator) GoOlder() {
	switch {
	case n.state.MonthIndex > 0:
		n.set(State{YearIndex: n.state.YearIndex, MonthIndex: n.state.MonthIndex - 1})
	case n.state.YearIndex < n.window-1:
		n.set(State{YearIndex: n.state.YearIndex + 1, MonthIndex: 11})
	}
}

// GoNewer moves one month forward, crossing into January of the next year
// when needed. It is a no-op at the newest bound.
func (n *Navigator) GoNewer() {
	switch {
	case n.state.MonthIndex < 11:
		n.set(State{YearIndex: n.state.YearIndex, MonthIndex: n.state.MonthIndex + 1})
	case n.state.YearIndex > 0:
		n.set(State{YearIndex: n.state.YearIndex - 1, MonthIndex: 0})
	}
}

// SetYear jumps to a year index, clamped to the window.
func (n *Navigator) SetYear(index int) {
	n.set(State{YearIndex: clamp(index, 0, n.window-1), MonthIndex: n.state.MonthIndex})
}

// SetMonth jumps to a month index, clamped to 0..11.
func (n *Navigator) SetMonth(index int) {
	n.set(State{YearIndex: n.state.YearIndex, MonthIndex: clamp(index, 0, 11)})
}

// Older returns the state GoOlder would move to, and whether it exists.
func (n *Navigator) Older() (State, bool) {
	probe := *n
	probe.GoOlder()
	return probe.state, n.CanGoOlder()
}

// Newer returns the state GoNewer would move to, and whether it exists.
func (n *Navigator) Newer() (State, bool) {
	probe := *n
	probe.GoNewer()
	return probe.state, n.CanGoNewer()
}

func (n *Navigator) set(s State) {
	if s == n.state {
		return
	}
	n.state = s
	n.version++
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
