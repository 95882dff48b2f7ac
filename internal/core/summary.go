package core

// PeriodStats is the provider snapshot for a specific year+month.
type PeriodStats struct {
	Year       int
	Month      int // 1-12
	Categories []RawCategory
	Counters   Counters
}

// Empty reports whether the snapshot carries no category at all.
func (p PeriodStats) Empty() bool {
	return len(p.Categories) == 0
}
