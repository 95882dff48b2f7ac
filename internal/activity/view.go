package activity

import (
	"time"

	"activity/internal/chart"
	"activity/internal/core"
	"activity/internal/period"
	"activity/internal/stats"
)

// PeriodInfo locates the displayed month inside the navigation window.
type PeriodInfo struct {
	YearIndex  int    `json:"year_index"`
	MonthIndex int    `json:"month_index"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Label      string `json:"label"`
}

// LegendEntry is a legend row with its amount rendered for display.
type LegendEntry struct {
	chart.LegendItem
	AmountFormatted string `json:"amount_formatted"`
}

// View is everything a renderer needs to draw the Activity screen.
type View struct {
	Period         PeriodInfo      `json:"period"`
	CanGoOlder     bool            `json:"can_go_older"`
	CanGoNewer     bool            `json:"can_go_newer"`
	Older          *period.State   `json:"older,omitempty"`
	Newer          *period.State   `json:"newer,omitempty"`
	Years          []int           `json:"years"`
	Geometry       chart.Geometry  `json:"geometry"`
	Circumference  float64         `json:"circumference"`
	Total          float64         `json:"total"`
	TotalFormatted string          `json:"total_formatted"`
	Segments       []chart.Segment `json:"segments"`
	Legend         []LegendEntry   `json:"legend"`
	Counters       core.Counters   `json:"counters"`
	Selected       *int            `json:"selected,omitempty"`
	Failed         bool            `json:"failed"`
}

// Builder runs the chart pipeline for one period.
type Builder struct {
	Geometry  chart.Geometry
	Formatter stats.CurrencyFormatter
	Labels    stats.CategoryLabelResolver
	// Memo is optional.
	Memo *chart.Memo
}

// Build derives the view of ps for the navigator position. sel is clamped to
// the resulting segment list and the clamped value is returned alongside.
func (b *Builder) Build(ps core.PeriodStats, nav *period.Navigator, sel chart.Selection, failed bool) (View, chart.Selection) {
	cats, total := chart.Aggregate(ps.Categories)
	if b.Labels != nil {
		for i := range cats {
			cats[i].Label = b.Labels.Resolve(cats[i].Key, cats[i].Label)
		}
	}

	circ := b.Geometry.Circumference()
	var segs []chart.Segment
	if b.Memo != nil {
		segs = b.Memo.Segments(cats, circ)
	} else {
		segs = chart.ComputeSegments(cats, circ)
	}

	sel.Clamp(len(segs))
	items := chart.ComputeLegend(segs, total, sel)
	legend := make([]LegendEntry, len(items))
	for i, it := range items {
		legend[i] = LegendEntry{LegendItem: it, AmountFormatted: b.format(it.Amount)}
	}

	st := nav.State()
	v := View{
		Period: PeriodInfo{
			YearIndex:  st.YearIndex,
			MonthIndex: st.MonthIndex,
			Year:       nav.Year(),
			Month:      nav.Month(),
			Label:      periodLabel(nav.Year(), nav.Month()),
		},
		CanGoOlder:     nav.CanGoOlder(),
		CanGoNewer:     nav.CanGoNewer(),
		Years:          nav.Years(),
		Geometry:       b.Geometry,
		Circumference:  circ,
		Total:          total,
		TotalFormatted: b.format(total),
		Segments:       segs,
		Legend:         legend,
		Counters:       ps.Counters,
		Failed:         failed,
	}
	if older, ok := nav.Older(); ok {
		v.Older = &older
	}
	if newer, ok := nav.Newer(); ok {
		v.Newer = &newer
	}
	if i, ok := sel.Index(); ok {
		v.Selected = &i
	}
	return v, sel
}

func (b *Builder) format(amount float64) string {
	if b.Formatter == nil {
		return ""
	}
	return b.Formatter.Format(amount)
}

func periodLabel(year, month int) string {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}
