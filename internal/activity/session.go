package activity

import (
	"context"
	"errors"
	"sync"
	"time"

	"activity/internal/chart"
	"activity/internal/core"
	applog "activity/internal/log"
	"activity/internal/period"
)

// ErrSuperseded is returned by Refresh when the period changed, or a newer
// refresh started, while the fetch was in flight. The result is discarded.
var ErrSuperseded = errors.New("activity: refresh superseded by a newer request")

// TouchResult reports the outcome of a touch on the chart.
type TouchResult struct {
	Index    int          `json:"index"`
	Hit      bool         `json:"hit"`
	Selected *int         `json:"selected,omitempty"`
	Tooltip  *chart.Point `json:"tooltip,omitempty"`
}

// Session is the interactive state of one Activity screen: the period
// navigator, the highlighted segment and the last built view. It is safe for
// concurrent use.
type Session struct {
	loader  *Loader
	builder *Builder

	mu     sync.Mutex
	nav    *period.Navigator
	sel    chart.Selection
	stats  core.PeriodStats
	failed bool
	view   View
	seq    uint64
	cancel context.CancelFunc
}

func NewSession(loader *Loader, builder *Builder, window int, now time.Time) *Session {
	s := &Session{
		loader:  loader,
		builder: builder,
		nav:     period.New(window, now),
	}
	s.stats = core.PeriodStats{Year: s.nav.Year(), Month: s.nav.Month()}
	s.view, _ = builder.Build(s.stats, s.nav, s.sel, false)
	return s
}

// View returns the last built view.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Restore positions the session on st with sel highlighted, without
// fetching. Call Refresh to load the period.
func (s *Session) Restore(st period.State, sel chart.Selection) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav.SetYear(st.YearIndex)
	s.nav.SetMonth(st.MonthIndex)
	s.stats = core.PeriodStats{Year: s.nav.Year(), Month: s.nav.Month()}
	s.failed = false
	s.rebuild()
	// Kept unclamped until Refresh knows the segment count.
	s.sel = sel
	return s.view
}

// Refresh fetches the current period and rebuilds the view. Any refresh still
// in flight is cancelled. A provider failure yields an empty view with
// Failed set; only cancellation of ctx and ErrSuperseded are returned.
func (s *Session) Refresh(ctx context.Context) (View, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	fctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.seq++
	seq := s.seq
	version := s.nav.Version()
	year, month := s.nav.Year(), s.nav.Month()
	s.mu.Unlock()

	ps, err := s.loader.Load(fctx, year, month)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq || version != s.nav.Version() {
		return View{}, ErrSuperseded
	}
	s.cancel = nil
	if err != nil {
		if ctx.Err() != nil {
			return View{}, ctx.Err()
		}
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogPeriodFetchFailed(ctx, year, month, err)
		ps = core.PeriodStats{Year: year, Month: month}
	}
	s.stats = ps
	s.failed = err != nil
	s.rebuild()
	return s.view, nil
}

// rebuild must be called with mu held.
func (s *Session) rebuild() {
	s.view, s.sel = s.builder.Build(s.stats, s.nav, s.sel, s.failed)
}

// navigate applies move and, when the period changed, clears the selection
// and refreshes.
func (s *Session) navigate(ctx context.Context, move func(n *period.Navigator)) (View, error) {
	s.mu.Lock()
	before := s.nav.Version()
	move(s.nav)
	moved := s.nav.Version() != before
	if moved {
		s.sel.Clear()
		s.stats = core.PeriodStats{Year: s.nav.Year(), Month: s.nav.Month()}
		s.failed = false
		s.rebuild()
	}
	v := s.view
	s.mu.Unlock()

	if !moved {
		return v, nil
	}
	return s.Refresh(ctx)
}

func (s *Session) GoOlder(ctx context.Context) (View, error) {
	return s.navigate(ctx, (*period.Navigator).GoOlder)
}

func (s *Session) GoNewer(ctx context.Context) (View, error) {
	return s.navigate(ctx, (*period.Navigator).GoNewer)
}

func (s *Session) SetYear(ctx context.Context, index int) (View, error) {
	return s.navigate(ctx, func(n *period.Navigator) { n.SetYear(index) })
}

func (s *Session) SetMonth(ctx context.Context, index int) (View, error) {
	return s.navigate(ctx, func(n *period.Navigator) { n.SetMonth(index) })
}

// Touch hit-tests p against the displayed ring. A hit toggles the selection
// of that segment and, when it becomes selected, places the tooltip. A miss
// leaves the selection unchanged.
func (s *Session) Touch(p chart.Point) TouchResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.builder.Geometry
	idx, ok := chart.HitTest(p, g, s.view.Segments)
	res := TouchResult{Index: idx, Hit: ok}
	if !ok {
		res.Index = -1
		res.Selected = s.view.Selected
		return res
	}
	s.sel.Toggle(idx)
	s.rebuild()
	res.Selected = s.view.Selected
	if s.sel.IsActive(idx) {
		tip := chart.PlaceTooltip(p, chart.Size{W: g.Size, H: g.Size}, chart.DefaultTooltip, g.Padding)
		res.Tooltip = &tip
	}
	return res
}

// SelectLegend toggles the legend entry i. Out-of-range indices are ignored.
func (s *Session) SelectLegend(i int) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= 0 && i < len(s.view.Segments) {
		s.sel.Toggle(i)
		s.rebuild()
	}
	return s.view
}
