package activity

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	applog "activity/internal/log"
)

// WarmUp preloads the months months ending at now (inclusive), at most limit
// fetches at a time. Failed months are logged and left uncached; the first
// error is returned once every fetch is done.
func (l *Loader) WarmUp(ctx context.Context, now time.Time, months, limit int) error {
	if months <= 0 {
		return nil
	}
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentActivity)

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < months; i++ {
		m := first.AddDate(0, -i, 0)
		year, month := m.Year(), int(m.Month())
		g.Go(func() error {
			if _, err := l.Load(ctx, year, month); err != nil {
				logger.WarnContext(ctx, "Cache warm-up failed",
					applog.FieldOperation, applog.OpWarmUp,
					applog.FieldYear, year,
					applog.FieldMonth, month,
					applog.FieldError, err)
				return err
			}
			return nil
		})
	}

	err := g.Wait()
	logger.InfoContext(ctx, "Cache warm-up completed",
		"months", months,
		"cached", l.Cached())
	return err
}
