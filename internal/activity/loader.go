// Package activity assembles the Activity view: it loads period statistics,
// runs them through the chart pipeline and keeps the interactive session
// state (period, selection) consistent across asynchronous fetches.
package activity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"activity/internal/cache"
	"activity/internal/core"
	applog "activity/internal/log"
	"activity/internal/stats"

	"golang.org/x/sync/singleflight"
)

// fetchTimeout bounds a shared provider call once every waiting caller has
// given up on it.
const fetchTimeout = 30 * time.Second

// Loader fetches period statistics through a provider, caching results and
// collapsing concurrent requests for the same period into one call.
type Loader struct {
	provider stats.PeriodDataProvider
	cache    *cache.LRUCache[core.PeriodStats]
	group    singleflight.Group

	// gens counts invalidations per period. A fetch started before an
	// invalidation must not write its result to the cache.
	mu   sync.Mutex
	gens map[string]uint64
}

func NewLoader(provider stats.PeriodDataProvider, size int, ttl time.Duration) *Loader {
	return &Loader{
		provider: provider,
		cache:    cache.NewLRUCache[core.PeriodStats](size, ttl),
		gens:     make(map[string]uint64),
	}
}

func periodKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// Load returns the statistics of year/month. A cancelled ctx makes the caller
// stop waiting; the shared fetch keeps running for other waiters.
func (l *Loader) Load(ctx context.Context, year, month int) (core.PeriodStats, error) {
	key := periodKey(year, month)
	if ps, ok := l.cache.Get(key); ok {
		return ps, nil
	}

	ch := l.group.DoChan(key, func() (any, error) {
		gen := l.generation(key)
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		ps, err := l.provider.FetchPeriod(fctx, year, month)
		if err != nil {
			return core.PeriodStats{}, err
		}
		ps.Year, ps.Month = year, month
		l.store(key, gen, ps)
		applog.FromContext(ctx).WithComponent(applog.ComponentProvider).Debug("Period statistics loaded",
			applog.FieldYear, year,
			applog.FieldMonth, month,
			applog.FieldSegments, len(ps.Categories))
		return ps, nil
	})

	select {
	case <-ctx.Done():
		return core.PeriodStats{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return core.PeriodStats{}, fmt.Errorf("fetch period %s: %w", key, res.Err)
		}
		return res.Val.(core.PeriodStats), nil
	}
}

func (l *Loader) generation(key string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gens[key]
}

// store caches ps unless key was invalidated after gen was read.
func (l *Loader) store(key string, gen uint64, ps core.PeriodStats) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gens[key] != gen {
		return
	}
	l.cache.Set(key, ps)
}

// Invalidate drops the cached statistics of year/month. A fetch already in
// flight still answers its waiters but its result is not cached.
func (l *Loader) Invalidate(year, month int) {
	key := periodKey(year, month)
	l.mu.Lock()
	l.gens[key]++
	l.cache.Delete(key)
	l.mu.Unlock()
	l.group.Forget(key)
}

// Cached reports the number of cached periods.
func (l *Loader) Cached() int {
	return l.cache.Size()
}

// Stats reports the counters of the period cache.
func (l *Loader) Stats() cache.Stats {
	return l.cache.Stats()
}

// Cleaner exposes the cache to a cache.Manager.
func (l *Loader) Cleaner() cache.Cleaner {
	return l.cache
}
