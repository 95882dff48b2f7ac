// Package ratelimit throttles clients with a fixed one-minute window per
// client address.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const (
	window  = time.Minute
	idleTTL = 10 * time.Minute
)

type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{RequestsPerMinute: 60, CleanupInterval: 5 * time.Minute}
}

// bucket is the request count of one client in its current window.
type bucket struct {
	opened time.Time
	seen   time.Time
	count  int
}

// Limiter counts requests per client. A background sweep forgets clients idle
// for longer than ten minutes until Stop is called.
type Limiter struct {
	limit int
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	rejected atomic.Int64
	stop     context.CancelFunc
}

func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &Limiter{
		limit:   cfg.RequestsPerMinute,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		stop:    cancel,
	}
	go l.sweep(ctx, cfg.CleanupInterval)
	return l
}

// Allow counts a request from client. A rejected request reports how long
// until the client's window reopens.
func (l *Limiter) Allow(client string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b := l.buckets[client]
	if b == nil || now.Sub(b.opened) >= window {
		l.buckets[client] = &bucket{opened: now, seen: now, count: 1}
		return true, 0
	}
	b.seen = now
	b.count++
	if b.count > l.limit {
		l.rejected.Add(1)
		return false, b.opened.Add(window).Sub(now)
	}
	return true, 0
}

func (l *Limiter) sweep(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.cleanupStaleEntries()
		}
	}
}

// cleanupStaleEntries forgets idle clients and returns how many went.
func (l *Limiter) cleanupStaleEntries() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-idleTTL)
	n := 0
	for client, b := range l.buckets {
		if b.seen.Before(cutoff) {
			delete(l.buckets, client)
			n++
		}
	}
	return n
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Stop ends the background sweep. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stop()
}

type Metrics struct {
	TotalHits   int64 `json:"total_hits"`
	ClientCount int64 `json:"client_count"`
}

func (l *Limiter) GetMetrics() Metrics {
	return Metrics{
		TotalHits:   l.rejected.Load(),
		ClientCount: int64(l.ActiveClients()),
	}
}

// Middleware limits requests whose method is in methods, or every request
// when methods is empty. Rejected requests get a Retry-After header and are
// passed to onLimit, or answered with a plain 429 when onLimit is nil.
func (l *Limiter) Middleware(clientOf func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request), methods ...string) func(http.Handler) http.Handler {
	limited := func(string) bool { return true }
	if len(methods) > 0 {
		set := make(map[string]struct{}, len(methods))
		for _, m := range methods {
			set[m] = struct{}{}
		}
		limited = func(m string) bool { _, ok := set[m]; return ok }
	}
	if onLimit == nil {
		onLimit = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limited(r.Method) {
				if ok, wait := l.Allow(clientOf(r)); !ok {
					w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(wait)))
					onLimit(w, r)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retrySeconds(d time.Duration) int {
	return max(int(d.Round(time.Second)/time.Second), 1)
}
