// Package cache provides the in-process caches behind period loading and
// segment memoization, plus a manager that sweeps expired entries.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Cache is the read/write surface of LRUCache.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
	CleanExpired() int
}

// Cleaner is implemented by caches whose entries expire.
type Cleaner interface {
	CleanExpired() int
}

// Manager sweeps a set of caches on an interval.
type Manager struct {
	mu     sync.Mutex
	caches []Cleaner
}

func NewManager(caches ...Cleaner) *Manager {
	m := &Manager{}
	m.Register(caches...)
	return m
}

// Register adds caches to the sweep. Nil cleaners are ignored.
func (m *Manager) Register(caches ...Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range caches {
		if c != nil {
			m.caches = append(m.caches, c)
		}
	}
}

// CleanNow runs one sweep synchronously and returns the number of dropped
// entries.
func (m *Manager) CleanNow() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	m.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.CleanNow(); n > 0 {
				slog.DebugContext(ctx, "Cache sweep completed",
					"component", "cache",
					"entries_removed", n)
			}
		}
	}
}
