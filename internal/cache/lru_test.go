package cache

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newClockedCache[T any](capacity int, ttl time.Duration) (*LRUCache[T], *fakeClock) {
	clk := &fakeClock{t: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[T](capacity, ttl)
	c.now = clk.now
	return c, clk
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok { // a becomes most recent
		t.Fatalf("expected a to be cached")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %v (ok=%v)", v, ok)
	}
	s := c.Stats()
	if s.Entries != 2 || s.Evictions != 1 || s.Hits != 2 || s.Misses != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	c, clk := newClockedCache[string](10, time.Minute)
	c.Set("k", "v")
	clk.advance(time.Minute + time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected expired entry to be gone")
	}

	c.Set("x", "1")
	clk.advance(30 * time.Second)
	c.Set("y", "2")
	clk.advance(45 * time.Second)
	if removed := c.CleanExpired(); removed != 1 {
		t.Fatalf("expected only x to expire, removed %d", removed)
	}
	if _, ok := c.Get("y"); !ok {
		t.Fatal("y should still be cached")
	}
	if s := c.Stats(); s.Expired != 2 {
		t.Fatalf("expected 2 expirations, got %+v", s)
	}
}

func TestLRUCacheWithoutTTL(t *testing.T) {
	c, clk := newClockedCache[int](4, 0)
	c.Set("a", 1)
	clk.advance(365 * 24 * time.Hour)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entries must not expire without a TTL")
	}
	if n := c.CleanExpired(); n != 0 {
		t.Fatalf("expected no cleanup, got %d", n)
	}
}

func TestLRUCacheDeleteAndOverwrite(t *testing.T) {
	var c Cache[int] = NewLRUCache[int](0, time.Minute) // clamps to 1
	c.Set("a", 1)
	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Fatalf("expected overwrite to 2, got %d", v)
	}
	c.Delete("a")
	c.Delete("missing")
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
}

func TestStatsHitRate(t *testing.T) {
	if r := (Stats{}).HitRate(); r != 0 {
		t.Fatalf("empty hit rate = %v", r)
	}
	if r := (Stats{Hits: 3, Misses: 1}).HitRate(); r != 0.75 {
		t.Fatalf("hit rate = %v, want 0.75", r)
	}
}

func TestManagerCleanNow(t *testing.T) {
	a, clk := newClockedCache[int](10, time.Second)
	b := NewLRUCache[int](10, 0)
	m := NewManager(a, nil)
	m.Register(b, nil)

	a.Set("x", 1)
	b.Set("y", 2)
	clk.advance(2 * time.Second)
	if n := m.CleanNow(); n != 1 {
		t.Fatalf("expected 1 cleaned entry, got %d", n)
	}
	if b.Size() != 1 {
		t.Fatal("cache without TTL must be untouched")
	}
}

func TestManagerRunStopsWithContext(t *testing.T) {
	m := NewManager(NewLRUCache[int](1, time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
