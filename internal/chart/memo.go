package chart

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"strconv"
	"time"

	"activity/internal/cache"
	"activity/internal/core"
)

// Memo caches ComputeSegments results keyed by a hash of the categories and
// the circumference. It is optional: callers can always use ComputeSegments.
type Memo struct {
	cache *cache.LRUCache[[]Segment]
}

// NewMemo creates a memo backed by an LRU of maxSize entries.
func NewMemo(maxSize int, ttl time.Duration) *Memo {
	return &Memo{cache: cache.NewLRUCache[[]Segment](maxSize, ttl)}
}

// Segments returns the (possibly cached) allocation for categories.
func (m *Memo) Segments(categories []core.CategoryRecord, circumference float64) []Segment {
	if m == nil {
		return ComputeSegments(categories, circumference)
	}
	key := memoKey(categories, circumference)
	if segs, ok := m.cache.Get(key); ok {
		return append(make([]Segment, 0, len(segs)), segs...)
	}
	segs := ComputeSegments(categories, circumference)
	m.cache.Set(key, segs)
	return append(make([]Segment, 0, len(segs)), segs...)
}

// Stats reports the hit counters of the memo.
func (m *Memo) Stats() cache.Stats {
	if m == nil {
		return cache.Stats{}
	}
	return m.cache.Stats()
}

// Cleaner exposes the underlying cache for periodic expiry.
func (m *Memo) Cleaner() cache.Cleaner {
	if m == nil {
		return nil
	}
	return m.cache
}

func memoKey(categories []core.CategoryRecord, circumference float64) string {
	h := fnv.New64a()
	var buf [8]byte
	writeFloat := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = h.Write(buf[:])
	}
	writeString := func(s string) {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
	}
	writeFloat(circumference)
	for _, c := range categories {
		writeString(c.Key)
		writeString(c.Label)
		writeString(c.Color)
		writeFloat(c.Amount)
	}
	return strconv.Itoa(len(categories)) + ":" + strconv.FormatUint(h.Sum64(), 16)
}
