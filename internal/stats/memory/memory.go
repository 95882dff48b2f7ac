package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"activity/internal/core"
)

var defaultCategories = []core.Category{
	{Key: "electronics", Label: "Electronics", Color: "#4F7CFF"},
	{Key: "groceries", Label: "Groceries", Color: "#2EC4B6"},
	{Key: "fashion", Label: "Fashion", Color: "#FF9F1C"},
	{Key: "home", Label: "Home", Color: "#E71D36"},
}

// Store keeps the taxonomy and recorded orders in memory.
type Store struct {
	mu     sync.Mutex
	cats   []core.Category
	orders []core.Order
}

func New(cats []core.Category) *Store {
	return &Store{cats: dedupe(cats)}
}

// NewFromFiles seeds the taxonomy from base/seed_categories.txt, one
// "key|label|color" entry per line. Missing label or color fall back to the
// key and an empty color. Built-in defaults are used when the file is absent.
func NewFromFiles(base string) *Store {
	cats := readCategories(filepath.Join(base, "seed_categories.txt"))
	if len(cats) == 0 {
		cats = defaultCategories
	}
	return New(cats)
}

// RecordOrder stores the order and returns a synthetic reference.
func (s *Store) RecordOrder(_ context.Context, o core.Order) (string, error) {
	if err := o.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, o)
	return fmt.Sprintf("mem:%d", len(s.orders)), nil
}

// ListCategories returns the taxonomy in seed order.
func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.cats...), nil
}

// FetchPeriod sums the recorded orders of year/month per category. Every
// known category is returned, with a zero amount when it had no orders;
// orders referencing unknown keys are appended after the taxonomy.
func (s *Store) FetchPeriod(ctx context.Context, year int, month int) (core.PeriodStats, error) {
	if err := ctx.Err(); err != nil {
		return core.PeriodStats{}, err
	}
	if month < 1 || month > 12 {
		return core.PeriodStats{}, core.ErrInvalidMonth
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := core.PeriodStats{Year: year, Month: month}
	sums := make(map[string]int64, len(s.cats))
	var extra []string
	known := make(map[string]bool, len(s.cats))
	for _, c := range s.cats {
		known[c.Key] = true
	}
	for _, o := range s.orders {
		if o.Date.Year() != year || o.Date.Month() != month {
			continue
		}
		out.Counters.Add(o.Status)
		if !known[o.CategoryKey] {
			if _, seen := sums[o.CategoryKey]; !seen {
				extra = append(extra, o.CategoryKey)
			}
		}
		sums[o.CategoryKey] += o.Amount.Cents
	}
	for _, c := range s.cats {
		out.Categories = append(out.Categories, core.RawCategory{
			Key:    c.Key,
			Label:  c.Label,
			Color:  c.Color,
			Amount: core.Money{Cents: sums[c.Key]},
		})
	}
	for _, key := range extra {
		out.Categories = append(out.Categories, core.RawCategory{
			Key:    key,
			Label:  key,
			Amount: core.Money{Cents: sums[key]},
		})
	}
	return out, nil
}

func readCategories(path string) []core.Category {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.Category
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "|", 3)
		c := core.Category{Key: strings.TrimSpace(parts[0])}
		if len(parts) > 1 {
			c.Label = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			c.Color = strings.TrimSpace(parts[2])
		}
		if c.Label == "" {
			c.Label = c.Key
		}
		out = append(out, c)
	}
	return dedupe(out)
}

// dedupe drops blank and repeated keys, preserving input order.
func dedupe(in []core.Category) []core.Category {
	seen := map[string]struct{}{}
	out := make([]core.Category, 0, len(in))
	for _, c := range in {
		c.Key = strings.TrimSpace(c.Key)
		if c.Key == "" {
			continue
		}
		if _, ok := seen[c.Key]; ok {
			continue
		}
		seen[c.Key] = struct{}{}
		out = append(out, c)
	}
	return out
}
