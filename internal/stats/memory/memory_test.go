package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"activity/internal/core"
	"activity/internal/stats"
)

var _ stats.Store = (*Store)(nil)

func order(year, month int, key string, cents int64, status core.OrderStatus) core.Order {
	return core.Order{
		Date:        core.NewDate(year, month, 10),
		CategoryKey: key,
		Amount:      core.Money{Cents: cents},
		Status:      status,
	}
}

func TestMemoryStoreRecordAndList(t *testing.T) {
	s := New([]core.Category{{Key: "a"}, {Key: "b"}, {Key: "a"}, {Key: " "}})
	cats, err := s.ListCategories(context.Background())
	if err != nil || len(cats) != 2 {
		t.Fatalf("unexpected list: cats=%v err=%v", cats, err)
	}

	ref, err := s.RecordOrder(context.Background(), order(2026, 3, "a", 123, core.StatusOrdered))
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected record: ref=%q err=%v", ref, err)
	}

	if _, err := s.RecordOrder(context.Background(), order(2026, 3, "a", 0, core.StatusOrdered)); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestFetchPeriodAggregatesMonth(t *testing.T) {
	ctx := context.Background()
	s := New([]core.Category{{Key: "a", Label: "A"}, {Key: "b", Label: "B"}})
	for _, o := range []core.Order{
		order(2026, 3, "a", 1000, core.StatusOrdered),
		order(2026, 3, "a", 500, core.StatusReceived),
		order(2026, 3, "x", 250, core.StatusToReceive),
		order(2026, 4, "b", 9999, core.StatusOrdered),
		order(2025, 3, "b", 9999, core.StatusOrdered),
	} {
		if _, err := s.RecordOrder(ctx, o); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := s.FetchPeriod(ctx, 2026, 3)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got.Categories) != 3 {
		t.Fatalf("expected 3 categories, got %+v", got.Categories)
	}
	want := map[string]float64{"a": 15, "b": 0, "x": 2.5}
	for _, c := range got.Categories {
		v, ok := core.ParseAmount(c.Amount)
		if !ok || v != want[c.Key] {
			t.Errorf("category %s: got %v (ok=%v), want %v", c.Key, v, ok, want[c.Key])
		}
	}
	if got.Categories[2].Label != "x" {
		t.Errorf("unknown category should use key as label, got %q", got.Categories[2].Label)
	}
	if got.Counters != (core.Counters{Ordered: 1, Received: 1, ToReceive: 1}) {
		t.Errorf("unexpected counters: %+v", got.Counters)
	}

	if _, err := s.FetchPeriod(ctx, 2026, 13); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected invalid month, got %v", err)
	}
}

func TestFetchPeriodHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(nil).FetchPeriod(ctx, 2026, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir)
	cats, _ := s.ListCategories(context.Background())
	if len(cats) != len(defaultCategories) {
		t.Fatalf("expected defaults when file missing, got %v", cats)
	}

	content := "# key|label|color\nfood|Food|#111111\nbooks\nfood|Again|#222222\n\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s = NewFromFiles(dir)
	cats, _ = s.ListCategories(context.Background())
	if len(cats) != 2 {
		t.Fatalf("unexpected cats: %v", cats)
	}
	if cats[0] != (core.Category{Key: "food", Label: "Food", Color: "#111111"}) {
		t.Errorf("unexpected first category: %+v", cats[0])
	}
	if cats[1].Label != "books" || cats[1].Color != "" {
		t.Errorf("label should default to key: %+v", cats[1])
	}
}
