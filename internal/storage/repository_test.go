package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"activity/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "activity.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.SeedCategories(ctx, []core.Category{
		{Key: "electronics", Label: "Electronics", Color: "#4F7CFF"},
		{Key: "groceries", Label: "Groceries", Color: "#2EC4B6"},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Seeding twice keeps existing rows.
	if err := repo.SeedCategories(ctx, []core.Category{{Key: "electronics", Label: "Other"}}); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	orders := []core.Order{
		{Date: core.NewDate(2026, 3, 1), CategoryKey: "electronics", Amount: core.Money{Cents: 12000}, Status: core.StatusReceived},
		{Date: core.NewDate(2026, 3, 31), CategoryKey: "electronics", Amount: core.Money{Cents: 3000}, Status: core.StatusOrdered},
		{Date: core.NewDate(2026, 3, 15), CategoryKey: "books", Amount: core.Money{Cents: 1550}, Status: core.StatusToReceive},
		{Date: core.NewDate(2026, 4, 1), CategoryKey: "groceries", Amount: core.Money{Cents: 999}, Status: core.StatusOrdered},
	}
	for _, o := range orders {
		ref, err := repo.RecordOrder(ctx, o)
		if err != nil || ref == "" {
			t.Fatalf("record: ref=%q err=%v", ref, err)
		}
	}

	cats, err := repo.ListCategories(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cats) != 3 || cats[0].Label != "Electronics" || cats[2].Key != "books" {
		t.Fatalf("unexpected categories: %+v", cats)
	}

	ps, err := repo.FetchPeriod(ctx, 2026, 3)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	want := map[string]int64{"electronics": 15000, "groceries": 0, "books": 1550}
	if len(ps.Categories) != len(want) {
		t.Fatalf("unexpected categories: %+v", ps.Categories)
	}
	for _, c := range ps.Categories {
		m, ok := c.Amount.(core.Money)
		if !ok || m.Cents != want[c.Key] {
			t.Errorf("category %s: got %#v, want %d cents", c.Key, c.Amount, want[c.Key])
		}
	}
	if ps.Counters != (core.Counters{Ordered: 1, Received: 1, ToReceive: 1}) {
		t.Errorf("unexpected counters: %+v", ps.Counters)
	}
}

func TestRepositoryRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.RecordOrder(ctx, core.Order{Date: core.NewDate(2026, 1, 1), CategoryKey: "x", Amount: core.Money{Cents: 100}, Status: "lost"})
	if !errors.Is(err, core.ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
	if _, err := repo.FetchPeriod(ctx, 2026, 0); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected invalid month, got %v", err)
	}
	ps, err := repo.FetchPeriod(ctx, 2026, 1)
	if err != nil || !ps.Empty() {
		t.Fatalf("expected empty period, got %+v err=%v", ps, err)
	}
}

func TestSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.db")
	v, err := SchemaVersion(path)
	if err != nil || v != 0 {
		t.Fatalf("fresh database: version=%d err=%v", v, err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Applying again is a no-op.
	if err := RunMigrations(path); err != nil {
		t.Fatalf("migrate twice: %v", err)
	}
	if v, err := SchemaVersion(path); err != nil || v != 1 {
		t.Fatalf("migrated database: version=%d err=%v", v, err)
	}
}
