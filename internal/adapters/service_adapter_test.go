package adapters

import (
	"context"
	"errors"
	"testing"

	"activity/internal/core"
	"activity/internal/services"
	"activity/internal/stats/memory"
)

type invalidations struct{ periods [][2]int }

func (i *invalidations) Invalidate(year, month int) {
	i.periods = append(i.periods, [2]int{year, month})
}

func TestServiceAdapterRecordsThroughService(t *testing.T) {
	ctx := context.Background()
	store := memory.New(nil)
	inv := &invalidations{}
	a := NewServiceAdapter(store, store, services.NewOrderService(store, inv, nil))

	o := core.Order{Date: core.NewDate(2026, 2, 3), CategoryKey: "toys", Amount: core.Money{Cents: 250}, Status: core.StatusOrdered}
	if _, err := a.RecordOrder(ctx, o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inv.periods) != 1 || inv.periods[0] != [2]int{2026, 2} {
		t.Fatalf("expected invalidation of 2026-02, got %v", inv.periods)
	}

	ps, err := a.FetchPeriod(ctx, 2026, 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if ps.Counters.Ordered != 1 {
		t.Errorf("expected one ordered, got %+v", ps.Counters)
	}
	if a.ReadOnly() {
		t.Error("adapter with a service is writable")
	}
}

func TestServiceAdapterReadOnly(t *testing.T) {
	store := memory.New(nil)
	a := NewServiceAdapter(store, nil, nil)
	if !a.ReadOnly() {
		t.Fatal("expected read-only adapter")
	}
	o := core.Order{Date: core.NewDate(2026, 2, 3), CategoryKey: "toys", Amount: core.Money{Cents: 250}, Status: core.StatusOrdered}
	if _, err := a.RecordOrder(context.Background(), o); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
	cats, err := a.ListCategories(context.Background())
	if err != nil || cats == nil {
		t.Fatalf("expected empty taxonomy, got %v, %v", cats, err)
	}
}
