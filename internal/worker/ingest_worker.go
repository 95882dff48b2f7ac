package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"activity/internal/amqp"
	"activity/internal/core"
	"activity/internal/stats"
)

type (
	// OrderRecorder stores validated orders; services.OrderService in production.
	OrderRecorder interface {
		RecordOrder(ctx context.Context, o core.Order) (string, error)
	}

	// CategorySeeder inserts categories that are not stored yet.
	CategorySeeder interface {
		SeedCategories(ctx context.Context, cats []core.Category) error
	}
)

// IngestWorker turns queued order messages into stored orders.
type IngestWorker struct {
	orders   OrderRecorder
	taxonomy stats.TaxonomyReader
	seeder   CategorySeeder
}

// NewIngestWorker wires the worker. taxonomy and seeder may be nil, in which
// case SyncCategories is a no-op.
func NewIngestWorker(orders OrderRecorder, taxonomy stats.TaxonomyReader, seeder CategorySeeder) *IngestWorker {
	return &IngestWorker{
		orders:   orders,
		taxonomy: taxonomy,
		seeder:   seeder,
	}
}

// HandleOrderMessage processes a single order message from AMQP. Invalid
// orders are wrapped in amqp.ErrRejected so they are dropped instead of
// requeued forever.
func (w *IngestWorker) HandleOrderMessage(ctx context.Context, msg *amqp.OrderRecordedMessage) error {
	slog.InfoContext(ctx, "Processing order message",
		"reference", msg.Reference,
		"category", msg.CategoryKey,
		"amount_cents", msg.AmountCents)

	order, err := msg.Order()
	if err != nil {
		return fmt.Errorf("%w: %v", amqp.ErrRejected, err)
	}

	ref, err := w.orders.RecordOrder(ctx, order)
	if err != nil {
		if errors.Is(err, core.ErrInvalidAmount) || errors.Is(err, core.ErrInvalidStatus) || errors.Is(err, core.ErrEmptyCategory) {
			return fmt.Errorf("%w: %v", amqp.ErrRejected, err)
		}
		return fmt.Errorf("record order: %w", err)
	}

	slog.InfoContext(ctx, "Successfully ingested order",
		"reference", msg.Reference,
		"ref", ref,
		"timestamp", msg.Timestamp)
	return nil
}

// SyncCategories copies the upstream taxonomy into the local store so that
// categories without orders still show up with a zero amount.
func (w *IngestWorker) SyncCategories(ctx context.Context) error {
	if w.taxonomy == nil || w.seeder == nil {
		slog.InfoContext(ctx, "No taxonomy source configured, skipping category sync")
		return nil
	}
	cats, err := w.taxonomy.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	if err := w.seeder.SeedCategories(ctx, cats); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	slog.InfoContext(ctx, "Categories successfully synced", "count", len(cats))
	return nil
}
