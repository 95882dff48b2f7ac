package services

import (
	"context"
	"fmt"
	"log/slog"

	"activity/internal/core"
	applog "activity/internal/log"
	"activity/internal/stats"
)

type (
	// PeriodInvalidator drops locally cached statistics.
	PeriodInvalidator interface {
		Invalidate(year, month int)
	}

	// InvalidationPublisher notifies other instances that a period changed.
	InvalidationPublisher interface {
		PublishPeriodInvalidated(ctx context.Context, year, month int) error
	}
)

// OrderService records orders and keeps period caches coherent.
type OrderService struct {
	recorder    stats.OrderRecorder
	invalidator PeriodInvalidator
	publisher   InvalidationPublisher
}

// NewOrderService wires the recorder with optional cache invalidation and
// broker notification; nil collaborators are skipped.
func NewOrderService(recorder stats.OrderRecorder, invalidator PeriodInvalidator, publisher InvalidationPublisher) *OrderService {
	return &OrderService{
		recorder:    recorder,
		invalidator: invalidator,
		publisher:   publisher,
	}
}

// RecordOrder validates and stores o, then invalidates its period. A failed
// broker notification is logged, not returned: the order is already stored.
func (s *OrderService) RecordOrder(ctx context.Context, o core.Order) (string, error) {
	if err := o.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if s.recorder == nil {
		return "", fmt.Errorf("order recording not supported by this backend")
	}
	ref, err := s.recorder.RecordOrder(ctx, o)
	if err != nil {
		return "", fmt.Errorf("record order: %w", err)
	}

	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogOrderRecorded(ctx, o.CategoryKey, o.Amount.Cents, string(o.Status), ref)

	year, month := o.Date.Year(), o.Date.Month()
	if s.invalidator != nil {
		s.invalidator.Invalidate(year, month)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishPeriodInvalidated(ctx, year, month); err != nil {
			slog.ErrorContext(ctx, "Failed to publish period invalidation",
				"year", year,
				"month", month,
				"ref", ref,
				"error", err)
		}
	}
	return ref, nil
}
