package adapters

import (
	"context"
	"errors"

	"activity/internal/core"
	"activity/internal/services"
	"activity/internal/stats"
)

// ErrReadOnly is returned by RecordOrder when the backend cannot store orders.
var ErrReadOnly = errors.New("backend is read-only")

// ServiceAdapter adapts a backend and the OrderService to stats.Store, so
// writes made through the HTTP handlers also invalidate cached periods.
type ServiceAdapter struct {
	provider stats.PeriodDataProvider
	taxonomy stats.TaxonomyReader
	service  *services.OrderService
}

var _ stats.Store = (*ServiceAdapter)(nil)

// NewServiceAdapter wraps the backend ports. service may be nil for
// read-only backends.
func NewServiceAdapter(provider stats.PeriodDataProvider, taxonomy stats.TaxonomyReader, service *services.OrderService) *ServiceAdapter {
	return &ServiceAdapter{
		provider: provider,
		taxonomy: taxonomy,
		service:  service,
	}
}

// FetchPeriod implements stats.PeriodDataProvider
func (a *ServiceAdapter) FetchPeriod(ctx context.Context, year int, month int) (core.PeriodStats, error) {
	return a.provider.FetchPeriod(ctx, year, month)
}

// ListCategories implements stats.TaxonomyReader
func (a *ServiceAdapter) ListCategories(ctx context.Context) ([]core.Category, error) {
	if a.taxonomy == nil {
		return []core.Category{}, nil
	}
	return a.taxonomy.ListCategories(ctx)
}

// RecordOrder implements stats.OrderRecorder
func (a *ServiceAdapter) RecordOrder(ctx context.Context, o core.Order) (string, error) {
	if a.service == nil {
		return "", ErrReadOnly
	}
	return a.service.RecordOrder(ctx, o)
}

// ReadOnly reports whether orders are rejected.
func (a *ServiceAdapter) ReadOnly() bool {
	return a.service == nil
}
