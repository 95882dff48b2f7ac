package stats

import (
	"context"

	"activity/internal/core"
)

// Ports for outbound adapters.
type (
	// PeriodDataProvider returns the raw per-category statistics of a month.
	PeriodDataProvider interface {
		// FetchPeriod returns categories and order counters for year and month (1-12).
		FetchPeriod(ctx context.Context, year int, month int) (core.PeriodStats, error)
	}

	// CurrencyFormatter renders an amount in the user's currency and locale.
	CurrencyFormatter interface {
		Format(amount float64) string
	}

	// CategoryLabelResolver localizes a category key, falling back to the
	// provider label when no translation exists.
	CategoryLabelResolver interface {
		Resolve(key, fallback string) string
	}

	OrderRecorder interface {
		RecordOrder(ctx context.Context, o core.Order) (ref string, err error)
	}

	TaxonomyReader interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
	}
)

// Store is implemented by backends that both serve statistics and accept orders.
type Store interface {
	PeriodDataProvider
	OrderRecorder
	TaxonomyReader
}
