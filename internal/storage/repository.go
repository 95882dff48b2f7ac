package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"activity/internal/core"
	"activity/internal/stats"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

var _ stats.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SeedCategories inserts the given categories, keeping existing rows. The
// slice order becomes the display position of new entries.
func (r *SQLiteRepository) SeedCategories(ctx context.Context, cats []core.Category) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()
	for i, c := range cats {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO categories (category_key, label, color, position) VALUES (?, ?, ?, ?)`,
			c.Key, c.Label, c.Color, i); err != nil {
			return fmt.Errorf("seed category %s: %w", c.Key, err)
		}
	}
	return tx.Commit()
}

// RecordOrder stores the order. Unknown category keys are registered on the
// fly with the key as label.
func (r *SQLiteRepository) RecordOrder(ctx context.Context, o core.Order) (string, error) {
	if err := o.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO categories (category_key, label, position)
		 VALUES (?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM categories))`,
		o.CategoryKey, o.CategoryKey); err != nil {
		return "", fmt.Errorf("ensure category: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (ordered_at, reference, category_key, amount_cents, status) VALUES (?, ?, ?, ?, ?)`,
		o.Date.Format(dateLayout), o.Reference, o.CategoryKey, o.Amount.Cents, string(o.Status))
	if err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit order: %w", err)
	}

	slog.InfoContext(ctx, "Order saved to SQLite",
		"id", id,
		"category", o.CategoryKey,
		"amount_cents", o.Amount.Cents,
		"status", o.Status,
		"date", o.Date.Format(dateLayout))

	return strconv.FormatInt(id, 10), nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category_key, label, color FROM categories ORDER BY position, category_key`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.Key, &c.Label, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FetchPeriod returns every category with its month total, zero included, and
// the order counters of the month.
func (r *SQLiteRepository) FetchPeriod(ctx context.Context, year int, month int) (core.PeriodStats, error) {
	if month < 1 || month > 12 {
		return core.PeriodStats{}, core.ErrInvalidMonth
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	from, to := start.Format(dateLayout), start.AddDate(0, 1, 0).Format(dateLayout)
	out := core.PeriodStats{Year: year, Month: month}

	rows, err := r.db.QueryContext(ctx, `
		SELECT c.category_key, c.label, c.color, SUM(o.amount_cents)
		FROM categories c
		LEFT JOIN orders o
		  ON o.category_key = c.category_key
		 AND o.ordered_at >= ? AND o.ordered_at < ?
		GROUP BY c.category_key
		ORDER BY c.position, c.category_key`, from, to)
	if err != nil {
		return core.PeriodStats{}, fmt.Errorf("query category sums: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			c     core.RawCategory
			cents sql.NullInt64
		)
		if err := rows.Scan(&c.Key, &c.Label, &c.Color, &cents); err != nil {
			return core.PeriodStats{}, fmt.Errorf("scan category sum: %w", err)
		}
		c.Amount = core.Money{Cents: cents.Int64}
		out.Categories = append(out.Categories, c)
	}
	if err := rows.Err(); err != nil {
		return core.PeriodStats{}, fmt.Errorf("iterate category sums: %w", err)
	}

	counters, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM orders WHERE ordered_at >= ? AND ordered_at < ? GROUP BY status`, from, to)
	if err != nil {
		return core.PeriodStats{}, fmt.Errorf("query counters: %w", err)
	}
	defer counters.Close()
	for counters.Next() {
		var (
			status string
			n      int
		)
		if err := counters.Scan(&status, &n); err != nil {
			return core.PeriodStats{}, fmt.Errorf("scan counter: %w", err)
		}
		for i := 0; i < n; i++ {
			out.Counters.Add(core.OrderStatus(status))
		}
	}
	if err := counters.Err(); err != nil {
		return core.PeriodStats{}, fmt.Errorf("iterate counters: %w", err)
	}
	return out, nil
}
