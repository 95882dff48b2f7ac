// Package mysql serves period statistics straight from the shop's order
// database.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"activity/internal/core"
	"activity/internal/stats"

	_ "github.com/go-sql-driver/mysql"
)

const dateLayout = "2006-01-02 15:04:05"

const (
	categoriesQuery = `SELECT category_key, label, color FROM categories ORDER BY position, category_key`

	// Amounts stay NULL for categories without orders; the chart aggregator
	// treats unparseable values as zero.
	periodQuery = `
		SELECT c.category_key, c.label, c.color, SUM(o.amount_cents) / 100 AS amount
		FROM categories c
		LEFT JOIN orders o
		  ON o.category_key = c.category_key
		 AND o.ordered_at >= ? AND o.ordered_at < ?
		GROUP BY c.category_key, c.label, c.color, c.position
		ORDER BY c.position, c.category_key`

	countersQuery = `
		SELECT status, COUNT(*)
		FROM orders
		WHERE ordered_at >= ? AND ordered_at < ?
		GROUP BY status`

	insertOrderQuery = `
		INSERT INTO orders (ordered_at, reference, category_key, amount_cents, status)
		VALUES (?, ?, ?, ?, ?)`
)

type Store struct {
	db *sql.DB
}

var _ stats.Store = (*Store)(nil)

// Open accepts mysql:// and mariadb:// URLs as well as native driver DSNs.
func Open(dsn string) (*Store, error) {
	mysqlDSN, err := toMySQLDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{db: db}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pass, _ = u.User.Password()
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("incomplete dsn (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	return dsn, nil
}

// monthBounds returns [start, end) of year/month in UTC, formatted as DATETIME.
func monthBounds(year, month int) (string, string) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start.Format(dateLayout), start.AddDate(0, 1, 0).Format(dateLayout)
}

func (s *Store) FetchPeriod(ctx context.Context, year int, month int) (core.PeriodStats, error) {
	if month < 1 || month > 12 {
		return core.PeriodStats{}, core.ErrInvalidMonth
	}
	from, to := monthBounds(year, month)
	out := core.PeriodStats{Year: year, Month: month}

	rows, err := s.db.QueryContext(ctx, periodQuery, from, to)
	if err != nil {
		return core.PeriodStats{}, fmt.Errorf("query period: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			c     core.RawCategory
			color sql.NullString
		)
		if err := rows.Scan(&c.Key, &c.Label, &color, &c.Amount); err != nil {
			return core.PeriodStats{}, fmt.Errorf("scan period row: %w", err)
		}
		c.Color = color.String
		out.Categories = append(out.Categories, c)
	}
	if err := rows.Err(); err != nil {
		return core.PeriodStats{}, fmt.Errorf("iterate period rows: %w", err)
	}

	counters, err := s.db.QueryContext(ctx, countersQuery, from, to)
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
			return core.PeriodStats{}, fmt.Errorf("scan counter row: %w", err)
		}
		addCounter(&out.Counters, core.OrderStatus(status), n)
	}
	if err := counters.Err(); err != nil {
		return core.PeriodStats{}, fmt.Errorf("iterate counter rows: %w", err)
	}
	return out, nil
}

func addCounter(c *core.Counters, status core.OrderStatus, n int) {
	switch status {
	case core.StatusOrdered:
		c.Ordered += n
	case core.StatusReceived:
		c.Received += n
	case core.StatusToReceive:
		c.ToReceive += n
	}
}

func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx, categoriesQuery)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()
	var out []core.Category
	for rows.Next() {
		var (
			c     core.Category
			color sql.NullString
		)
		if err := rows.Scan(&c.Key, &c.Label, &color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Color = color.String
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) RecordOrder(ctx context.Context, o core.Order) (string, error) {
	if err := o.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	res, err := s.db.ExecContext(ctx, insertOrderQuery,
		o.Date.UTC().Format(dateLayout), o.Reference, o.CategoryKey, o.Amount.Cents, string(o.Status))
	if err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("last insert id: %w", err)
	}
	return fmt.Sprintf("mysql:%d", id), nil
}
