// Package config reads the settings shared by the activity binaries from
// the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"activity/internal/chart"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

var validBackends = []string{"memory", "sqlite", "sheets", "mysql"}

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Backend selection
	DataBackend  string
	DataDir      string
	SQLiteDBPath string
	MySQLDSN     string

	// AMQP, disabled when AMQPURL is empty
	AMQPURL               string
	AMQPExchange          string
	AMQPOrdersQueue       string
	AMQPInvalidationQueue string

	// Google Sheets
	GoogleSpreadsheetID string
	DashboardSheetName  string

	// Chart
	YearWindow       int
	ChartSize        float64
	ChartOuterRadius float64
	ChartStrokeWidth float64
	ChartPadding     float64

	// Locale
	Locale   string
	Currency string

	// Cache
	CacheTTL  time.Duration
	CacheSize int

	LogLevel string
}

func Load() *Config {
	g := chart.DefaultGeometry()
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/activity.db"),
		MySQLDSN:     getEnv("MYSQL_DSN", ""),

		AMQPURL:               getEnv("AMQP_URL", ""),
		AMQPExchange:          getEnv("AMQP_EXCHANGE", "activity"),
		AMQPOrdersQueue:       getEnv("AMQP_ORDERS_QUEUE", "activity_orders"),
		AMQPInvalidationQueue: getEnv("AMQP_INVALIDATION_QUEUE", ""),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		DashboardSheetName:  getEnv("DASHBOARD_SHEET_NAME", "Dashboard"),

		YearWindow:       getEnvInt("CHART_YEAR_WINDOW", 3),
		ChartSize:        getEnvFloat("CHART_SIZE", g.Size),
		ChartOuterRadius: getEnvFloat("CHART_OUTER_RADIUS", g.OuterRadius),
		ChartStrokeWidth: getEnvFloat("CHART_STROKE_WIDTH", g.StrokeWidth),
		ChartPadding:     getEnvFloat("CHART_PADDING", g.Padding),

		Locale:   getEnv("LOCALE", "en"),
		Currency: getEnv("CURRENCY", "EUR"),

		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheSize: getEnvInt("CACHE_SIZE", 64),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

// Geometry returns the chart layout configured for the view.
func (c *Config) Geometry() chart.Geometry {
	return chart.Geometry{
		Size:        c.ChartSize,
		OuterRadius: c.ChartOuterRadius,
		StrokeWidth: c.ChartStrokeWidth,
		Padding:     c.ChartPadding,
	}
}

// AMQPEnabled reports whether a broker is configured.
func (c *Config) AMQPEnabled() bool {
	return strings.TrimSpace(c.AMQPURL) != ""
}

// problems collects every validation failure so they are reported together.
type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

// Validate checks every setting and reports all failures at once.
func (c *Config) Validate() error {
	var p problems
	c.validateServer(&p)
	c.validateBackend(&p)
	c.validateAMQP(&p)
	c.validateChart(&p)
	c.validateLocale(&p)
	if len(p) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(p, "\n- "))
	}
	return nil
}

func (c *Config) validateServer(p *problems) {
	port, err := strconv.Atoi(c.Port)
	switch {
	case err != nil:
		p.addf("invalid port '%s': must be a number", c.Port)
	case port < 1 || port > 65535:
		p.addf("invalid port %d: must be between 1 and 65535", port)
	}
	if c.RateLimitPerMinute < 1 {
		p.addf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute)
	}
}

func (c *Config) validateBackend(p *problems) {
	if !slices.Contains(validBackends, c.DataBackend) {
		p.addf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends)
		return
	}
	missing := func(value, msg string) {
		if value == "" {
			p.addf("%s", msg)
		}
	}
	switch c.DataBackend {
	case "sqlite":
		missing(c.SQLiteDBPath, "SQLite database path cannot be empty when using sqlite backend")
	case "mysql":
		missing(c.MySQLDSN, "MYSQL_DSN is required when using mysql backend")
	case "sheets":
		missing(c.GoogleSpreadsheetID, "Google Spreadsheet ID is required when using sheets backend")
		missing(c.DashboardSheetName, "dashboard sheet name is required when using sheets backend")
	}
}

func (c *Config) validateAMQP(p *problems) {
	if !c.AMQPEnabled() {
		return
	}
	u, err := url.Parse(c.AMQPURL)
	switch {
	case err != nil:
		p.addf("invalid AMQP URL '%s': %v", c.AMQPURL, err)
	case u.Scheme != "amqp" && u.Scheme != "amqps":
		p.addf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme)
	}
	if c.AMQPExchange == "" {
		p.addf("AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	if c.AMQPOrdersQueue == "" {
		p.addf("AMQP orders queue name cannot be empty when AMQP URL is provided")
	}
}

func (c *Config) validateChart(p *problems) {
	if c.YearWindow < 1 || c.YearWindow > 50 {
		p.addf("invalid year window %d: must be between 1 and 50", c.YearWindow)
	}
	if c.ChartSize <= 0 {
		p.addf("invalid chart size %v: must be positive", c.ChartSize)
	}
	if c.ChartOuterRadius <= 0 || 2*c.ChartOuterRadius > c.ChartSize {
		p.addf("invalid outer radius %v: must be positive and fit in chart size %v", c.ChartOuterRadius, c.ChartSize)
	}
	if c.ChartStrokeWidth < 0 || c.ChartPadding < 0 {
		p.addf("chart stroke width and padding must not be negative")
	}
	if c.CacheSize < 1 {
		p.addf("invalid cache size %d: must be at least 1", c.CacheSize)
	}
	if c.CacheTTL < 0 {
		p.addf("invalid cache TTL %v: must not be negative", c.CacheTTL)
	}
}

func (c *Config) validateLocale(p *problems) {
	if _, err := language.Parse(c.Locale); err != nil {
		p.addf("invalid locale '%s': %v", c.Locale, err)
	}
	if c.Currency == "" {
		return
	}
	if _, err := currency.ParseISO(c.Currency); err != nil {
		p.addf("invalid currency '%s': %v", c.Currency, err)
	}
}

// envOr returns the parsed value of key, or def when it is unset or does
// not parse.
func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

func getEnv(key, def string) string {
	return envOr(key, def, func(s string) (string, error) { return s, nil })
}

func getEnvInt(key string, def int) int {
	return envOr(key, def, strconv.Atoi)
}

func getEnvFloat(key string, def float64) float64 {
	return envOr(key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	return envOr(key, def, time.ParseDuration)
}
