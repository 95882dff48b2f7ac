// Package backend selects and opens the storage behind the activity screen:
// a SQLite or MySQL database, the Google Sheets dashboards or the in-memory
// store.
package backend

import (
	"context"
	"errors"
	"fmt"

	"activity/internal/config"
	"activity/internal/core"
	"activity/internal/stats"
)

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
	MySQLBackend  BackendType = "mysql"
)

// Types lists every supported backend.
func Types() []BackendType {
	return []BackendType{SQLiteBackend, SheetsBackend, MemoryBackend, MySQLBackend}
}

func (t BackendType) String() string { return string(t) }

func (t BackendType) IsValid() bool {
	for _, known := range Types() {
		if t == known {
			return true
		}
	}
	return false
}

// Config carries the settings of every backend; only the fields of Type are
// read.
type Config struct {
	Type BackendType

	// DataDirectory holds the memory store fixtures and the seed taxonomy
	// of a new SQLite database. It defaults to "data".
	DataDirectory string

	SQLiteDBPath string
	MySQLDSN     string

	GoogleSpreadsheetID string
	DashboardSheetName  string
}

// FromAppConfig extracts the backend settings from the application config.
func FromAppConfig(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, errors.New("app config is nil")
	}
	c := Config{
		Type:                BackendType(cfg.DataBackend),
		DataDirectory:       cfg.DataDir,
		SQLiteDBPath:        cfg.SQLiteDBPath,
		MySQLDSN:            cfg.MySQLDSN,
		GoogleSpreadsheetID: cfg.GoogleSpreadsheetID,
		DashboardSheetName:  cfg.DashboardSheetName,
	}
	if !c.Type.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", cfg.DataBackend)
	}
	return c, nil
}

// Validate checks that the setting Type depends on is present.
func (c Config) Validate() error {
	required := map[BackendType]struct{ value, name string }{
		SQLiteBackend: {c.SQLiteDBPath, "SQLite database path"},
		MySQLBackend:  {c.MySQLDSN, "MySQL DSN"},
		SheetsBackend: {c.GoogleSpreadsheetID, "Google Spreadsheet ID"},
	}
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if req, ok := required[c.Type]; ok && req.value == "" {
		return fmt.Errorf("%s is required for %s backend", req.name, c.Type)
	}
	return nil
}

func (c Config) dataDir() string {
	if c.DataDirectory == "" {
		return "data"
	}
	return c.DataDirectory
}

// CategorySeeder inserts categories that are not stored yet.
type CategorySeeder interface {
	SeedCategories(ctx context.Context, cats []core.Category) error
}

type (
	CleanupFunc func() error
	PingFunc    func(ctx context.Context) error
)

// BackendResult exposes the ports an opened backend serves.
//
// Recorder is nil for read-only backends (sheets). Seeder is only set by
// backends that keep a local taxonomy table. Ping and Cleanup are optional.
type BackendResult struct {
	Provider stats.PeriodDataProvider
	Recorder stats.OrderRecorder
	Taxonomy stats.TaxonomyReader
	Seeder   CategorySeeder
	Ping     PingFunc
	Cleanup  CleanupFunc
}

// Close runs Cleanup when set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}
