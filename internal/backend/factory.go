package backend

import (
	"context"
	"fmt"
	"log/slog"

	gstats "activity/internal/stats/google"
	"activity/internal/stats/memory"
	"activity/internal/stats/mysql"
	"activity/internal/storage"
)

// Factory opens the backend described by a Config.
type Factory interface {
	CreateBackend(ctx context.Context, cfg Config) (*BackendResult, error)
}

type opener func(ctx context.Context, cfg Config) (*BackendResult, error)

// DefaultFactory opens every backend in Types.
type DefaultFactory struct {
	logger  *slog.Logger
	openers map[BackendType]opener
}

// NewFactory returns a factory logging to logger, or to the slog default
// when logger is nil.
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	f := &DefaultFactory{logger: logger}
	f.openers = map[BackendType]opener{
		SQLiteBackend: f.openSQLite,
		MySQLBackend:  f.openMySQL,
		SheetsBackend: f.openSheets,
		MemoryBackend: f.openMemory,
	}
	return f
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg Config) (*BackendResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	open, ok := f.openers[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
	return open(ctx, cfg)
}

// openSQLite migrates the database and seeds the taxonomy from the data
// directory. Existing categories are kept.
func (f *DefaultFactory) openSQLite(ctx context.Context, cfg Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("open SQLite repository: %w", err)
	}
	fail := func(err error) (*BackendResult, error) {
		_ = repo.Close()
		return nil, err
	}

	seed, _ := memory.NewFromFiles(cfg.dataDir()).ListCategories(ctx)
	if err := repo.SeedCategories(ctx, seed); err != nil {
		return fail(fmt.Errorf("seed categories: %w", err))
	}
	version, err := storage.SchemaVersion(cfg.SQLiteDBPath)
	if err != nil {
		return fail(err)
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", cfg.SQLiteDBPath,
		"schema_version", version,
		"seed_categories", len(seed))
	return &BackendResult{
		Provider: repo,
		Recorder: repo,
		Taxonomy: repo,
		Seeder:   repo,
		Ping:     repo.Ping,
		Cleanup:  repo.Close,
	}, nil
}

func (f *DefaultFactory) openMySQL(ctx context.Context, cfg Config) (*BackendResult, error) {
	store, err := mysql.Open(cfg.MySQLDSN)
	if err != nil {
		return nil, fmt.Errorf("open MySQL store: %w", err)
	}
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ping MySQL: %w", err)
	}

	f.logger.Info("Initialized MySQL backend")
	return &BackendResult{
		Provider: store,
		Recorder: store,
		Taxonomy: store,
		Ping:     store.Ping,
		Cleanup:  store.Close,
	}, nil
}

// openSheets is read-only: orders are kept in the spreadsheet by hand.
func (f *DefaultFactory) openSheets(ctx context.Context, cfg Config) (*BackendResult, error) {
	client, err := gstats.New(ctx, cfg.GoogleSpreadsheetID, cfg.DashboardSheetName)
	if err != nil {
		return nil, fmt.Errorf("open Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"dashboard", cfg.DashboardSheetName)
	return &BackendResult{Provider: client, Taxonomy: client}, nil
}

func (f *DefaultFactory) openMemory(_ context.Context, cfg Config) (*BackendResult, error) {
	store := memory.NewFromFiles(cfg.dataDir())

	f.logger.Info("Initialized memory backend", "data_directory", cfg.dataDir())
	return &BackendResult{Provider: store, Recorder: store, Taxonomy: store}, nil
}
