package main

import (
	"context"
	"errors"
	"os"
	"time"

	"activity/internal/backend"
	"activity/internal/cli"
	"activity/internal/config"
	applog "activity/internal/log"
	"activity/internal/services"
	"activity/internal/stats"
	gstats "activity/internal/stats/google"
	"activity/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, logger, err := cli.LoadConfig(os.Stdout, applog.ComponentWorker)
	if err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}
	if !cfg.AMQPEnabled() {
		cli.Fatal(logger, "Worker requires AMQP", errors.New("AMQP_URL is not set"))
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()
	ctx = applog.NewContext(ctx, logger)

	res, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err, applog.FieldBackend, cfg.DataBackend)
	}
	if res.Recorder == nil {
		cli.Fatal(logger, "Backend cannot record orders", errors.New("read-only backend"), applog.FieldBackend, cfg.DataBackend)
	}

	amqpClient, err := cli.ConnectAMQP(logger, cfg, true)
	if err != nil {
		cli.Fatal(logger, "Failed to connect to AMQP", err)
	}

	// Server instances drop their cached copy of the period on invalidation.
	orders := services.NewOrderService(res.Recorder, nil, amqpClient)

	ingest := worker.NewIngestWorker(orders, taxonomySource(ctx, logger, cfg, res), res.Seeder)
	if err := ingest.SyncCategories(ctx); err != nil {
		logger.Warn("Category sync failed, continuing with stored taxonomy", applog.FieldError, err)
	}

	logger.Info("Starting ingest worker",
		applog.FieldBackend, cfg.DataBackend,
		"queue", cfg.AMQPOrdersQueue)

	err = amqpClient.ConsumeOrders(ctx, ingest.HandleOrderMessage)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Order consumer stopped", applog.FieldError, err)
	}

	cli.RunShutdown(logger, 10*time.Second,
		cli.Closer(amqpClient.Close),
		cli.Closer(res.Close),
	)
}

// taxonomySource prefers the spreadsheet when one is configured so a local
// store picks up categories edited there.
func taxonomySource(ctx context.Context, logger *applog.Logger, cfg *config.Config, res *backend.BackendResult) stats.TaxonomyReader {
	if cfg.GoogleSpreadsheetID == "" || cfg.DataBackend == string(backend.SheetsBackend) {
		return res.Taxonomy
	}
	client, err := gstats.New(ctx, cfg.GoogleSpreadsheetID, cfg.DashboardSheetName)
	if err != nil {
		logger.Warn("Spreadsheet taxonomy unavailable, using backend taxonomy", applog.FieldError, err)
		return res.Taxonomy
	}
	return client
}
