package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"activity/internal/activity"
	"activity/internal/adapters"
	"activity/internal/amqp"
	"activity/internal/cache"
	"activity/internal/cli"
	apphttp "activity/internal/http"
	applog "activity/internal/log"
	"activity/internal/services"
)

const warmUpConcurrency = 4

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, logger, err := cli.LoadConfig(os.Stdout, applog.ComponentApp)
	if err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()
	ctx = applog.NewContext(ctx, logger)

	res, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err, applog.FieldBackend, cfg.DataBackend)
	}

	builder, err := cli.NewBuilder(cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize chart builder", err)
	}
	loader := activity.NewLoader(res.Provider, cfg.CacheSize, cfg.CacheTTL)

	go cache.NewManager(loader.Cleaner(), builder.Memo.Cleaner()).Run(ctx, time.Minute)

	amqpClient, _ := cli.ConnectAMQP(logger, cfg, false)

	var orders *services.OrderService
	if res.Recorder != nil {
		var publisher services.InvalidationPublisher
		if amqpClient != nil {
			publisher = amqpClient
		}
		orders = services.NewOrderService(res.Recorder, loader, publisher)
	} else {
		logger.Info("Backend is read-only, POST /api/orders disabled", applog.FieldBackend, cfg.DataBackend)
	}

	if amqpClient != nil {
		go consumeInvalidations(ctx, logger, amqpClient, cfg.AMQPInvalidationQueue, loader)
	}

	go func() {
		now := time.Now()
		december := time.Date(now.Year(), time.December, 1, 0, 0, 0, 0, time.UTC)
		if err := loader.WarmUp(ctx, december, cfg.YearWindow*12, warmUpConcurrency); err != nil {
			logger.Warn("Cache warm-up incomplete", applog.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Loader:             loader,
		Builder:            builder,
		Store:              adapters.NewServiceAdapter(res.Provider, res.Taxonomy, orders),
		Window:             cfg.YearWindow,
		Ready:              apphttp.ReadyFunc(res.Ping),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger.WithComponent(applog.ComponentHTTP),
	})

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting activity server",
			"port", cfg.Port,
			applog.FieldBackend, cfg.DataBackend,
			"amqp_enabled", amqpClient != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		}
	}
	stop()

	var closeAMQP func() error
	if amqpClient != nil {
		closeAMQP = amqpClient.Close
	}
	cli.RunShutdown(logger, 30*time.Second,
		srv.Shutdown,
		cli.Closer(closeAMQP),
		cli.Closer(res.Close),
	)
}

// consumeInvalidations drops cached periods announced by other instances
// and by the worker.
func consumeInvalidations(ctx context.Context, logger *applog.Logger, client *amqp.Client, queue string, loader *activity.Loader) {
	err := client.ConsumeInvalidations(ctx, queue, func(ctx context.Context, msg *amqp.PeriodInvalidatedMessage) error {
		loader.Invalidate(msg.Year, msg.Month)
		logger.Debug("Period invalidated",
			applog.FieldYear, msg.Year,
			applog.FieldMonth, msg.Month)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Invalidation consumer stopped", applog.FieldError, err)
	}
}
