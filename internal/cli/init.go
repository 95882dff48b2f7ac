// Package cli provides common initialization shared by cmd/activity,
// cmd/activity-worker and cmd/activityctl.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"activity/internal/activity"
	"activity/internal/amqp"
	"activity/internal/backend"
	"activity/internal/chart"
	"activity/internal/config"
	"activity/internal/locale"
	applog "activity/internal/log"
)

// SetupLogger initializes structured logging at the configured level and
// installs it as the default logger.
func SetupLogger(w io.Writer, level, component string) *applog.Logger {
	return applog.Setup(w, level, component)
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile(files ...string) {
	_ = godotenv.Load(files...)
}

// LoadConfig reads the configuration, sets up logging at its level and
// validates it. The logger is usable even when validation fails.
func LoadConfig(w io.Writer, component string) (*config.Config, *applog.Logger, error) {
	cfg := config.Load()
	logger := SetupLogger(w, cfg.LogLevel, component)
	if err := cfg.Validate(); err != nil {
		return nil, logger, err
	}
	return cfg, logger, nil
}

// OpenBackend creates the backend selected by cfg.
func OpenBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	return res, nil
}

// NewBuilder assembles the chart pipeline from the chart, locale and cache
// settings of cfg.
func NewBuilder(cfg *config.Config) (*activity.Builder, error) {
	formatter, err := locale.NewFormatter(cfg.Locale, cfg.Currency)
	if err != nil {
		return nil, fmt.Errorf("currency formatter: %w", err)
	}
	return &activity.Builder{
		Geometry:  cfg.Geometry(),
		Formatter: formatter,
		Labels:    locale.NewLabelResolver(cfg.Locale),
		Memo:      chart.NewMemo(cfg.CacheSize, cfg.CacheTTL),
	}, nil
}

// ConnectAMQP returns a broker client when AMQP is configured. A nil client
// with a nil error means AMQP is disabled. With required unset a connection
// failure is logged and the caller continues without the broker.
func ConnectAMQP(logger *applog.Logger, cfg *config.Config, required bool) (*amqp.Client, error) {
	if !cfg.AMQPEnabled() {
		logger.Info("AMQP disabled - no AMQP_URL provided")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPOrdersQueue)
	if err != nil {
		if required {
			return nil, fmt.Errorf("connect AMQP: %w", err)
		}
		logger.Warn("Failed to initialize AMQP client, continuing without broker", applog.FieldError, err)
		return nil, nil
	}
	logger.Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPOrdersQueue)
	return client, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
	}()
	return ctx, stop
}

// RunShutdown runs each step with a shared timeout, logging failures.
func RunShutdown(logger *applog.Logger, timeout time.Duration, steps ...func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for _, step := range steps {
		if step == nil {
			continue
		}
		if err := step(ctx); err != nil {
			logger.Error("Shutdown step failed", applog.FieldError, err)
		}
	}
	if ctx.Err() != nil {
		logger.Warn("Shutdown timeout reached")
		return
	}
	logger.Info("Shutdown complete")
}

// Closer adapts a Close method to a shutdown step.
func Closer(fn func() error) func(context.Context) error {
	if fn == nil {
		return nil
	}
	return func(context.Context) error { return fn() }
}

// Fatal logs err and exits.
func Fatal(logger *applog.Logger, msg string, err error, args ...any) {
	logger.Error(msg, append([]any{applog.FieldError, err}, args...)...)
	os.Exit(1)
}
