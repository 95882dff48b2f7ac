package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"activity/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("LOCALE", "it-IT")
	t.Setenv("CURRENCY", "EUR")
	return config.Load()
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("ACTIVITY_TEST_VALUE=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ACTIVITY_TEST_VALUE", "")
	os.Unsetenv("ACTIVITY_TEST_VALUE")

	LoadEnvFile(path)
	if got := os.Getenv("ACTIVITY_TEST_VALUE"); got != "from-dotenv" {
		t.Fatalf("expected value from .env, got %q", got)
	}
}

func TestNewBuilder(t *testing.T) {
	cfg := testConfig(t)
	b, err := NewBuilder(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Geometry != cfg.Geometry() || b.Memo == nil {
		t.Fatalf("builder not wired from config: %+v", b)
	}
	if got := b.Labels.Resolve("home", "Home"); got != "Casa" {
		t.Errorf("expected Italian label, got %q", got)
	}

	cfg.Currency = "XYZ1"
	if _, err := NewBuilder(cfg); err == nil {
		t.Error("expected error for invalid currency")
	}
}

func TestOpenBackendMemory(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&buf, "debug", "test")
	res, err := OpenBackend(context.Background(), logger, testConfig(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer res.Close()
	if res.Provider == nil || res.Recorder == nil {
		t.Fatal("memory backend ports missing")
	}
	if !strings.Contains(buf.String(), "Initialized memory backend") {
		t.Errorf("expected backend log line, got %q", buf.String())
	}
}

func TestConnectAMQPDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&buf, "info", "test")
	cfg := testConfig(t)
	cfg.AMQPURL = ""
	client, err := ConnectAMQP(logger, cfg, true)
	if client != nil || err != nil {
		t.Fatalf("expected disabled broker, got %v, %v", client, err)
	}
}

func TestRunShutdown(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&buf, "info", "test")
	var order []string
	RunShutdown(logger, time.Second,
		func(context.Context) error { order = append(order, "server"); return nil },
		nil,
		Closer(func() error { order = append(order, "store"); return errors.New("close failed") }),
		Closer(nil),
	)
	if strings.Join(order, ",") != "server,store" {
		t.Fatalf("unexpected order %v", order)
	}
	out := buf.String()
	if !strings.Contains(out, "Shutdown step failed") || !strings.Contains(out, "Shutdown complete") {
		t.Fatalf("unexpected log output %q", out)
	}
}

func TestLoadConfig(t *testing.T) {
	testConfig(t)
	t.Setenv("LOG_LEVEL", "debug")
	var buf bytes.Buffer
	cfg, logger, err := LoadConfig(&buf, "test")
	if err != nil || cfg == nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Debug("debug enabled")
	if !strings.Contains(buf.String(), "debug enabled") {
		t.Errorf("LOG_LEVEL not applied: %q", buf.String())
	}

	t.Setenv("PORT", "not-a-port")
	cfg, logger, err = LoadConfig(&buf, "test")
	if err == nil || cfg != nil {
		t.Fatal("expected validation error")
	}
	if logger == nil {
		t.Fatal("logger must be returned with the validation error")
	}
}
