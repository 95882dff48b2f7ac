package log

import (
	"context"
	"log/slog"
	"net/http"
)

// StructuredLogger emits the recurring application events with a fixed set
// of fields, each under the component that owns the event.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(l *Logger) *StructuredLogger {
	if l == nil {
		l = scoped(slog.Default(), "unknown")
	}
	return &StructuredLogger{logger: l}
}

func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery).
		With(FieldUserAgent, r.UserAgent()).
		With(FieldReferer, r.Referer()).
		WithClientIP(clientIP)
	sl.logger.WithComponent(ComponentHTTP).InfoContext(ctx, "HTTP request started", fields...)
}

// LogHTTPEnd logs at Warn for 4xx and Error for 5xx responses.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery).
		WithHTTPResponse(statusCode, durationMs).
		WithClientIP(clientIP)
	sl.logger.WithComponent(ComponentHTTP).Log(ctx, level, "HTTP request completed", fields...)
}

func (sl *StructuredLogger) LogOrderRecorded(ctx context.Context, category string, amountCents int64, status, ref string) {
	fields := NewFields().
		WithOperation(OpRecord).
		WithOrder(category, amountCents, status).
		With(FieldOrderRef, ref)
	sl.logger.WithComponent(ComponentOrder).InfoContext(ctx, "Order recorded", fields...)
}

// LogPeriodFetchFailed records a provider failure that was turned into an
// empty chart.
func (sl *StructuredLogger) LogPeriodFetchFailed(ctx context.Context, year, month int, err error) {
	fields := NewFields().
		WithOperation(OpFetch).
		WithPeriod(year, month).
		WithError(err)
	sl.logger.WithComponent(ComponentProvider).WarnContext(ctx, "Period fetch failed, showing empty chart", fields...)
}

func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	all := NewFields().WithOperation(operation).WithError(err)
	all = append(all, fields...)
	sl.logger.WithComponent(component).ErrorContext(ctx, msg, all...)
}
