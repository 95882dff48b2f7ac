package log

import (
	"context"
	"log/slog"
	"net/http"
)

type ContextKey string

// LoggerContextKey holds the request-scoped *Logger.
const LoggerContextKey ContextKey = "logger"

// NewContext returns a copy of ctx carrying l.
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, l)
}

// FromContext returns the logger stored in ctx, or the slog default tagged
// with the "unknown" component.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(LoggerContextKey).(*Logger); ok && l != nil {
		return l
	}
	return scoped(slog.Default(), "unknown")
}

// ComponentMiddleware retags the request logger with component for the
// wrapped handler.
func ComponentMiddleware(component string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := NewContext(r.Context(), FromContext(r.Context()).WithComponent(component))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
