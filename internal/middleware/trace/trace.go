// Package trace tags each request with an ID, logs its start and end, and
// keeps request counters for the metrics endpoint.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"sync/atomic"
	"time"

	applog "activity/internal/log"
)

type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"

	// HeaderRequestID carries the request ID in both directions.
	HeaderRequestID = "X-Request-ID"
)

// Incoming IDs are echoed only when they are safe to log and to send back.
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

type Metrics struct {
	TotalRequests       int64 `json:"total_requests"`
	ServerErrors        int64 `json:"server_errors"`
	AverageResponseTime int64 `json:"average_response_time_us"`
}

type Middleware struct {
	clientIP func(*http.Request) string
	logger   *applog.Logger

	requests     atomic.Int64
	serverErrors atomic.Int64
	busyMicros   atomic.Int64
}

// NewMiddleware logs through logger, or through the slog default under the
// http component when logger is nil.
func NewMiddleware(clientIP func(*http.Request) string, logger *applog.Logger) *Middleware {
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentHTTP, Handler: slog.Default().Handler()})
	}
	if clientIP == nil {
		clientIP = func(r *http.Request) string { return r.RemoteAddr }
	}
	return &Middleware{clientIP: clientIP, logger: logger}
}

// Middleware stores the request ID and a logger carrying it in the request
// context; handlers retrieve them with GetRequestID and applog.FromContext.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := requestIDOf(r)
		w.Header().Set(HeaderRequestID, id)

		logger := m.logger.With(applog.FieldRequestID, id)
		ctx := applog.NewContext(context.WithValue(r.Context(), RequestIDKey, id), logger)
		r = r.WithContext(ctx)
		ip := m.clientIP(r)

		events := applog.NewStructuredLogger(logger)
		events.LogHTTPStart(ctx, r, ip)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		m.record(sw.status, elapsed)
		events.LogHTTPEnd(ctx, r, sw.status, elapsed.Milliseconds(), ip)
	})
}

func requestIDOf(r *http.Request) string {
	if id := r.Header.Get(HeaderRequestID); validRequestID.MatchString(id) {
		return id
	}
	return GenerateRequestID()
}

func (m *Middleware) record(status int, elapsed time.Duration) {
	m.requests.Add(1)
	m.busyMicros.Add(elapsed.Microseconds())
	if status >= http.StatusInternalServerError {
		m.serverErrors.Add(1)
	}
}

// statusWriter remembers the first status written.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(code int) {
	if w.written {
		return
	}
	w.status, w.written = code, true
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

// GenerateRequestID returns "req_" followed by 16 random hex digits.
func GenerateRequestID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "req_" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return "req_" + hex.EncodeToString(b[:])
}

func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func (m *Middleware) GetMetrics() Metrics {
	out := Metrics{
		TotalRequests: m.requests.Load(),
		ServerErrors:  m.serverErrors.Load(),
	}
	if out.TotalRequests > 0 {
		out.AverageResponseTime = m.busyMicros.Load() / out.TotalRequests
	}
	return out
}
