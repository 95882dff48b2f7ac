package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"activity/internal/activity"
	"activity/internal/cache"
	applog "activity/internal/log"
	"activity/internal/middleware/ratelimit"
	"activity/internal/middleware/security"
	"activity/internal/middleware/trace"
	"activity/internal/stats"
)

// ReadyFunc reports whether the backing store can serve requests.
type ReadyFunc func(ctx context.Context) error

// Options wires the server to the activity pipeline and the store.
type Options struct {
	Loader  *activity.Loader
	Builder *activity.Builder

	// Store serves taxonomy reads and order writes; see adapters.ServiceAdapter.
	Store stats.Store

	// Window is the number of browsable years.
	Window int

	// Ready is optional; nil means always ready.
	Ready ReadyFunc

	RateLimitPerMinute int
	Logger             *applog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server
	loader  *activity.Loader
	builder *activity.Builder
	store   stats.Store
	window  int
	ready   ReadyFunc
	now     func() time.Time

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	detector := security.NewDetector()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		loader:   opts.Loader,
		builder:  opts.Builder,
		store:    opts.Store,
		window:   opts.Window,
		ready:    opts.Ready,
		now:      opts.Now,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP, opts.Logger),
	}

	chartRoute := applog.ComponentMiddleware(applog.ComponentChart)
	orderRoute := applog.ComponentMiddleware(applog.ComponentOrder)

	mux := http.NewServeMux()
	mux.Handle("GET /api/activity", chartRoute(http.HandlerFunc(s.handleActivity)))
	mux.Handle("POST /api/activity/hit", chartRoute(http.HandlerFunc(s.handleHit)))
	mux.Handle("GET /api/categories", chartRoute(http.HandlerFunc(s.handleCategories)))
	mux.Handle("POST /api/orders", orderRoute(http.HandlerFunc(s.handleCreateOrder)))
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	var h http.Handler = mux
	h = s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, detector.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	}, http.MethodPost)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = detector.Middleware(h)
	h = s.tracer.Middleware(h)
	s.Handler = h

	return s
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", applog.FieldError, err.Error())
			ServiceUnavailableError("backend not ready").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}

// MetricsResponse aggregates the middleware counters and cache occupancy.
type MetricsResponse struct {
	Requests      trace.Metrics             `json:"requests"`
	RateLimit     ratelimit.Metrics         `json:"rate_limit"`
	Security      security.DetectionMetrics `json:"security"`
	CachedPeriods int                       `json:"cached_periods"`
	PeriodCache   cache.Stats               `json:"period_cache"`
	SegmentCache  cache.Stats               `json:"segment_cache"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(MetricsResponse{
		Requests:      s.tracer.GetMetrics(),
		RateLimit:     s.limiter.GetMetrics(),
		Security:      s.detector.GetMetrics(),
		CachedPeriods: s.loader.Cached(),
		PeriodCache:   s.loader.Stats(),
		SegmentCache:  s.builder.Memo.Stats(),
	}).Write(w)
}
