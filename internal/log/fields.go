package log

// Attribute keys shared by every component.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldReferer     = "referer"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldOrderStatus = "order_status"
	FieldOrderRef    = "order_ref"
	FieldSegments    = "segments"
	FieldBackend     = "backend"
)

// Component names.
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentChart    = "chart"
	ComponentActivity = "activity"
	ComponentOrder    = "order"
	ComponentProvider = "provider"
	ComponentWorker   = "worker"
	ComponentBackend  = "backend"
	ComponentCLI      = "cli"
)

// Operation names.
const (
	OpRecord  = "record"
	OpFetch   = "fetch"
	OpList    = "list"
	OpHitTest = "hit_test"
	OpWarmUp  = "warm_up"
)

// LogFields is an ordered list of slog key/value pairs.
type LogFields []any

func NewFields() LogFields {
	return make(LogFields, 0, 12)
}

func (f LogFields) With(key string, value any) LogFields {
	return append(f, key, value)
}

func (f LogFields) WithClientIP(ip string) LogFields {
	return f.With(FieldClientIP, ip)
}

// WithError adds the error message; a nil error adds nothing.
func (f LogFields) WithError(err error) LogFields {
	if err == nil {
		return f
	}
	return f.With(FieldError, err.Error())
}

func (f LogFields) WithOperation(op string) LogFields {
	return f.With(FieldOperation, op)
}

func (f LogFields) WithPeriod(year, month int) LogFields {
	return append(f, FieldYear, year, FieldMonth, month)
}

func (f LogFields) WithOrder(category string, amountCents int64, status string) LogFields {
	return append(f, FieldCategory, category, FieldAmountCents, amountCents, FieldOrderStatus, status)
}

func (f LogFields) WithHTTPRequest(method, path, query string) LogFields {
	f = append(f, FieldMethod, method, FieldPath, path)
	if query != "" {
		f = f.With(FieldQuery, query)
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	return append(f, FieldStatusCode, statusCode, FieldDuration, durationMs, FieldSuccess, statusCode < 400)
}
