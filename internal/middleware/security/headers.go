package security

import (
	"net/http"
	"strconv"
)

// HeadersConfig lists the hardening headers sent with every response. Empty
// values are not sent. HSTS is only sent over TLS and only when HSTSMaxAge
// is positive.
type HeadersConfig struct {
	CSP                   string
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	XFrameOptions         string
	XContentTypeOptions   string
	ReferrerPolicy        string
	CrossOriginResource   string
	CacheControl          string
}

// DefaultHeadersConfig suits a JSON API that is never framed or cached.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:                   "default-src 'none'; frame-ancestors 'none'",
		HSTSMaxAge:            365 * 24 * 60 * 60,
		HSTSIncludeSubdomains: true,
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "no-referrer",
		CrossOriginResource:   "same-origin",
		CacheControl:          "no-store",
	}
}

func (c HeadersConfig) fixed() http.Header {
	h := http.Header{}
	for name, v := range map[string]string{
		"Content-Security-Policy":      c.CSP,
		"X-Frame-Options":              c.XFrameOptions,
		"X-Content-Type-Options":       c.XContentTypeOptions,
		"Referrer-Policy":              c.ReferrerPolicy,
		"Cross-Origin-Resource-Policy": c.CrossOriginResource,
		"Cache-Control":                c.CacheControl,
	} {
		if v != "" {
			h.Set(name, v)
		}
	}
	return h
}

func (c HeadersConfig) hsts() string {
	if c.HSTSMaxAge <= 0 {
		return ""
	}
	v := "max-age=" + strconv.Itoa(c.HSTSMaxAge)
	if c.HSTSIncludeSubdomains {
		v += "; includeSubDomains"
	}
	return v
}

// HeadersMiddleware stamps the configured headers on responses.
type HeadersMiddleware struct {
	headers http.Header
	hsts    string
}

func NewHeadersMiddleware(cfg HeadersConfig) *HeadersMiddleware {
	return &HeadersMiddleware{headers: cfg.fixed(), hsts: cfg.hsts()}
}

func (m *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for name, values := range m.headers {
			h[name] = append([]string(nil), values...)
		}
		if r.TLS != nil && m.hsts != "" {
			h.Set("Strict-Transport-Security", m.hsts)
		}
		next.ServeHTTP(w, r)
	})
}
