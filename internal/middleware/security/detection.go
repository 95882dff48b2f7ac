// Package security holds the HTTP guards in front of the API: response
// hardening headers, scanner detection and proxy-aware client addresses.
package security

import (
	"fmt"
	"net/http"
	"net/netip"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	applog "activity/internal/log"
)

const maxURLLength = 2048

var (
	probeFragments = []string{
		"../", "..\\", ".env", ".git", ".ssh", "wp-admin", "phpmyadmin",
		"<script", "union select", "etc/passwd",
	}
	scannerAgents = []string{"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan"}
	// rejectedMethods never reach the router.
	rejectedMethods = []string{"TRACE", "TRACK", "DEBUG", "CONNECT"}

	privateNetworks = []string{"127.0.0.0/8", "::1/128", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
)

type DetectionMetrics struct {
	SuspiciousRequests int64 `json:"suspicious_requests"`
	InvalidIPAttempts  int64 `json:"invalid_ip_attempts"`
}

// Detector flags scanner-like requests and resolves client addresses,
// trusting forwarding headers only from configured proxy networks.
type Detector struct {
	mu      sync.RWMutex
	proxies []netip.Prefix

	suspicious atomic.Int64
	invalidIP  atomic.Int64
}

// NewDetector trusts loopback and private networks as proxies.
func NewDetector() *Detector {
	d := &Detector{}
	for _, cidr := range privateNetworks {
		d.proxies = append(d.proxies, netip.MustParsePrefix(cidr))
	}
	return d
}

// AddTrustedProxy trusts forwarding headers sent from cidr.
func (d *Detector) AddTrustedProxy(cidr string) error {
	p, err := netip.ParsePrefix(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.mu.Lock()
	d.proxies = append(d.proxies, p.Masked())
	d.mu.Unlock()
	return nil
}

// suspicionOf names the first rule r trips, or returns "" for a clean request.
func suspicionOf(r *http.Request) string {
	if slices.Contains(rejectedMethods, r.Method) {
		return "method"
	}
	if len(r.URL.String()) > maxURLLength {
		return "url_length"
	}
	target := strings.ToLower(r.URL.Path + "?" + r.URL.RawQuery)
	if containsAny(target, probeFragments) {
		return "probe"
	}
	if containsAny(strings.ToLower(r.UserAgent()), scannerAgents) {
		return "scanner"
	}
	return ""
}

func containsAny(s string, fragments []string) bool {
	return slices.ContainsFunc(fragments, func(f string) bool { return strings.Contains(s, f) })
}

// DetectSuspiciousRequest reports and counts scanner-like requests.
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	if suspicionOf(r) == "" {
		return false
	}
	d.suspicious.Add(1)
	return true
}

// Middleware logs suspicious requests and answers 405 to rejected methods.
// Other suspicious requests continue so the router can 404 or 400 them.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reason := suspicionOf(r)
		if reason == "" {
			next.ServeHTTP(w, r)
			return
		}
		d.suspicious.Add(1)
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request detected",
			"reason", reason,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, d.ExtractClientIP(r),
			applog.FieldUserAgent, r.UserAgent())
		if reason == "method" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ExtractClientIP returns the peer address, or the address a trusted proxy
// forwarded in X-Forwarded-For (first hop) or X-Real-IP.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	peer := r.RemoteAddr
	if ap, err := netip.ParseAddrPort(peer); err == nil {
		peer = ap.Addr().String()
	}
	addr, err := netip.ParseAddr(peer)
	if err != nil {
		d.invalidIP.Add(1)
		return peer
	}
	if !d.trusted(addr.Unmap()) {
		return peer
	}

	forwarded := []string{r.Header.Get("X-Real-IP")}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		forwarded = append([]string{first}, forwarded...)
	}
	for _, v := range forwarded {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, err := netip.ParseAddr(v); err == nil {
			return v
		}
		d.invalidIP.Add(1)
	}
	return peer
}

func (d *Detector) trusted(addr netip.Addr) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.ContainsFunc(d.proxies, func(p netip.Prefix) bool { return p.Contains(addr) })
}

func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{
		SuspiciousRequests: d.suspicious.Load(),
		InvalidIPAttempts:  d.invalidIP.Load(),
	}
}
