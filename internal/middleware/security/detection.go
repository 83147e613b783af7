package security

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"fintrack/internal/log"
)

// Finding names one reason a request looks suspicious.
type Finding string

const (
	FindingTraversal      Finding = "path_traversal"
	FindingInjection      Finding = "injection"
	FindingMalformedQuery Finding = "malformed_query"
	FindingScanner        Finding = "scanner_agent"
	FindingMethod         Finding = "unusual_method"
	FindingLongURL        Finding = "long_url"
	FindingForwardChain   Finding = "forwarded_chain"
	FindingOversizedBody  Finding = "oversized_body"
	FindingMalformedJSON  Finding = "malformed_json"
	FindingContentType    Finding = "unexpected_content_type"
)

const (
	// DefaultMaxBodyBytes bounds JSON bodies sent to the API.
	DefaultMaxBodyBytes = 1 << 20

	maxURLLength     = 2048
	maxForwardedHops = 5
	apiPrefix        = "/api/"
)

var (
	traversalPatterns = []string{"../", "..\\", "/.env", "/.git", "/.ssh", "etc/passwd"}

	injectionPatterns = []string{
		"union select", "; drop table", "' or '1'='1", "' or 1=1", "sleep(",
		"<script", "javascript:", "onerror=", "eval(",
	}

	scannerAgents = []string{
		"sqlmap", "nmap", "nikto", "gobuster", "dirb",
		"masscan", "zgrab", "nuclei", "scanner",
	}
)

// DetectionMetrics tracks security detection events
type DetectionMetrics struct {
	SuspiciousRequests int64
	RejectedRequests   int64
	InvalidIPAttempts  int64
}

// Detector inspects API requests for attack patterns and bad JSON bodies.
type Detector struct {
	metrics        *DetectionMetrics
	trustedProxies []*net.IPNet
	maxBodyBytes   int64
}

// Option configures a Detector.
type Option func(*Detector)

// WithMaxBodyBytes sets the largest JSON body accepted on write routes.
func WithMaxBodyBytes(n int64) Option {
	return func(d *Detector) {
		if n > 0 {
			d.maxBodyBytes = n
		}
	}
}

// NewDetector creates a detector trusting loopback and private networks as proxies.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		metrics:      &DetectionMetrics{},
		maxBodyBytes: DefaultMaxBodyBytes,
		trustedProxies: []*net.IPNet{
			parseCIDR("127.0.0.0/8"),
			parseCIDR("10.0.0.0/8"),
			parseCIDR("172.16.0.0/12"),
			parseCIDR("192.168.0.0/16"),
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func parseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

// DetectSuspiciousRequest reports whether Inspect found anything.
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	return len(d.Inspect(r)) > 0
}

// Inspect returns every finding for r. Query values are matched after
// percent-decoding. Bodies of API writes are read up to the size limit and
// put back so handlers still see them.
func (d *Detector) Inspect(r *http.Request) []Finding {
	var findings []Finding
	add := func(f Finding) {
		for _, seen := range findings {
			if seen == f {
				return
			}
		}
		findings = append(findings, f)
	}

	path := strings.ToLower(r.URL.Path)
	if containsAny(path, traversalPatterns) {
		add(FindingTraversal)
	}
	if containsAny(path, injectionPatterns) {
		add(FindingInjection)
	}

	if r.URL.RawQuery != "" {
		values, err := url.ParseQuery(r.URL.RawQuery)
		if err != nil {
			add(FindingMalformedQuery)
		}
		for key, vals := range values {
			for _, v := range append([]string{key}, vals...) {
				v = strings.ToLower(v)
				if containsAny(v, injectionPatterns) {
					add(FindingInjection)
				}
				if containsAny(v, traversalPatterns) {
					add(FindingTraversal)
				}
			}
		}
	}

	if containsAny(strings.ToLower(r.Header.Get("User-Agent")), scannerAgents) {
		add(FindingScanner)
	}

	switch r.Method {
	case "TRACE", "TRACK", "DEBUG", "CONNECT":
		add(FindingMethod)
	}

	if len(r.URL.String()) > maxURLLength {
		add(FindingLongURL)
	}

	if xff := r.Header.Get("X-Forwarded-For"); strings.Count(xff, ",") > maxForwardedHops {
		add(FindingForwardChain)
	}

	if f, ok := d.inspectBody(r); ok {
		add(f)
	}

	if len(findings) > 0 {
		atomic.AddInt64(&d.metrics.SuspiciousRequests, 1)
	}
	return findings
}

// inspectBody checks JSON bodies sent to API write routes.
func (d *Detector) inspectBody(r *http.Request) (Finding, bool) {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return "", false
	}
	if !strings.HasPrefix(r.URL.Path, apiPrefix) || r.Body == nil || r.Body == http.NoBody {
		return "", false
	}
	if r.ContentLength > d.maxBodyBytes {
		return FindingOversizedBody, true
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || mt != "application/json" {
			return FindingContentType, true
		}
	}

	buf, err := io.ReadAll(io.LimitReader(r.Body, d.maxBodyBytes+1))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(buf), r.Body), r.Body}
	if err != nil {
		return "", false
	}

	switch {
	case int64(len(buf)) > d.maxBodyBytes:
		return FindingOversizedBody, true
	case len(bytes.TrimSpace(buf)) == 0:
		return "", false
	case !json.Valid(buf):
		return FindingMalformedJSON, true
	}
	return "", false
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// ExtractClientIP extracts the real client IP, validating forwarded headers
func (d *Detector) ExtractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsedDirectIP := net.ParseIP(directIP)
	if parsedDirectIP == nil {
		atomic.AddInt64(&d.metrics.InvalidIPAttempts, 1)
		return directIP
	}

	// Forwarded headers are only honoured behind a trusted proxy
	if d.isTrustedProxy(parsedDirectIP) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			clientIP := strings.TrimSpace(strings.Split(xff, ",")[0])
			if net.ParseIP(clientIP) != nil {
				return clientIP
			}
		}
		if xri := r.Header.Get("X-Real-IP"); net.ParseIP(xri) != nil {
			return xri
		}
	}

	return directIP
}

func (d *Detector) isTrustedProxy(ip net.IP) bool {
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// GetMetrics returns current security metrics
func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{
		SuspiciousRequests: atomic.LoadInt64(&d.metrics.SuspiciousRequests),
		RejectedRequests:   atomic.LoadInt64(&d.metrics.RejectedRequests),
		InvalidIPAttempts:  atomic.LoadInt64(&d.metrics.InvalidIPAttempts),
	}
}

// AddTrustedProxy adds a trusted proxy network
func (d *Detector) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}

	d.trustedProxies = append(d.trustedProxies, network)
	return nil
}

// Middleware logs suspicious requests. Unusual methods get 405 and oversized
// bodies 413; everything else is passed on so handlers report their own errors.
func (d *Detector) Middleware(logger *log.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = log.Default(log.ComponentSecurity)
	}
	logger = logger.WithComponent(log.ComponentSecurity)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			findings := d.Inspect(r)
			if len(findings) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			logger.WarnContext(r.Context(), "Suspicious request detected",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, d.ExtractClientIP(r),
				log.FieldUserAgent, r.Header.Get("User-Agent"),
				"findings", findings)

			status := 0
			for _, f := range findings {
				switch f {
				case FindingMethod:
					status = http.StatusMethodNotAllowed
				case FindingOversizedBody:
					status = http.StatusRequestEntityTooLarge
				}
			}
			if status != 0 {
				atomic.AddInt64(&d.metrics.RejectedRequests, 1)
				http.Error(w, http.StatusText(status), status)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
