package security

import (
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig())
	handler := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		"Cache-Control":           "no-store",
	}
	for name, value := range want {
		if got := rec.Header().Get(name); got != value {
			t.Errorf("%s = %q, want %q", name, got, value)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS should only be sent over TLS")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Errorf("HSTS = %q", got)
	}
}

func TestDetector_Inspect(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		agent  string
		want   Finding
	}{
		{"normal", http.MethodGet, "/api/transactions?category=Alimentation", "Mozilla/5.0", ""},
		{"accented query", http.MethodGet, "/api/transactions?category=Sant%C3%A9", "", ""},
		{"path traversal", http.MethodGet, "/api/../../etc/passwd", "", FindingTraversal},
		{"dotenv", http.MethodGet, "/.env", "", FindingTraversal},
		{"encoded sql injection", http.MethodGet, "/api/transactions?q=1%20union%20select", "", FindingInjection},
		{"plus encoded sql injection", http.MethodGet, "/api/transactions?q=1+UNION+SELECT+*", "", FindingInjection},
		{"encoded script", http.MethodGet, "/api/transactions?category=%3Cscript%3Ealert(1)", "", FindingInjection},
		{"encoded traversal in query", http.MethodGet, "/api/transactions?file=..%2F..%2Fetc%2Fpasswd", "", FindingTraversal},
		{"malformed query", http.MethodGet, "/api/transactions?q=%zz", "", FindingMalformedQuery},
		{"scanner agent", http.MethodGet, "/", "sqlmap/1.7", FindingScanner},
		{"trace method", "TRACE", "/", "", FindingMethod},
		{"long url", http.MethodGet, "/api/transactions?q=" + strings.Repeat("a", 2100), "", FindingLongURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector()
			req := httptest.NewRequest(tt.method, "/", nil)
			req.URL.Path = tt.target
			if i := strings.IndexByte(tt.target, '?'); i >= 0 {
				req.URL.Path = tt.target[:i]
				req.URL.RawQuery = tt.target[i+1:]
			}
			req.Header.Set("User-Agent", tt.agent)

			findings := d.Inspect(req)
			if tt.want == "" {
				if len(findings) != 0 {
					t.Errorf("Inspect() = %v, want none", findings)
				}
				if d.DetectSuspiciousRequest(req) {
					t.Error("DetectSuspiciousRequest() = true, want false")
				}
				return
			}
			if !hasFinding(findings, tt.want) {
				t.Errorf("Inspect() = %v, want %s", findings, tt.want)
			}
		})
	}
}

func TestDetector_InspectForwardedChain(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("X-Forwarded-For", "1.1.1.1, 2.2.2.2, 3.3.3.3, 4.4.4.4, 5.5.5.5, 6.6.6.6, 7.7.7.7")
	if findings := NewDetector().Inspect(req); !hasFinding(findings, FindingForwardChain) {
		t.Errorf("Inspect() = %v, want %s", findings, FindingForwardChain)
	}
}

func TestDetector_InspectBody(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		body        string
		want        Finding
	}{
		{"valid json", http.MethodPost, "/api/transactions", "application/json", `{"type":"expense"}`, ""},
		{"json with charset", http.MethodPatch, "/api/budgets/b1", "application/json; charset=utf-8", `{"limit":"10"}`, ""},
		{"no content type", http.MethodPost, "/api/budgets", "", `{"limit":"10"}`, ""},
		{"empty body", http.MethodPost, "/api/suggestions/x/apply", "", "", ""},
		{"malformed json", http.MethodPost, "/api/transactions", "application/json", `{"type":`, FindingMalformedJSON},
		{"oversized", http.MethodPost, "/api/transactions", "application/json", `{"description":"` + strings.Repeat("x", 64) + `"}`, FindingOversizedBody},
		{"form body", http.MethodPost, "/api/transactions", "application/x-www-form-urlencoded", "type=expense", FindingContentType},
		{"outside api", http.MethodPost, "/healthz", "text/plain", "not json", ""},
		{"read only method", http.MethodDelete, "/api/data", "text/plain", "not json", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector(WithMaxBodyBytes(48))
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			findings := d.Inspect(req)
			if tt.want == "" && len(findings) != 0 {
				t.Errorf("Inspect() = %v, want none", findings)
			}
			if tt.want != "" && !hasFinding(findings, tt.want) {
				t.Errorf("Inspect() = %v, want %s", findings, tt.want)
			}

			rest, err := io.ReadAll(req.Body)
			if err != nil {
				t.Fatalf("read body after Inspect: %v", err)
			}
			if string(rest) != tt.body {
				t.Errorf("body after Inspect = %q, want %q", rest, tt.body)
			}
		})
	}
}

func TestDetector_InspectChunkedOversizedBody(t *testing.T) {
	d := NewDetector(WithMaxBodyBytes(16))
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(`{"description":"much too long for the limit"}`))
	req.ContentLength = -1

	if findings := d.Inspect(req); !hasFinding(findings, FindingOversizedBody) {
		t.Errorf("Inspect() = %v, want %s", findings, FindingOversizedBody)
	}
}

func hasFinding(findings []Finding, want Finding) bool {
	for _, f := range findings {
		if f == want {
			return true
		}
	}
	return false
}

func TestDetector_ExtractClientIP(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct", "203.0.113.9:5000", "", "203.0.113.9"},
		{"trusted proxy", "10.0.0.2:5000", "198.51.100.4, 10.0.0.2", "198.51.100.4"},
		{"untrusted proxy ignored", "203.0.113.9:5000", "198.51.100.4", "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := d.ExtractClientIP(req); got != tt.want {
				t.Errorf("ExtractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetector_MiddlewareRejectsTrace(t *testing.T) {
	d := NewDetector()
	called := false
	handler := d.Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("TRACE", "/", nil))
	if rec.Code != http.StatusMethodNotAllowed || called {
		t.Errorf("TRACE: status = %d, called = %v", rec.Code, called)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/.git/config", nil))
	if !called {
		t.Error("suspicious GET should still be served")
	}
	if d.GetMetrics().SuspiciousRequests != 2 {
		t.Errorf("SuspiciousRequests = %d, want 2", d.GetMetrics().SuspiciousRequests)
	}
}

func TestDetector_MiddlewareBodies(t *testing.T) {
	d := NewDetector(WithMaxBodyBytes(32))
	var got string
	handler := d.Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = string(b)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(strings.Repeat("a", 64))))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized: status = %d, want 413", rec.Code)
	}
	if got != "" {
		t.Error("oversized body should not reach the handler")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(`{"type":`)))
	if rec.Code != http.StatusOK || got != `{"type":` {
		t.Errorf("malformed json: status = %d, body seen = %q; want it passed through", rec.Code, got)
	}

	m := d.GetMetrics()
	if m.SuspiciousRequests != 2 || m.RejectedRequests != 1 {
		t.Errorf("metrics = %+v, want 2 suspicious and 1 rejected", m)
	}
}
