package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"resumegate/cmd/security/token"
)

func testConfig(t *testing.T) Config {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "resume.pdf"), []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatalf("write resume: %v", err)
	}

	return Config{
		HTTPAddr:      "127.0.0.1:0",
		TokenSecret:   "app-test-secret-0123456789abcdef0123",
		DecisionTTL:   token.DefaultTTL,
		RecordTTL:     30 * 24 * time.Hour,
		ApproverEmail: "me@example.com",
		MailFrom:      "bot@example.com",
		SiteOrigin:    "https://example.com",
		Store:         StoreMemory,
		AttachmentURL: "file://" + filepath.ToSlash(dir),
		AttachmentKey: "resume.pdf",
	}
}

func discardLogger() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestApp_EndToEndWiring(t *testing.T) {
	cfg := testConfig(t)
	cfg.CORSOrigin = "https://site.example.com"

	a, err := New(context.Background(), cfg, discardLogger())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = a.backends.Close() })

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)

	// health + readiness
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
		if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
			t.Fatalf("%s: missing security headers", path)
		}
	}

	// intake through the whole chain
	resp, err := http.Post(srv.URL+"/api/resume-request", "application/json",
		strings.NewReader(`{"name":"Ada","email":"ada@example.com","company":"Engines","reason":"Hiring"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"ok":true`) {
		t.Fatalf("intake: %d %s", resp.StatusCode, body)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://site.example.com" {
		t.Fatalf("intake: allow-origin=%q", got)
	}

	// unknown request id
	codec, err := token.NewCodec([]byte(cfg.TokenSecret))
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	raw, err := codec.Issue("01UNKNOWNREQUEST", token.ActionDeny, time.Now(), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	resp, err = http.Get(srv.URL + "/api/resume-decision?token=" + raw)
	if err != nil {
		t.Fatalf("decision: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("decision: expected 404, got %d", resp.StatusCode)
	}

	// metrics reflect the traffic above
	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	for _, want := range []string{
		`resumegate_requests_submitted_total{result="ok"} 1`,
		`resumegate_decisions_total{outcome="not_found"} 1`,
		`resumegate_mail_sent_total{kind="notification",result="ok"} 1`,
		`resumegate_http_request_duration_seconds_count{method="POST",route="/api/resume-request",status_class="2xx"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.TokenSecret = "short"

	if _, err := New(context.Background(), cfg, discardLogger()); err == nil {
		t.Fatalf("expected config error")
	}
}

func TestRouteLabel(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"/healthz":                     "/healthz",
		"/api/resume-decision":         "/api/resume-decision",
		"/api/resume-request":          "/api/resume-request",
		"/wp-admin/../../../etc":       "other",
		"/api/resume-decision/extra/x": "other",
	}
	for path, want := range cases {
		r := httptest.NewRequest(http.MethodGet, "http://x"+path, nil)
		r.URL.Path = path
		if got := routeLabel(r); got != want {
			t.Fatalf("routeLabel(%q)=%q want=%q", path, got, want)
		}
	}
}
