package requestapi

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestIPLimiter_BurstThenRefill(t *testing.T) {
	now := time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)
	// Two per five minutes: one token every 2m30s, burst of two.
	l := newIPLimiter(2, 5*time.Minute)

	if ok, _ := l.Allow("1.2.3.4", now); !ok {
		t.Fatalf("first event should pass")
	}
	if ok, _ := l.Allow("1.2.3.4", now); !ok {
		t.Fatalf("second event should pass within the burst")
	}

	ok, retry := l.Allow("1.2.3.4", now.Add(time.Minute))
	if ok {
		t.Fatalf("third event should be limited")
	}
	// 1m of the 2m30s refill has elapsed.
	if retry < 89*time.Second || retry > 91*time.Second {
		t.Fatalf("expected retry about 1m30s, got %v", retry)
	}

	// Rejections do not push the next slot further out.
	for i := 0; i < 5; i++ {
		if ok, _ := l.Allow("1.2.3.4", now.Add(time.Minute)); ok {
			t.Fatalf("repeated event should still be limited")
		}
	}
	if ok, _ := l.Allow("1.2.3.4", now.Add(time.Minute+retry+time.Second)); !ok {
		t.Fatalf("event after Retry-After should pass")
	}

	if ok, _ := l.Allow("5.6.7.8", now.Add(time.Minute)); !ok {
		t.Fatalf("other IPs are independent")
	}
}

func TestIPLimiter_Disabled(t *testing.T) {
	l := newIPLimiter(0, time.Minute)
	if l != nil {
		t.Fatalf("expected nil limiter for limit=0")
	}
	for i := 0; i < 100; i++ {
		if ok, _ := l.Allow("1.2.3.4", time.Now()); !ok {
			t.Fatalf("disabled limiter must allow everything")
		}
	}
}

func TestIPLimiter_PrunesIdleKeys(t *testing.T) {
	now := time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)
	l := newIPLimiter(1, time.Minute)

	l.Allow("idle", now)
	later := now.Add(time.Hour)
	for i := 0; i < 256; i++ {
		l.Allow("busy", later)
	}

	l.mu.Lock()
	_, idle := l.buckets["idle"]
	l.mu.Unlock()
	if idle {
		t.Fatalf("expected idle key to be pruned")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		xff        string
		realIP     string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", remote: "10.0.0.1:5555", want: "10.0.0.1"},
		{name: "xff ignored without trust", remote: "10.0.0.1:5555", xff: "203.0.113.9", want: "10.0.0.1"},
		{name: "xff first valid", remote: "10.0.0.1:5555", xff: "junk, 203.0.113.9, 10.0.0.2", trustProxy: true, want: "203.0.113.9"},
		{name: "real ip fallback", remote: "10.0.0.1:5555", realIP: "198.51.100.7", trustProxy: true, want: "198.51.100.7"},
		{name: "unparseable", remote: "nonsense", want: ""},
	}

	for _, tc := range tests {
		r := httptest.NewRequest("POST", "/api/resume-request", nil)
		r.RemoteAddr = tc.remote
		if tc.xff != "" {
			r.Header.Set("X-Forwarded-For", tc.xff)
		}
		if tc.realIP != "" {
			r.Header.Set("X-Real-IP", tc.realIP)
		}
		got := clientIP(r, tc.trustProxy)
		gotStr := ""
		if got != nil {
			gotStr = got.String()
		}
		if gotStr != tc.want {
			t.Fatalf("%s: clientIP=%q, want %q", tc.name, gotStr, tc.want)
		}
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("RG_MAX_BODY_BYTES", "-1")
	t.Setenv("RG_SUBMIT_IP_MAX", "0")
	t.Setenv("RG_SUBMIT_IP_WINDOW", "nope")
	t.Setenv("RG_TRUST_PROXY", "true")

	cfg := LoadConfigFromEnv()
	if cfg.MaxBodyBytes != 64<<10 {
		t.Fatalf("expected default body limit, got %d", cfg.MaxBodyBytes)
	}
	if cfg.SubmitIPMax != 0 {
		t.Fatalf("expected limit disabled, got %d", cfg.SubmitIPMax)
	}
	if cfg.SubmitIPWindow != 10*time.Minute {
		t.Fatalf("expected default window, got %v", cfg.SubmitIPWindow)
	}
	if !cfg.TrustProxy {
		t.Fatalf("expected TrustProxy=true")
	}
}
