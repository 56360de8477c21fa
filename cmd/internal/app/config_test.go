package app

import (
	"strings"
	"testing"
	"time"

	"resumegate/cmd/security/token"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"RG_HTTP_ADDR", "RG_STORE", "RG_STORE_SWEEP_INTERVAL", "RG_DATABASE_URL", "RG_REDIS_ADDR", "RG_DECISION_TTL", "RG_REDIS_DB"} {
		t.Setenv(k, "")
	}
	t.Setenv("RG_SITE_ORIGIN", "https://example.com/")

	cfg := LoadConfig()
	if cfg.HTTPAddr != "0.0.0.0:8080" {
		t.Fatalf("HTTPAddr=%q", cfg.HTTPAddr)
	}
	if cfg.DecisionTTL != token.DefaultTTL || cfg.RecordTTL != 30*24*time.Hour {
		t.Fatalf("unexpected ttls: %v %v", cfg.DecisionTTL, cfg.RecordTTL)
	}
	if cfg.SiteOrigin != "https://example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.SiteOrigin)
	}
	if cfg.StoreSweepInterval != 10*time.Minute {
		t.Fatalf("StoreSweepInterval=%v", cfg.StoreSweepInterval)
	}
	if cfg.AttachmentKey != "resume.pdf" {
		t.Fatalf("AttachmentKey=%q", cfg.AttachmentKey)
	}
	if cfg.StoreBackend() != StoreMemory {
		t.Fatalf("expected memory backend by default, got %q", cfg.StoreBackend())
	}
}

func TestConfig_StoreBackend(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"explicit", Config{Store: StoreRedis, DatabaseURL: "postgres://x"}, StoreRedis},
		{"postgres wins", Config{DatabaseURL: "postgres://x", RedisAddr: "localhost:6379"}, StorePostgres},
		{"redis", Config{RedisAddr: "localhost:6379"}, StoreRedis},
		{"memory", Config{}, StoreMemory},
	}
	for _, tc := range cases {
		if got := tc.cfg.StoreBackend(); got != tc.want {
			t.Fatalf("%s: StoreBackend()=%q want %q", tc.name, got, tc.want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	base := testConfig(t)
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"missing secret", func(c *Config) { c.TokenSecret = "" }, "RG_TOKEN_SECRET is required"},
		{"short secret", func(c *Config) { c.TokenSecret = strings.Repeat("x", 31) }, "too short"},
		{"relative origin", func(c *Config) { c.SiteOrigin = "example.com" }, "RG_SITE_ORIGIN"},
		{"no approver", func(c *Config) { c.ApproverEmail = "" }, "RG_APPROVER_EMAIL"},
		{"unknown store", func(c *Config) { c.Store = "dynamo" }, "RG_STORE must be one of"},
		{"redis without addr", func(c *Config) { c.Store = StoreRedis }, "RG_REDIS_ADDR"},
		{"no attachment", func(c *Config) { c.AttachmentURL = "" }, "RG_ATTACHMENT_URL or RG_S3_BUCKET"},
		{"two attachments", func(c *Config) { c.S3Bucket = "b" }, "only one"},
	}
	for _, tc := range cases {
		cfg := base
		tc.mutate(&cfg)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), tc.wantSub) {
			t.Fatalf("%s: expected error containing %q, got %v", tc.name, tc.wantSub, err)
		}
	}
}

func TestEnvInt_KeepsZero(t *testing.T) {
	t.Setenv("RG_TEST_INT", "0")
	if got := EnvInt("RG_TEST_INT", 3); got != 0 {
		t.Fatalf("EnvInt=%d want 0", got)
	}
	t.Setenv("RG_TEST_INT", "-2")
	if got := EnvInt("RG_TEST_INT", 3); got != 3 {
		t.Fatalf("EnvInt=%d want default 3", got)
	}
}
