package app

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"resumegate/cmd/internal/mail"
	"resumegate/cmd/security/token"
)

// Store backends selectable with RG_STORE.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string
	LogFile   string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// TokenSecret is the raw shared secret; it is never logged.
	TokenSecret string
	DecisionTTL time.Duration
	RecordTTL   time.Duration

	ApproverEmail string
	MailFrom      string
	SiteOrigin    string
	CORSOrigin    string

	// Store is memory, redis or postgres. Empty picks from the configured connection settings.
	Store         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// StoreSweepInterval is how often expired records are purged from memory and Postgres stores.
	StoreSweepInterval time.Duration

	DatabaseURL string
	DBSchema    string
	DBMaxConns  int32
	DBMinConns  int32

	AttachmentURL  string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	AttachmentKey  string
	AttachmentName string

	MailAPIURL string
	MailAPIKey string
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("RG_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("RG_LOG_LEVEL", "info"),
		LogFormat: EnvString("RG_LOG_FORMAT", "json"),
		LogFile:   EnvString("RG_LOG_FILE", ""),

		ReadHeaderTimeout: EnvDuration("RG_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("RG_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("RG_HTTP_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       EnvDuration("RG_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("RG_HTTP_MAX_HEADER_BYTES", 1<<20),

		TokenSecret: EnvString(token.SecretEnvKey, ""),
		DecisionTTL: EnvDuration("RG_DECISION_TTL", token.DefaultTTL),
		RecordTTL:   EnvDuration("RG_RECORD_TTL", 30*24*time.Hour),

		ApproverEmail: EnvString("RG_APPROVER_EMAIL", ""),
		MailFrom:      EnvString("RG_MAIL_FROM", ""),
		SiteOrigin:    strings.TrimRight(EnvString("RG_SITE_ORIGIN", ""), "/"),
		CORSOrigin:    EnvString("RG_CORS_ORIGIN", ""),

		Store:         strings.ToLower(EnvString("RG_STORE", "")),
		RedisAddr:     EnvString("RG_REDIS_ADDR", ""),
		RedisPassword: EnvString("RG_REDIS_PASSWORD", ""),
		RedisDB:       EnvInt("RG_REDIS_DB", 0),
		RedisPrefix:   EnvString("RG_REDIS_PREFIX", "resumegate:"),

		StoreSweepInterval: EnvDuration("RG_STORE_SWEEP_INTERVAL", 10*time.Minute),

		DatabaseURL: EnvString("RG_DATABASE_URL", ""),
		DBSchema:    EnvString("RG_DB_SCHEMA", "resumegate"),
		DBMaxConns:  EnvInt32("RG_DB_MAX_CONNS", 4),
		DBMinConns:  EnvInt32("RG_DB_MIN_CONNS", 0),

		AttachmentURL:  EnvString("RG_ATTACHMENT_URL", ""),
		S3Bucket:       EnvString("RG_S3_BUCKET", ""),
		S3Region:       EnvString("RG_S3_REGION", ""),
		S3Endpoint:     EnvString("RG_S3_ENDPOINT", ""),
		AttachmentKey:  EnvString("RG_ATTACHMENT_KEY", "resume.pdf"),
		AttachmentName: EnvString("RG_ATTACHMENT_NAME", ""),

		MailAPIURL: EnvString("RG_MAIL_API_URL", mail.DefaultEndpoint),
		MailAPIKey: EnvString("RG_MAIL_API_KEY", ""),
	}
}

// StoreBackend resolves which store to use. An explicit RG_STORE wins; otherwise
// Postgres beats Redis and memory is the fallback.
func (c Config) StoreBackend() string {
	if c.Store != "" {
		return c.Store
	}
	switch {
	case c.DatabaseURL != "":
		return StorePostgres
	case c.RedisAddr != "":
		return StoreRedis
	default:
		return StoreMemory
	}
}

// Validate fails fast on settings the server cannot run without.
func (c Config) Validate() error {
	var errs []error

	if err := ValidateSecurityConfig(c); err != nil {
		errs = append(errs, err)
	}
	if c.ApproverEmail == "" {
		errs = append(errs, errors.New("RG_APPROVER_EMAIL is required"))
	}
	if c.MailFrom == "" {
		errs = append(errs, errors.New("RG_MAIL_FROM is required"))
	}
	if u, err := url.Parse(c.SiteOrigin); c.SiteOrigin == "" || err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, errors.New("RG_SITE_ORIGIN must be an absolute URL"))
	}

	switch c.StoreBackend() {
	case StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("RG_STORE=redis requires RG_REDIS_ADDR"))
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("RG_STORE=postgres requires RG_DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("RG_STORE must be one of memory, redis, postgres (got %q)", c.Store))
	}

	if c.AttachmentURL == "" && c.S3Bucket == "" {
		errs = append(errs, errors.New("one of RG_ATTACHMENT_URL or RG_S3_BUCKET is required"))
	}
	if c.AttachmentURL != "" && c.S3Bucket != "" {
		errs = append(errs, errors.New("set only one of RG_ATTACHMENT_URL and RG_S3_BUCKET"))
	}
	if strings.TrimSpace(c.AttachmentKey) == "" {
		errs = append(errs, errors.New("RG_ATTACHMENT_KEY is required"))
	}

	return errors.Join(errs...)
}
