package requestapi

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls request API behavior.
type Config struct {
	TrustProxy   bool
	MaxBodyBytes int64

	// SubmitIPMax submissions per SubmitIPWindow are allowed from one client IP. Zero disables the limit.
	SubmitIPMax    int
	SubmitIPWindow time.Duration
}

const defaultMaxBodyBytes = 64 << 10

// DefaultConfig returns the defaults used when no env overrides are present.
func DefaultConfig() Config {
	return Config{
		MaxBodyBytes:   defaultMaxBodyBytes,
		SubmitIPMax:    5,
		SubmitIPWindow: 10 * time.Minute,
	}
}

// LoadConfigFromEnv loads request API config from environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	def := DefaultConfig()
	cfg := Config{
		TrustProxy:     envBool("RG_TRUST_PROXY", false),
		MaxBodyBytes:   envInt64("RG_MAX_BODY_BYTES", def.MaxBodyBytes),
		SubmitIPMax:    envInt("RG_SUBMIT_IP_MAX", def.SubmitIPMax),
		SubmitIPWindow: envDuration("RG_SUBMIT_IP_WINDOW", def.SubmitIPWindow),
	}
	return cfg.normalized()
}

func (c Config) normalized() Config {
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	if c.SubmitIPMax < 0 {
		c.SubmitIPMax = 0
	}
	if c.SubmitIPWindow <= 0 {
		c.SubmitIPWindow = 10 * time.Minute
	}
	return c
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// envInt accepts 0 so the submit limit can be switched off.
func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
