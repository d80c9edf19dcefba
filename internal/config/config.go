// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the configuration of the server and the worker.
type Config struct {
	Env      string // development, production
	Port     string
	LogLevel string
	Version  string

	DatabaseURL string
	DBMaxConns  int32

	JWTSecret string
	JWTTTL    time.Duration

	// Super admin created at startup when missing. Empty email disables it.
	SuperAdminUsername string
	SuperAdminEmail    string
	SuperAdminPassword string

	InvoiceDefaultPaymentStatus string
	InvoiceMaxAttempts          int

	IdempotencyEnabled bool
	IdempotencyTTL     time.Duration

	AuditCompressThreshold int

	// Outbox delivery; no brokers means events are only logged.
	KafkaBrokers       []string
	KafkaTopic         string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int

	// Redis delivery markers for the outbox relay; empty address disables them.
	RedisAddr      string
	OutboxDedupTTL time.Duration
}

// IsDevelopment reports whether the process runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

const insecureDevSecret = "dev-secret-change-me"

// Load reads the configuration from the environment.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	e := env{getenv: getenv}

	cfg := Config{
		Env:      e.str("APP_ENV", "development"),
		Port:     e.str("APP_PORT", "8080"),
		LogLevel: e.str("LOG_LEVEL", "info"),
		Version:  e.str("APP_VERSION", "dev"),

		DatabaseURL: e.str("DATABASE_URL", ""),
		DBMaxConns:  int32(e.int("DB_MAX_CONNS", 20)),

		JWTSecret: e.str("JWT_SECRET", ""),
		JWTTTL:    e.duration("JWT_TTL", time.Hour),

		SuperAdminUsername: e.str("SUPERADMIN_USERNAME", "superadmin"),
		SuperAdminEmail:    e.str("SUPERADMIN_EMAIL", ""),
		SuperAdminPassword: e.str("SUPERADMIN_PASSWORD", ""),

		InvoiceDefaultPaymentStatus: e.str("INVOICE_DEFAULT_PAYMENT_STATUS", "pending"),
		InvoiceMaxAttempts:          e.int("INVOICE_MAX_ATTEMPTS", 3),

		IdempotencyEnabled: e.bool("IDEMPOTENCY_ENABLED", true),
		IdempotencyTTL:     e.duration("IDEMPOTENCY_TTL", 24*time.Hour),

		AuditCompressThreshold: e.int("AUDIT_COMPRESS_THRESHOLD", 4096),

		KafkaBrokers:       e.list("KAFKA_BROKERS"),
		KafkaTopic:         e.str("KAFKA_TOPIC", "invoicehub.invoices"),
		OutboxPollInterval: e.duration("OUTBOX_POLL_INTERVAL", time.Second),
		OutboxBatchSize:    e.int("OUTBOX_BATCH_SIZE", 100),

		RedisAddr:      e.str("REDIS_ADDR", ""),
		OutboxDedupTTL: e.duration("OUTBOX_DEDUP_TTL", 24*time.Hour),
	}

	if len(e.errs) > 0 {
		return Config{}, errors.Join(e.errs...)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		if c.IsDevelopment() {
			c.JWTSecret = insecureDevSecret
		} else {
			errs = append(errs, errors.New("JWT_SECRET is required outside development"))
		}
	}
	if c.SuperAdminEmail != "" && c.SuperAdminPassword == "" {
		errs = append(errs, errors.New("SUPERADMIN_PASSWORD is required when SUPERADMIN_EMAIL is set"))
	}
	if c.DBMaxConns < 1 {
		errs = append(errs, errors.New("DB_MAX_CONNS must be positive"))
	}
	if c.InvoiceMaxAttempts < 1 {
		errs = append(errs, errors.New("INVOICE_MAX_ATTEMPTS must be positive"))
	}
	if c.OutboxPollInterval <= 0 {
		errs = append(errs, errors.New("OUTBOX_POLL_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}

// env collects parse errors instead of failing on the first one.
type env struct {
	getenv func(string) string
	errs   []error
}

func (e *env) str(key, def string) string {
	if v := strings.TrimSpace(e.getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *env) int(key string, def int) int {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func (e *env) bool(key string, def bool) bool {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return def
	}
	return b
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}

func (e *env) list(key string) []string {
	var out []string
	for _, part := range strings.Split(e.getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
