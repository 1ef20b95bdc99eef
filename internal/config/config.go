// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes the settings of the
// booking API: server timeouts, logging, the database connection, the
// notification queue and mailer, localization, rate limiting and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "nutrition-booking")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects and tunes the relational store.
type DBConfig struct {
	Driver      string        // DB_DRIVER: sqlite|postgres
	Path        string        // DB_PATH (sqlite file)
	URL         string        // DATABASE_URL (postgres DSN)
	Tracing     bool          // DB_TRACING: attach the GORM OpenTelemetry plugin
	MaxOpen     int           // DB_MAX_OPEN_CONNS
	MaxIdle     int           // DB_MAX_IDLE_CONNS
	ConnMaxLife time.Duration // DB_CONN_MAX_LIFETIME
}

// NotifyConfig controls how appointment notifications are queued and consumed.
type NotifyConfig struct {
	Backend       string // NOTIFY_BACKEND: log|asynq
	RedisAddr     string // REDIS_ADDR
	RedisPassword string // REDIS_PASSWORD
	RedisDB       int    // REDIS_DB
	Queue         string // NOTIFY_QUEUE
	MaxRetry      int    // NOTIFY_MAX_RETRY
	Worker        bool   // NOTIFY_WORKER: run the consumer inside the API process
	Concurrency   int    // NOTIFY_CONCURRENCY
}

// MailConfig defines how notification e-mails leave the system.
type MailConfig struct {
	Backend  string // MAIL_BACKEND: log|smtp
	SMTPAddr string // SMTP_ADDR host:port
	SMTPUser string // SMTP_USER
	SMTPPass string // SMTP_PASSWORD
	From     string // MAIL_FROM
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DB DBConfig

	// Notifications
	Notify NotifyConfig
	Mail   MailConfig

	// Localization
	DefaultLocale string // en|fr|pt

	// Listings
	DefaultPerPage int // page size when per_page is absent
	MaxPerPage     int // upper bound for per_page

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/")),

		// Storage
		DB: DBConfig{
			Driver:      strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:        getenv("DB_PATH", "booking.db"),
			URL:         getenv("DATABASE_URL", ""),
			Tracing:     getbool("DB_TRACING", false),
			MaxOpen:     getint("DB_MAX_OPEN_CONNS", 25),
			MaxIdle:     getint("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLife: getdur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},

		// Notifications
		Notify: NotifyConfig{
			Backend:       strings.ToLower(getenv("NOTIFY_BACKEND", "log")),
			RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisDB:       getint("REDIS_DB", 0),
			Queue:         getenv("NOTIFY_QUEUE", "email_notifications"),
			MaxRetry:      getint("NOTIFY_MAX_RETRY", 5),
			Worker:        getbool("NOTIFY_WORKER", false),
			Concurrency:   getint("NOTIFY_CONCURRENCY", 5),
		},
		Mail: MailConfig{
			Backend:  strings.ToLower(getenv("MAIL_BACKEND", "log")),
			SMTPAddr: getenv("SMTP_ADDR", "localhost:1025"),
			SMTPUser: getenv("SMTP_USER", ""),
			SMTPPass: getenv("SMTP_PASSWORD", ""),
			From:     getenv("MAIL_FROM", "noreply@nutrium.com"),
		},

		// Localization
		DefaultLocale: strings.ToLower(getenv("DEFAULT_LOCALE", "en")),

		// Listings
		DefaultPerPage: getint("DEFAULT_PER_PAGE", 10),
		MaxPerPage:     getint("MAX_PER_PAGE", 100),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "nutrition-booking"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.URL) == "" {
			return cfg, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if cfg.DB.MaxOpen < 1 || cfg.DB.MaxIdle < 0 {
		return cfg, errors.New("DB_MAX_OPEN_CONNS must be >= 1 and DB_MAX_IDLE_CONNS >= 0")
	}
	switch cfg.Notify.Backend {
	case "log":
	case "asynq":
		if strings.TrimSpace(cfg.Notify.RedisAddr) == "" {
			return cfg, errors.New("REDIS_ADDR is required when NOTIFY_BACKEND=asynq")
		}
	default:
		return cfg, errors.New("NOTIFY_BACKEND must be one of: log, asynq")
	}
	if cfg.Notify.Worker && cfg.Notify.Backend != "asynq" {
		return cfg, errors.New("NOTIFY_WORKER requires NOTIFY_BACKEND=asynq")
	}
	if strings.TrimSpace(cfg.Notify.Queue) == "" {
		return cfg, errors.New("NOTIFY_QUEUE must not be empty")
	}
	if cfg.Notify.MaxRetry < 0 {
		return cfg, errors.New("NOTIFY_MAX_RETRY must be >= 0")
	}
	if cfg.Notify.Concurrency < 1 {
		return cfg, errors.New("NOTIFY_CONCURRENCY must be >= 1")
	}
	switch cfg.Mail.Backend {
	case "log":
	case "smtp":
		if strings.TrimSpace(cfg.Mail.SMTPAddr) == "" {
			return cfg, errors.New("SMTP_ADDR is required when MAIL_BACKEND=smtp")
		}
	default:
		return cfg, errors.New("MAIL_BACKEND must be one of: log, smtp")
	}
	if !strings.Contains(cfg.Mail.From, "@") {
		return cfg, errors.New("MAIL_FROM must be an e-mail address")
	}
	switch cfg.DefaultLocale {
	case "en", "fr", "pt":
	default:
		return cfg, errors.New("DEFAULT_LOCALE must be one of: en, fr, pt")
	}
	if cfg.DefaultPerPage < 1 || cfg.MaxPerPage < cfg.DefaultPerPage {
		return cfg, errors.New("DEFAULT_PER_PAGE must be >= 1 and <= MAX_PER_PAGE")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
