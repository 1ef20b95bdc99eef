package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	// Clear all env that might affect defaults. t.Setenv isolates per test.
	// Server timeouts / sizes (valid)
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"

	// Logging / Docs
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "on")
	t.Setenv("API_BASE_PATH", "api/v1/") // no leading slash + trailing slash -> "/api/v1"

	// Storage
	t.Setenv("DB_DRIVER", "POSTGRES")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/booking?sslmode=disable")
	t.Setenv("DB_TRACING", "true")
	t.Setenv("DB_MAX_OPEN_CONNS", "12")

	// Notifications
	t.Setenv("NOTIFY_BACKEND", "asynq")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("NOTIFY_WORKER", "true")
	t.Setenv("NOTIFY_MAX_RETRY", "3")
	t.Setenv("MAIL_BACKEND", "smtp")
	t.Setenv("SMTP_ADDR", "mail:25")
	t.Setenv("MAIL_FROM", "bookings@example.com")

	// Localization / listings
	t.Setenv("DEFAULT_LOCALE", "PT")
	t.Setenv("DEFAULT_PER_PAGE", "20")

	// Rate limiting (use invalids for parse to fall back to defaults)
	t.Setenv("RATE_RPS", "x")      // -> default 5.0
	t.Setenv("RATE_BURST", "nope") // -> default 10

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	// Idempotency
	t.Setenv("IDEMPOTENCY_TTL", "48h")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Server
	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}

	// Logging / Docs
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/api/v1" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}

	// Storage
	if cfg.DB.Driver != "postgres" || cfg.DB.URL == "" || !cfg.DB.Tracing || cfg.DB.MaxOpen != 12 || cfg.DB.MaxIdle != 5 {
		t.Fatalf("db fields unexpected: %+v", cfg.DB)
	}

	// Notifications
	if cfg.Notify.Backend != "asynq" || cfg.Notify.RedisAddr != "redis:6379" || cfg.Notify.RedisDB != 2 ||
		!cfg.Notify.Worker || cfg.Notify.MaxRetry != 3 || cfg.Notify.Queue != "email_notifications" || cfg.Notify.Concurrency != 5 {
		t.Fatalf("notify fields unexpected: %+v", cfg.Notify)
	}
	if cfg.Mail.Backend != "smtp" || cfg.Mail.SMTPAddr != "mail:25" || cfg.Mail.From != "bookings@example.com" {
		t.Fatalf("mail fields unexpected: %+v", cfg.Mail)
	}

	// Localization / listings
	if cfg.DefaultLocale != "pt" || cfg.DefaultPerPage != 20 || cfg.MaxPerPage != 100 {
		t.Fatalf("locale/listing fields unexpected: %+v", cfg)
	}

	// Rate limiting (parse fallback to defaults)
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}

	// Web protection
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}

	// Idempotency
	if cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("idempotency ttl unexpected: %v", cfg.IdempotencyTTL)
	}

	// OTEL
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_RejectsInvalidSettings(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"log level", map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{"blank port", map[string]string{"PORT": "   "}, "PORT must not be empty"},
		{"zero timeout", map[string]string{"READ_TIMEOUT": "0s"}, "timeouts must be positive"},
		{"header bytes", map[string]string{"MAX_HEADER_BYTES": "0"}, "MAX_HEADER_BYTES"},
		{"blank sqlite path", map[string]string{"DB_PATH": "   "}, "DB_PATH must not be empty"},
		{"driver", map[string]string{"DB_DRIVER": "oracle"}, "DB_DRIVER"},
		{"postgres without url", map[string]string{"DB_DRIVER": "postgres", "DATABASE_URL": ""}, "DATABASE_URL"},
		{"notify backend", map[string]string{"NOTIFY_BACKEND": "kafka"}, "NOTIFY_BACKEND"},
		{"worker needs asynq", map[string]string{"NOTIFY_WORKER": "true"}, "NOTIFY_WORKER"},
		{"worker concurrency", map[string]string{"NOTIFY_CONCURRENCY": "0"}, "NOTIFY_CONCURRENCY"},
		{"mail backend", map[string]string{"MAIL_BACKEND": "pigeon"}, "MAIL_BACKEND"},
		{"sender address", map[string]string{"MAIL_FROM": "nobody"}, "MAIL_FROM"},
		{"locale", map[string]string{"DEFAULT_LOCALE": "de"}, "DEFAULT_LOCALE"},
		{"page size", map[string]string{"DEFAULT_PER_PAGE": "500"}, "DEFAULT_PER_PAGE"},
		{"rps", map[string]string{"RATE_RPS": "-1"}, "RATE_RPS"},
		{"burst", map[string]string{"RATE_BURST": "0"}, "RATE_BURST"},
		{"hsts", map[string]string{"HSTS_MAX_AGE": "-1s"}, "HSTS_MAX_AGE"},
		{"idempotency ttl", map[string]string{"IDEMPOTENCY_TTL": "0s"}, "IDEMPOTENCY_TTL"},
		{"sample ratio", map[string]string{"OTEL_TRACES_SAMPLER_ARG": "1.5"}, "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("want error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoad_DefaultsAreValid(t *testing.T) {
	cfg := MustLoad()
	if cfg.APIBasePath != "/" {
		t.Fatalf("base path = %q", cfg.APIBasePath)
	}
	if cfg.DB.Driver != "sqlite" || cfg.DB.Path != "booking.db" {
		t.Fatalf("db = %+v", cfg.DB)
	}
	if cfg.Notify.Backend != "log" || cfg.Mail.Backend != "log" || cfg.Mail.From != "noreply@nutrium.com" {
		t.Fatalf("notify = %+v mail = %+v", cfg.Notify, cfg.Mail)
	}
	if cfg.DefaultLocale != "en" || cfg.DefaultPerPage != 10 {
		t.Fatalf("locale = %q per_page = %d", cfg.DefaultLocale, cfg.DefaultPerPage)
	}
}

func TestEnvParsers_FallBackOnBadInput(t *testing.T) {
	t.Setenv("CFG_EMPTY", "")
	t.Setenv("CFG_WORD", "nope")
	t.Setenv("CFG_NUM", "42")
	t.Setenv("CFG_DUR", "150ms")

	if getenv("CFG_EMPTY", "d") != "d" || getenv("CFG_WORD", "d") != "nope" {
		t.Fatalf("getenv")
	}
	if getint("CFG_NUM", 0) != 42 || getint("CFG_WORD", 7) != 7 {
		t.Fatalf("getint")
	}
	if getfloat("CFG_NUM", 0) != 42 || getfloat("CFG_WORD", 1.5) != 1.5 {
		t.Fatalf("getfloat")
	}
	if getdur("CFG_DUR", 0) != 150*time.Millisecond || getdur("CFG_WORD", time.Second) != time.Second {
		t.Fatalf("getdur")
	}
}

func TestGetbool(t *testing.T) {
	cases := []struct {
		in   string
		def  bool
		want bool
	}{
		{"1", false, true}, {" yes ", false, true}, {"Y", false, true}, {"On", false, true},
		{"0", true, false}, {"FALSE", true, false}, {" no ", true, false}, {"off", true, false},
		{"", true, true}, {"maybe", false, false},
	}
	for i, tc := range cases {
		key := fmt.Sprintf("CFG_BOOL_%d", i)
		t.Setenv(key, tc.in)
		if got := getbool(key, tc.def); got != tc.want {
			t.Fatalf("getbool(%q, %v) = %v", tc.in, tc.def, got)
		}
	}
}

func TestSplitCSVAndBasePath(t *testing.T) {
	if splitCSV("") != nil {
		t.Fatalf("empty csv should be nil")
	}
	if got := splitCSV(" a, ,b ,  c  ,"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("splitCSV = %#v", got)
	}
	for in, want := range map[string]string{"": "/", " / ": "/", "v1": "/v1", "/v1/": "/v1"} {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMain(m *testing.M) {
	os.Unsetenv("PORT")
	os.Exit(m.Run())
}
