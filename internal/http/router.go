// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// localization, CORS, security headers, idempotency, and rate limiting.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-nutrition-booking/internal/config"
	"github.com/tbourn/go-nutrition-booking/internal/domain"
	"github.com/tbourn/go-nutrition-booking/internal/http/handlers"
	"github.com/tbourn/go-nutrition-booking/internal/http/middleware"
	"github.com/tbourn/go-nutrition-booking/internal/locale"
	"github.com/tbourn/go-nutrition-booking/internal/notify"
	"github.com/tbourn/go-nutrition-booking/internal/repo"
	"github.com/tbourn/go-nutrition-booking/internal/services"
)

// offeringRepoShim adapts the repository free functions to the
// services.OfferingRepo interface expected by the OfferingService.
type offeringRepoShim struct{}

// CountOfferingGroups proxies repo.CountOfferingGroups.
func (offeringRepoShim) CountOfferingGroups(ctx context.Context, db *gorm.DB, f repo.OfferingFilter) (int64, error) {
	return repo.CountOfferingGroups(ctx, db, f)
}

// ListOfferingGroupIDs proxies repo.ListOfferingGroupIDs.
func (offeringRepoShim) ListOfferingGroupIDs(ctx context.Context, db *gorm.DB, f repo.OfferingFilter, offset, limit int) ([]string, error) {
	return repo.ListOfferingGroupIDs(ctx, db, f, offset, limit)
}

// ListOfferingsForNutritionists proxies repo.ListOfferingsForNutritionists.
func (offeringRepoShim) ListOfferingsForNutritionists(ctx context.Context, db *gorm.DB, f repo.OfferingFilter, ids []string) ([]domain.NutritionistService, error) {
	return repo.ListOfferingsForNutritionists(ctx, db, f, ids)
}

// idempotencyStore persists creation outcomes in the idempotency table.
type idempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// Save implements handlers.IdempotencyStore.
func (s idempotencyStore) Save(ctx context.Context, scope, key, resourceID string, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.db, scope, key, resourceID, status, s.ttl)
	return err
}

// Lookup implements middleware.IdempotencyLookup.
func (s idempotencyStore) Lookup(ctx context.Context, scope, key string, now time.Time) (middleware.Replay, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, scope, key, now)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return middleware.Replay{}, false, nil
	case err != nil:
		return middleware.Replay{}, false, err
	}
	return middleware.Replay{ResourceID: rec.ResourceID, Status: rec.Status}, true, nil
}

// DBCheck returns a readiness probe pinging db.
func DBCheck(db *gorm.DB) handlers.Check {
	return handlers.Check{Name: "db", Ping: func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}}
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. Extra readiness probes (e.g. the notification broker) are passed
// in checks; the database probe is always registered.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Locale: request language into the context
//  8. Rate limiter (per IP)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, notifier notify.Enqueuer, cfg config.Config, checks ...handlers.Check) {
	r.HandleMethodNotAllowed = true

	fallback, ok := locale.Parse(cfg.DefaultLocale)
	if !ok {
		fallback = language.English
	}

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderIdempotencyKey},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (64 KiB; booking forms are tiny)
	r.Use(limitBody(64 << 10))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics("/metrics", "/health", "/ready"))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Request language
	r.Use(middleware.Locale(fallback))

	// 8) Token-bucket rate limiter per IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Accept-Language", middleware.HeaderIdempotencyKey, "If-None-Match"},
		ExposeHeaders: []string{middleware.HeaderRequestID, "Content-Length", "Content-Language", "ETag", "Location", middleware.HeaderIdempotentReplay},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		corsCfg.AllowAllOrigins = true
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Dependency injection: services ← repo/db/notifier
	apptSvc := &services.AppointmentService{DB: db, Notifier: notifier}
	offeringSvc := services.NewOfferingService(db, offeringRepoShim{})
	offeringSvc.DefaultPerPage, offeringSvc.MaxPerPage = cfg.DefaultPerPage, cfg.MaxPerPage
	pendingSvc := &services.PendingService{DB: db, DefaultPerPage: cfg.DefaultPerPage, MaxPerPage: cfg.MaxPerPage}

	idem := idempotencyStore{db: db, ttl: cfg.IdempotencyTTL}
	h := handlers.New(apptSvc, offeringSvc, pendingSvc).
		WithIdempotency(idem).
		WithFallbackLocale(fallback).
		WithReadiness(append([]handlers.Check{DBCheck(db)}, checks...)...)

	// Probes and metadata
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.GET("/locales", h.Locales)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Writes get a tighter per-route budget on top of the global one.
	// Idempotent replays skip it.
	writeRL := middleware.NewRateLimiter(cfg.RateRPS/2, cfg.RateBurst, middleware.KeyByRouteAndIP())
	noStore := middleware.CacheControl("no-store")

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Appointments
		api.POST("/appointments",
			middleware.Idempotency(handlers.ScopeCreateAppointment, middleware.IdempotencyOptions{MaxLen: 200}, idem.Lookup),
			writeRL.Handler(), noStore, h.CreateAppointment)
		api.PATCH("/appointments/:id/accept", writeRL.Handler(), noStore, h.AcceptAppointment)
		api.PATCH("/appointments/:id/reject", writeRL.Handler(), noStore, h.RejectAppointment)
		api.PATCH("/appointments/:id/refuse", writeRL.Handler(), noStore, h.RejectAppointment)

		// Listings
		listings := api.Group("", gzip.Gzip(gzip.DefaultCompression))
		listings.GET("/nutritionist_services", h.ListOfferings)
		listings.GET("/nutritionists/:id/appointments", middleware.CacheControl("private, no-cache"), h.ListPendingAppointments)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
