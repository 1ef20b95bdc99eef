// Package handlers provides HTTP handler implementations for the public API.
//
// Handlers are transport-thin: they bind and parse input, call application
// services, and translate results and errors into HTTP responses in the
// request language.
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/tbourn/go-nutrition-booking/internal/domain"
	"github.com/tbourn/go-nutrition-booking/internal/repo"
	"github.com/tbourn/go-nutrition-booking/internal/services"
	"github.com/tbourn/go-nutrition-booking/internal/utils"
)

//
// Service contracts (context-aware)
//

// AppointmentService is the appointment lifecycle consumed by the handlers.
type AppointmentService interface {
	// Create books a pending appointment.
	Create(ctx context.Context, in services.CreateAppointmentInput) (*domain.Appointment, error)
	// Get returns one appointment with details loaded.
	Get(ctx context.Context, id string) (*domain.Appointment, error)
	// Accept accepts a pending appointment and rejects its slot siblings.
	Accept(ctx context.Context, id string) (*domain.Appointment, error)
	// Reject rejects a pending appointment.
	Reject(ctx context.Context, id string) (*domain.Appointment, error)
}

// OfferingService is the catalog search.
type OfferingService interface {
	Search(ctx context.Context, f repo.OfferingFilter, page, perPage int) ([]services.OfferingGroup, utils.Pagination, error)
}

// PendingService lists a nutritionist's pending appointments.
type PendingService interface {
	List(ctx context.Context, nutritionistID string, page, perPage int) ([]domain.Appointment, utils.Pagination, error)
	Stats(ctx context.Context, nutritionistID string) (int64, *time.Time, error)
}

// IdempotencyStore records the outcome of a request made with an
// Idempotency-Key.
type IdempotencyStore interface {
	Save(ctx context.Context, scope, key, resourceID string, status int) error
}

// Check is one readiness probe.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints.
type Handlers struct {
	appts     AppointmentService
	offerings OfferingService
	pending   PendingService

	idem     IdempotencyStore
	checks   []Check
	fallback language.Tag
}

// New constructs Handlers bound to the given services. The fallback
// language is English until WithFallbackLocale says otherwise.
func New(appts AppointmentService, offerings OfferingService, pending PendingService) *Handlers {
	return &Handlers{appts: appts, offerings: offerings, pending: pending, fallback: language.English}
}

// WithIdempotency stores creation outcomes in s.
func (h *Handlers) WithIdempotency(s IdempotencyStore) *Handlers {
	h.idem = s
	return h
}

// WithReadiness registers probes run by GET /ready.
func (h *Handlers) WithReadiness(checks ...Check) *Handlers {
	h.checks = append(h.checks, checks...)
	return h
}

// WithFallbackLocale sets the language used when a request names none.
func (h *Handlers) WithFallbackLocale(t language.Tag) *Handlers {
	h.fallback = t
	return h
}

//
// Helpers
//

// pageParams reads page and per_page; bounds are applied by the services.
func pageParams(c *gin.Context) (page, perPage int) {
	return utils.AtoiDefault(c.Query("page"), 1), utils.AtoiDefault(c.Query("per_page"), 0)
}
