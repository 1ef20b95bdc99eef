// Appointment HTTP handlers.
//
// This file exposes the appointment lifecycle:
//   - POST  /appointments              (book; optional Idempotency-Key)
//   - PATCH /appointments/{id}/accept
//   - PATCH /appointments/{id}/reject  (also /refuse)
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-nutrition-booking/internal/domain"
	"github.com/tbourn/go-nutrition-booking/internal/http/middleware"
	"github.com/tbourn/go-nutrition-booking/internal/services"
)

// ScopeCreateAppointment names the idempotency scope of POST /appointments.
const ScopeCreateAppointment = "appointments.create"

//
// DTOs
//

// GuestAttributes identifies the person booking.
type GuestAttributes struct {
	Name  string `json:"name"  example:"Maria Santos"`
	Email string `json:"email" example:"maria@example.com"`
}

// AppointmentParams is the booking form.
type AppointmentParams struct {
	GuestAttributes       GuestAttributes `json:"guest_attributes"`
	NutritionistServiceID string          `json:"nutritionist_service_id" example:"0b9d7d0e-6a55-4c4e-8a51-3a2f0e7c9d10"`
	// RFC 3339; a value without offset is read as UTC.
	EventDate string `json:"event_date" example:"2030-01-01T10:00:00Z"`
}

// CreateAppointmentRequest is the JSON payload of POST /appointments.
type CreateAppointmentRequest struct {
	Appointment AppointmentParams `json:"appointment"`
}

// eventDateLayouts are tried in order; offset-less layouts mean UTC.
var eventDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseEventDate returns the zero time for an empty value and ok=false for
// an unparsable one.
func parseEventDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, true
	}
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

//
// Handlers
//

// CreateAppointment godoc
// @ID          createAppointment
// @Summary     Request an appointment
// @Description Books a pending appointment for a guest identified by e-mail. A guest's older pending request is rejected. Errors are keyed by entity (guest or appointment). With an Idempotency-Key, a retry returns the first outcome; a retry sent while the first attempt is still running waits for it. Concurrent retries that reach different server instances are not serialized.
// @Tags        Appointments
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false  "Replays the first outcome for the same key"  example(booking-42)
// @Param       locale           query   string  false  "Response language"  Enums(en, fr, pt)
// @Param       body             body    handlers.CreateAppointmentRequest  true  "Booking form"
//
// @Success     201  {object}  handlers.AppointmentView
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed body"
// @Failure     404  {object}  handlers.ErrorResponse  "Nutritionist service not found"
// @Failure     422  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /appointments [post]
func (h *Handlers) CreateAppointment(c *gin.Context) {
	ctx := c.Request.Context()

	if rep, replay := middleware.ReplayOf(c); replay {
		a, err := h.appts.Get(ctx, rep.ResourceID)
		if err == nil {
			c.Header(middleware.HeaderIdempotentReplay, "true")
			ok(c, rep.Status, appointmentView(h.lang(c), a))
			return
		}
		// The booked appointment is gone; treat the request as new.
		middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotent replay target missing")
	}

	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, h.tr(c, "invalid request body"), nil)
		return
	}
	p := req.Appointment
	at, parsed := parseEventDate(p.EventDate)

	a, err := h.appts.Create(ctx, services.CreateAppointmentInput{
		GuestName:             p.GuestAttributes.Name,
		GuestEmail:            p.GuestAttributes.Email,
		NutritionistServiceID: strings.TrimSpace(p.NutritionistServiceID),
		EventDate:             at,
		EventDateMalformed:    !parsed,
	})
	if err != nil {
		h.failService(c, err, byEntity)
		return
	}

	if scope, key, has := middleware.GetIdempotencyKey(c); has && h.idem != nil {
		if err := h.idem.Save(ctx, scope, key, a.ID, http.StatusCreated); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Str("appointment_id", a.ID).Msg("idempotency record not stored")
		}
	}
	c.Header("Location", "/appointments/"+a.ID)
	ok(c, http.StatusCreated, appointmentView(h.lang(c), a))
}

// AcceptAppointment godoc
// @ID          acceptAppointment
// @Summary     Accept an appointment
// @Description Accepts a pending appointment. Every other pending appointment of the same nutritionist at the same instant is rejected.
// @Tags        Appointments
// @Produce     json
//
// @Param       id      path   string  true   "Appointment ID (UUID)"  format(uuid)
// @Param       locale  query  string  false  "Response language"      Enums(en, fr, pt)
//
// @Success     200  {object}  handlers.AppointmentView
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid id"
// @Failure     404  {object}  handlers.ErrorResponse  "Appointment not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Appointment is not pending"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /appointments/{id}/accept [patch]
func (h *Handlers) AcceptAppointment(c *gin.Context) {
	h.decide(c, h.appts.Accept)
}

// RejectAppointment godoc
// @ID          rejectAppointment
// @Summary     Reject an appointment
// @Description Rejects a pending appointment. Also served at /appointments/{id}/refuse.
// @Tags        Appointments
// @Produce     json
//
// @Param       id      path   string  true   "Appointment ID (UUID)"  format(uuid)
// @Param       locale  query  string  false  "Response language"      Enums(en, fr, pt)
//
// @Success     200  {object}  handlers.AppointmentView
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid id"
// @Failure     404  {object}  handlers.ErrorResponse  "Appointment not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Appointment is not pending"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /appointments/{id}/reject [patch]
func (h *Handlers) RejectAppointment(c *gin.Context) {
	h.decide(c, h.appts.Reject)
}

type decision = func(ctx context.Context, id string) (*domain.Appointment, error)

func (h *Handlers) decide(c *gin.Context, op decision) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		msg := h.tr(c, "invalid id")
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msg, []string{msg})
		return
	}
	a, err := op(c.Request.Context(), id)
	if err != nil {
		h.failService(c, err, flatList)
		return
	}
	ok(c, http.StatusOK, appointmentView(h.lang(c), a))
}
