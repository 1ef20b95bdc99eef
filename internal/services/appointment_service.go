// Package services – AppointmentService
//
// AppointmentService is the appointment lifecycle engine. Each operation
// runs in one database transaction and queues e-mail notifications only
// after that transaction committed:
//
//   - Create resolves the guest by e-mail, rejects the guest's older pending
//     request and inserts a new pending appointment.
//   - Accept moves a pending appointment to accepted and rejects every other
//     pending appointment of the same nutritionist at the same instant.
//   - Reject moves a pending appointment to rejected.
//
// A failing enqueue is logged and counted; it never undoes a committed
// state change.
//
// Observability: all public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-nutrition-booking/internal/domain"
	"github.com/tbourn/go-nutrition-booking/internal/notify"
	"github.com/tbourn/go-nutrition-booking/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// AppointmentService coordinates appointment creation and decisions.
type AppointmentService struct {
	// DB is the GORM handle; every operation opens its own transaction.
	DB *gorm.DB
	// Notifier receives notifications after commit.
	Notifier notify.Enqueuer
	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// CreateAppointmentInput is a booking request.
type CreateAppointmentInput struct {
	GuestName             string
	GuestEmail            string
	NutritionistServiceID string
	EventDate             time.Time
	// EventDateMalformed marks a date the caller could not parse; it is
	// reported as invalid rather than blank.
	EventDateMalformed bool
}

// guestForm carries the guest fields through struct validation.
type guestForm struct {
	Name  string `json:"name"  validate:"required,max=255"`
	Email string `json:"email" validate:"required,max=255,email"`
}

func (s *AppointmentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create books a pending appointment.
//
// Checks run in this order, and the first failing step ends the call with
// nothing persisted:
//  1. guest fields (*ValidationError for "guest")
//  2. the offering exists (*NotFoundError)
//  3. event_date is strictly in the future (*ValidationError for "appointment")
//
// The guest is looked up by case-insensitive e-mail and created when absent;
// a differing name replaces the stored one. Any pending appointment the
// guest already had is rejected, so a guest never holds more than one
// pending request.
//
// After commit it queues "confirmation" for the new appointment and
// "rejected" for every appointment it displaced. The returned appointment
// has its guest and offering loaded.
func (s *AppointmentService) Create(ctx context.Context, in CreateAppointmentInput) (*domain.Appointment, error) {
	tr := otel.Tracer("services/AppointmentService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("nutritionist_service.id", in.NutritionistServiceID)),
	)
	defer span.End()

	form := guestForm{Name: strings.TrimSpace(in.GuestName), Email: repo.NormalizeEmail(in.GuestEmail)}
	if ve := validateEntity(EntityGuest, form); ve != nil {
		return nil, ve
	}

	var (
		created   *domain.Appointment
		displaced []string
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		offering, err := repo.GetOffering(ctx, tx, in.NutritionistServiceID)
		if errors.Is(err, repo.ErrNotFound) {
			return &NotFoundError{Entity: EntityNutritionistService, ID: in.NutritionistServiceID}
		}
		if err != nil {
			return err
		}

		if ve := s.validateEventDate(in.EventDate, in.EventDateMalformed); ve != nil {
			return ve
		}

		guest, err := resolveGuest(ctx, tx, form.Name, form.Email)
		if err != nil {
			return err
		}

		// The partial unique index only admits the new row once the older
		// pending one is gone.
		displaced, err = repo.PendingGuestAppointmentIDs(ctx, tx, guest.ID)
		if err != nil {
			return err
		}
		if _, err := repo.RejectPendingAppointments(ctx, tx, displaced); err != nil {
			return err
		}

		created, err = repo.CreateAppointment(ctx, tx, guest.ID, offering.ID, in.EventDate)
		if errors.Is(err, repo.ErrDuplicate) {
			// A concurrent request for the same guest won the race.
			ve := NewValidationError(EntityAppointment)
			ve.Add(EntityGuest, MsgPendingExists)
			return ve
		}
		return err
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	transitions.WithLabelValues(string(domain.StatePending)).Inc()
	if len(displaced) > 0 {
		transitions.WithLabelValues(string(domain.StateRejected)).Add(float64(len(displaced)))
		cascadeRejections.WithLabelValues(reasonGuestRebooked).Add(float64(len(displaced)))
		zerolog.Ctx(ctx).Info().
			Str("appointment_id", created.ID).
			Strs("rejected_ids", displaced).
			Msg("guest rebooked; previous pending appointments rejected")
	}
	span.SetAttributes(attribute.String("appointment.id", created.ID), attribute.Int("cascade.rejected", len(displaced)))

	s.enqueue(ctx, created.ID, notify.ActionConfirmation)
	for _, id := range displaced {
		s.enqueue(ctx, id, notify.ActionRejected)
	}
	return s.reload(ctx, created)
}

// Get returns appointment id with its guest and offering loaded, or
// *NotFoundError.
func (s *AppointmentService) Get(ctx context.Context, id string) (*domain.Appointment, error) {
	a, err := repo.GetAppointmentDetailed(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, &NotFoundError{Entity: EntityAppointment, ID: id}
	}
	return a, err
}

// Accept moves a pending appointment to accepted. In the same transaction
// every other pending appointment of the same nutritionist (across all of
// their offerings) at exactly the same event_date is rejected.
//
// Errors: *NotFoundError when id does not exist, *TransitionError when the
// appointment is not pending.
//
// After commit it queues "accepted" for id and "rejected" for each sibling.
func (s *AppointmentService) Accept(ctx context.Context, id string) (*domain.Appointment, error) {
	tr := otel.Tracer("services/AppointmentService")
	ctx, span := tr.Start(ctx, "Accept",
		trace.WithAttributes(attribute.String("appointment.id", id)),
	)
	defer span.End()

	var (
		accepted *domain.Appointment
		siblings []string
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := decide(ctx, tx, id, domain.StateAccepted)
		if err != nil {
			return err
		}
		accepted = a

		siblings, err = repo.PendingSlotSiblingIDs(ctx, tx, a.NutritionistService.NutritionistID, a.EventDate, a.ID)
		if err != nil {
			return err
		}
		_, err = repo.RejectPendingAppointments(ctx, tx, siblings)
		return err
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	transitions.WithLabelValues(string(domain.StateAccepted)).Inc()
	if len(siblings) > 0 {
		transitions.WithLabelValues(string(domain.StateRejected)).Add(float64(len(siblings)))
		cascadeRejections.WithLabelValues(reasonSlotTaken).Add(float64(len(siblings)))
		zerolog.Ctx(ctx).Info().
			Str("appointment_id", id).
			Strs("rejected_ids", siblings).
			Msg("slot taken; competing pending appointments rejected")
	}
	span.SetAttributes(attribute.Int("cascade.rejected", len(siblings)))

	s.enqueue(ctx, id, notify.ActionAccepted)
	for _, sid := range siblings {
		s.enqueue(ctx, sid, notify.ActionRejected)
	}
	return s.reload(ctx, accepted)
}

// Reject moves a pending appointment to rejected and queues "rejected".
// It has no cascade. Errors as for Accept.
func (s *AppointmentService) Reject(ctx context.Context, id string) (*domain.Appointment, error) {
	tr := otel.Tracer("services/AppointmentService")
	ctx, span := tr.Start(ctx, "Reject",
		trace.WithAttributes(attribute.String("appointment.id", id)),
	)
	defer span.End()

	var rejected *domain.Appointment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := decide(ctx, tx, id, domain.StateRejected)
		rejected = a
		return err
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	transitions.WithLabelValues(string(domain.StateRejected)).Inc()
	s.enqueue(ctx, id, notify.ActionRejected)
	return s.reload(ctx, rejected)
}

// decide loads appointment id and moves it from pending to next with a
// conditional update, so two concurrent decisions cannot both win.
func decide(ctx context.Context, tx *gorm.DB, id string, next domain.AppointmentState) (*domain.Appointment, error) {
	a, err := repo.GetAppointmentDetailed(ctx, tx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, &NotFoundError{Entity: EntityAppointment, ID: id}
	}
	if err != nil {
		return nil, err
	}
	if !a.State.CanTransition(next) {
		return nil, &TransitionError{ID: id, From: a.State, To: next}
	}

	n, err := repo.TransitionAppointment(ctx, tx, id, domain.StatePending, next)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Decided by someone else between our read and our write.
		cur, err := repo.GetAppointment(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		return nil, &TransitionError{ID: id, From: cur.State, To: next}
	}
	a.State = next
	return a, nil
}

// resolveGuest finds the guest by e-mail or creates it. A concurrent
// creation of the same address is absorbed by re-reading inside a
// savepoint, so the outer transaction stays usable on PostgreSQL.
func resolveGuest(ctx context.Context, tx *gorm.DB, name, email string) (*domain.Guest, error) {
	g, err := repo.FindGuestByEmail(ctx, tx, email)
	switch {
	case err == nil:
		if g.Name != name {
			if err := repo.UpdateGuestName(ctx, tx, g.ID, name); err != nil {
				return nil, err
			}
			g.Name = name
		}
		return g, nil
	case !errors.Is(err, repo.ErrNotFound):
		return nil, err
	}

	err = tx.Transaction(func(sp *gorm.DB) error {
		var cerr error
		g, cerr = repo.CreateGuest(ctx, sp, name, email)
		return cerr
	})
	if errors.Is(err, repo.ErrDuplicate) {
		g, err = repo.FindGuestByEmail(ctx, tx, email)
		if err == nil && g.Name != name {
			err = repo.UpdateGuestName(ctx, tx, g.ID, name)
			g.Name = name
		}
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *AppointmentService) validateEventDate(at time.Time, malformed bool) *ValidationError {
	ve := NewValidationError(EntityAppointment)
	switch {
	case malformed:
		ve.Add("event_date", MsgInvalid)
	case at.IsZero():
		ve.Add("event_date", MsgBlank)
	case !at.After(s.now()):
		ve.Add("event_date", MsgInFuture)
	}
	if ve.Empty() {
		return nil
	}
	return ve
}

// enqueue hands one notification to the dispatcher. Failures are logged
// and never returned.
func (s *AppointmentService) enqueue(ctx context.Context, id string, action notify.Action) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Enqueue(ctx, notify.Notification{AppointmentID: id, Action: action}); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Str("appointment_id", id).
			Str("action", string(action)).
			Msg("notification enqueue failed")
	}
}

// reload returns a with guest and offering loaded. The state change is
// already committed, so a failing read falls back to what we have.
func (s *AppointmentService) reload(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	full, err := repo.GetAppointmentDetailed(ctx, s.DB, a.ID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("appointment_id", a.ID).Msg("reload after commit failed")
		return a, nil
	}
	return full, nil
}

// recordSpanError marks the span failed for infrastructure faults only;
// expected business errors are tagged but leave the span OK.
func recordSpanError(span trace.Span, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve), errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidStateTransition):
		span.SetAttributes(attribute.String("error.kind", errorKind(err)))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func errorKind(err error) string {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidStateTransition):
		return "invalid_state_transition"
	}
	return "internal"
}
