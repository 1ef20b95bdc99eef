// Package services holds the booking use-cases: the appointment lifecycle
// engine (create, accept, reject with their rejection cascades), the
// offering search and the pending-appointments listing.
//
// This file defines the error taxonomy returned by those use-cases.
// Expected failures are typed values so handlers can branch with errors.Is
// and errors.As:
//
//   - *ValidationError:  field-level violations, attributed to an entity
//   - *NotFoundError:    a referenced record does not exist (errors.Is ErrNotFound)
//   - *TransitionError:  the appointment is not pending (errors.Is ErrInvalidStateTransition)
//
// Anything else is an infrastructure fault and is returned unchanged.
// Translation into user-facing messages or HTTP status codes is done by
// the handler layer.
package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tbourn/go-nutrition-booking/internal/domain"
)

// Entities named in errors.
const (
	EntityGuest               = "guest"
	EntityAppointment         = "appointment"
	EntityNutritionist        = "nutritionist"
	EntityNutritionistService = "nutritionist_service"
	EntityLocation            = "location"
	EntityService             = "service"
)

// Validation messages. They double as translation keys.
const (
	MsgBlank         = "can't be blank"
	MsgInvalid       = "is invalid"
	MsgTooLong       = "is too long"
	MsgInFuture      = "must be in the future"
	MsgPendingExists = "already has a pending appointment"
	MsgPositive      = "must be greater than 0"
	MsgAlreadyTaken  = "has already been taken"
	fieldBase        = "base"
)

var (
	// ErrNotFound is matched by every *NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrInvalidStateTransition is matched by every *TransitionError.
	ErrInvalidStateTransition = errors.New("invalid state transition")
)

// ValidationError lists field-level violations for one entity.
type ValidationError struct {
	Entity string
	Fields map[string][]string
}

// NewValidationError returns an empty error for entity; use Add to fill it.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{Entity: entity, Fields: map[string][]string{}}
}

// Add records msg against field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty reports whether no violation was recorded.
func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

// Error renders "entity: field msg; field msg" with fields sorted.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		for _, m := range e.Fields[k] {
			parts = append(parts, k+" "+m)
		}
	}
	return e.Entity + ": " + strings.Join(parts, "; ")
}

// NotFoundError reports a missing record.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) true.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TransitionError reports a decision on an appointment that is no longer
// pending.
type TransitionError struct {
	ID   string
	From domain.AppointmentState
	To   domain.AppointmentState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("appointment %s cannot move from %s to %s", e.ID, e.From, e.To)
}

// Is makes errors.Is(err, ErrInvalidStateTransition) true.
func (e *TransitionError) Is(target error) bool { return target == ErrInvalidStateTransition }
