// Package notify queues and delivers the e-mails that follow appointment
// state changes.
//
// The lifecycle engine only ever calls Enqueuer.Enqueue after its database
// transaction has committed. Delivery happens elsewhere: the asynq worker
// (Processor) loads the appointment at send time, renders the localized
// template and hands it to a Mailer. Send failures are retried by the queue
// and never reach the code that changed the appointment.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Action names the e-mail to send for an appointment.
type Action string

const (
	ActionConfirmation Action = "confirmation"
	ActionAccepted     Action = "accepted"
	ActionRejected     Action = "rejected"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionConfirmation, ActionAccepted, ActionRejected:
		return true
	}
	return false
}

// TaskEmailNotification is the asynq task type for appointment e-mails.
const TaskEmailNotification = "appointment:email"

// DefaultQueue is the queue name used when none is configured.
const DefaultQueue = "email_notifications"

// Notification is the queued work item. Locale is the requester's language
// code so the e-mail matches the language they booked in.
type Notification struct {
	AppointmentID string `json:"appointment_id"`
	Action        Action `json:"action"`
	Locale        string `json:"locale,omitempty"`
}

// Validate checks the fields required to process n.
func (n Notification) Validate() error {
	if n.AppointmentID == "" {
		return fmt.Errorf("%w: empty appointment id", ErrInvalidNotification)
	}
	if !n.Action.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownAction, n.Action)
	}
	return nil
}

var (
	// ErrInvalidNotification marks a notification that can never be delivered.
	ErrInvalidNotification = errors.New("notify: invalid notification")
	// ErrUnknownAction is the ErrInvalidNotification for an unsupported action.
	ErrUnknownAction = fmt.Errorf("%w: unknown action", ErrInvalidNotification)
)

// Enqueuer hands notifications to the delivery pipeline. Implementations
// must not block on delivery itself.
type Enqueuer interface {
	Enqueue(ctx context.Context, n Notification) error
}

var (
	enqueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_enqueued_total",
			Help: "Appointment notifications handed to the queue, by action and result.",
		},
		[]string{"action", "result"},
	)
	sent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Appointment notifications processed by the worker, by action and result.",
		},
		[]string{"action", "result"},
	)
)

func init() {
	prometheus.MustRegister(enqueued, sent)
}

func observeEnqueue(a Action, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	enqueued.WithLabelValues(string(a), result).Inc()
}
