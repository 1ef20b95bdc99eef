package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-nutrition-booking/internal/locale"
)

// LogEnqueuer only logs notifications. It is the development backend when
// no Redis is available; nothing is delivered.
type LogEnqueuer struct{}

// Enqueue implements Enqueuer.
func (LogEnqueuer) Enqueue(ctx context.Context, n Notification) error {
	if n.Locale == "" {
		if t, ok := locale.FromContext(ctx); ok {
			n.Locale = locale.Code(t)
		}
	}
	zerolog.Ctx(ctx).Info().
		Str("appointment_id", n.AppointmentID).
		Str("action", string(n.Action)).
		Str("locale", n.Locale).
		Msg("notification enqueued (log backend)")
	observeEnqueue(n.Action, nil)
	return nil
}

// Recorder captures notifications in memory. Tests use it to assert which
// e-mails a lifecycle operation queued; Err makes every Enqueue fail.
type Recorder struct {
	mu    sync.Mutex
	calls []Notification
	Err   error
}

// Enqueue implements Enqueuer.
func (r *Recorder) Enqueue(ctx context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if n.Locale == "" {
		if t, ok := locale.FromContext(ctx); ok {
			n.Locale = locale.Code(t)
		}
	}
	r.calls = append(r.calls, n)
	return nil
}

// Calls returns a copy of the recorded notifications in enqueue order.
func (r *Recorder) Calls() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.calls))
	copy(out, r.calls)
	return out
}

// Reset forgets recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}
