package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-nutrition-booking/internal/locale"
	"github.com/tbourn/go-nutrition-booking/internal/repo"
)

// Processor turns a notification into a delivered e-mail.
type Processor struct {
	DB            *gorm.DB
	Mailer        Mailer
	From          string
	DefaultLocale language.Tag
}

// Process loads the appointment, renders the mail in the notification's
// language and sends it.
//
// A deleted appointment is skipped and reported as success so the queue
// does not retry. A malformed notification yields an error wrapping
// ErrInvalidNotification. Any other error is returned and the queue
// retries it.
func (p *Processor) Process(ctx context.Context, n Notification) error {
	lg := zerolog.Ctx(ctx).With().
		Str("appointment_id", n.AppointmentID).
		Str("action", string(n.Action)).
		Logger()

	if err := n.Validate(); err != nil {
		sent.WithLabelValues(string(n.Action), "invalid").Inc()
		return err
	}

	a, err := repo.GetAppointmentDetailed(ctx, p.DB, n.AppointmentID)
	if errors.Is(err, repo.ErrNotFound) {
		lg.Warn().Msg("appointment no longer exists; notification skipped")
		sent.WithLabelValues(string(n.Action), "skipped").Inc()
		return nil
	}
	if err != nil {
		sent.WithLabelValues(string(n.Action), "failed").Inc()
		return err
	}

	tag := p.DefaultLocale
	if t, ok := locale.Parse(n.Locale); ok {
		tag = t
	}
	m, err := Render(tag, n.Action, p.From, a)
	if err != nil {
		sent.WithLabelValues(string(n.Action), "invalid").Inc()
		return err
	}
	if err := p.Mailer.Send(lg.WithContext(ctx), m); err != nil {
		sent.WithLabelValues(string(n.Action), "failed").Inc()
		return fmt.Errorf("notify: send %s: %w", n.Action, err)
	}
	sent.WithLabelValues(string(n.Action), "sent").Inc()
	lg.Info().Msg("notification sent")
	return nil
}

// ProcessTask is the asynq handler for TaskEmailNotification. Payloads that
// can never succeed are wrapped in asynq.SkipRetry.
func (p *Processor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var n Notification
	if err := json.Unmarshal(t.Payload(), &n); err != nil {
		return fmt.Errorf("notify: bad payload: %w: %w", err, asynq.SkipRetry)
	}
	lg := log.With().Str("task", t.Type()).Logger()
	if id, ok := asynq.GetTaskID(ctx); ok {
		lg = lg.With().Str("task_id", id).Logger()
	}
	err := p.Process(lg.WithContext(ctx), n)
	if errors.Is(err, ErrInvalidNotification) {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return err
}

// Worker runs the asynq server consuming the notification queue.
type Worker struct {
	srv *asynq.Server
	mux *asynq.ServeMux
}

// NewWorker builds a worker bound to queue with the given concurrency.
func NewWorker(opt asynq.RedisClientOpt, queue string, concurrency int, p *Processor) *Worker {
	if queue == "" {
		queue = DefaultQueue
	}
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
		RetryDelayFunc: func(n int, _ error, _ *asynq.Task) time.Duration {
			// 2s, 4s, 8s ... capped at 5m
			d := time.Duration(1<<uint(n+1)) * time.Second
			if d > 5*time.Minute || d <= 0 {
				d = 5 * time.Minute
			}
			return d
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, t *asynq.Task, err error) {
			log.Error().Err(err).Str("task", t.Type()).Msg("notification task failed")
		}),
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskEmailNotification, p.ProcessTask)
	return &Worker{srv: srv, mux: mux}
}

// Start begins processing in the background.
func (w *Worker) Start() error { return w.srv.Start(w.mux) }

// Shutdown stops fetching new tasks and waits for in-flight ones.
func (w *Worker) Shutdown() { w.srv.Shutdown() }
