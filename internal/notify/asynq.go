package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/tbourn/go-nutrition-booking/internal/locale"
)

// AsynqEnqueuer publishes notifications as asynq tasks on a Redis-backed
// queue.
type AsynqEnqueuer struct {
	client   *asynq.Client
	queue    string
	maxRetry int
}

// NewAsynqEnqueuer connects an asynq client to Redis. Call Close on shutdown.
func NewAsynqEnqueuer(opt asynq.RedisClientOpt, queue string, maxRetry int) *AsynqEnqueuer {
	if queue == "" {
		queue = DefaultQueue
	}
	return &AsynqEnqueuer{client: asynq.NewClient(opt), queue: queue, maxRetry: maxRetry}
}

// NewTask builds the asynq task for n. The locale is taken from ctx when n
// does not carry one.
func NewTask(ctx context.Context, n Notification) (*asynq.Task, error) {
	if n.Locale == "" {
		if t, ok := locale.FromContext(ctx); ok {
			n.Locale = locale.Code(t)
		}
	}
	b, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEmailNotification, b), nil
}

// Enqueue implements Enqueuer.
func (e *AsynqEnqueuer) Enqueue(ctx context.Context, n Notification) error {
	task, err := NewTask(ctx, n)
	if err == nil {
		_, err = e.client.EnqueueContext(ctx, task, asynq.Queue(e.queue), asynq.MaxRetry(e.maxRetry))
	}
	observeEnqueue(n.Action, err)
	if err != nil {
		return fmt.Errorf("notify: enqueue %s for %s: %w", n.Action, n.AppointmentID, err)
	}
	return nil
}

// Close releases the Redis connection.
func (e *AsynqEnqueuer) Close() error { return e.client.Close() }
