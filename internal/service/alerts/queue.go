package alerts

import (
	"context"

	"SmartFlow/internal/domain/models"
	"SmartFlow/pkg/queue"
)

const deliverMessageType = "alert.deliver"

// QueuedDispatcher routes signals through a Redis-backed queue so
// delivery survives restarts and transient channel outages. The queue's
// retry policy replaces the caller's; Dispatch only fails when the
// enqueue itself fails.
type QueuedDispatcher struct {
	q *queue.RedisQueue
}

func NewQueuedDispatcher(q *queue.RedisQueue, inner *Dispatcher) *QueuedDispatcher {
	q.RegisterJob(&deliverJob{inner: inner})
	return &QueuedDispatcher{q: q}
}

func (d *QueuedDispatcher) Dispatch(ctx context.Context, signal *models.TradingSignal) error {
	return d.q.PublishMessage(ctx, deliverMessageType, signal)
}

type deliverJob struct {
	inner *Dispatcher
}

func (j *deliverJob) Name() string { return "alert-deliver" }

func (j *deliverJob) Type() string { return deliverMessageType }

func (j *deliverJob) Handle(ctx context.Context, payload interface{}) error {
	signal, err := queue.ParsePayload[models.TradingSignal](payload)
	if err != nil {
		return err
	}
	return j.inner.Dispatch(ctx, signal)
}
