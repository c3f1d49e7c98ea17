package notify

import (
	"context"
	"time"
)

// DefaultQueueSize is the buffer of a Queue created with size <= 0.
const DefaultQueueSize = 256

// drainTimeout bounds each delivery made while a Queue shuts down.
const drainTimeout = 2 * time.Second

// Queue delivers events to a slow sink (such as the SQLite audit trail)
// from a single goroutine so requests never wait on it. Events that do not
// fit in the buffer are dropped with a warning.
type Queue struct {
	sink   Sink
	ch     chan Event
	logger Logger
	done   chan struct{}
}

// NewQueue wraps sink. Run must be started for events to be delivered.
func NewQueue(sink Sink, size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		sink:   sink,
		ch:     make(chan Event, size),
		logger: noopLogger{},
		done:   make(chan struct{}),
	}
}

// SetLogger sets the logger for dropped events and sink failures.
func (q *Queue) SetLogger(logger Logger) {
	if logger != nil {
		q.logger = logger
	}
}

// Notify enqueues ev. It never blocks and never fails.
func (q *Queue) Notify(_ context.Context, ev Event) error {
	select {
	case q.ch <- ev:
	default:
		q.logger.Warn("notify queue full, dropping event",
			"sensor", ev.SensorKey,
			"outcome", ev.Outcome,
		)
	}
	return nil
}

// Run delivers queued events until ctx is cancelled, then drains what is
// left in the buffer and returns.
func (q *Queue) Run(ctx context.Context) {
	defer close(q.done)

	for {
		select {
		case ev := <-q.ch:
			q.deliver(context.WithoutCancel(ctx), ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-q.ch:
					dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
					q.deliver(dctx, ev)
					cancel()
				default:
					return
				}
			}
		}
	}
}

// Done is closed when Run has returned.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

func (q *Queue) deliver(ctx context.Context, ev Event) {
	if err := q.sink.Notify(ctx, ev); err != nil {
		q.logger.Error("queued notify failed",
			"sensor", ev.SensorKey,
			"outcome", ev.Outcome,
			"error", err,
		)
	}
}
