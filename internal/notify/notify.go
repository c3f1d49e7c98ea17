// Package notify fans sensor write outcomes out to side channels: the MQTT
// broker, InfluxDB history, the SQLite audit trail, WebSocket clients and
// Prometheus counters.
//
// Sinks are best effort. A failing sink is logged and never affects the
// write that produced the event or the other sinks.
package notify

import (
	"context"
	"time"

	"github.com/nerrad567/spaceapi-core/internal/audit"
)

// Logger is the logging interface used by the notifier.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Event describes one sensor write attempt.
type Event struct {
	SensorKey string
	// Kind and Location are empty for writes to unknown sensors.
	Kind     string
	Location string
	// Value is the submitted value. It is only set for accepted writes.
	Value string

	Source  audit.Source
	Outcome audit.Outcome
	Reason  string

	SessionID  string
	RemoteAddr string
	At         time.Time
}

// Accepted reports whether the write was stored.
func (e Event) Accepted() bool {
	return e.Outcome == audit.OutcomeAccepted
}

// Sink receives events.
type Sink interface {
	Notify(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event) error

// Notify calls f.
func (f SinkFunc) Notify(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

type namedSink struct {
	name string
	sink Sink
}

// Notifier delivers events to its sinks in registration order.
//
// Sinks are added during startup; Notify is safe for concurrent use once
// registration is finished.
type Notifier struct {
	sinks  []namedSink
	logger Logger
	now    func() time.Time
}

// New creates a notifier with no sinks.
func New() *Notifier {
	return &Notifier{logger: noopLogger{}, now: time.Now}
}

// SetLogger sets the logger for sink failures.
func (n *Notifier) SetLogger(logger Logger) {
	if logger != nil {
		n.logger = logger
	}
}

// Add registers a sink under name. Nil sinks are ignored.
func (n *Notifier) Add(name string, sink Sink) {
	if sink == nil {
		return
	}
	n.sinks = append(n.sinks, namedSink{name: name, sink: sink})
}

// Len returns the number of registered sinks.
func (n *Notifier) Len() int {
	if n == nil {
		return 0
	}
	return len(n.sinks)
}

// Notify delivers ev to every sink. A zero At is set to the current time.
// A nil Notifier discards the event.
func (n *Notifier) Notify(ctx context.Context, ev Event) {
	if n == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = n.now().UTC()
	}

	for _, s := range n.sinks {
		if err := s.sink.Notify(ctx, ev); err != nil {
			n.logger.Warn("notify sink failed",
				"sink", s.name,
				"sensor", ev.SensorKey,
				"outcome", ev.Outcome,
				"error", err,
			)
		}
	}
}
