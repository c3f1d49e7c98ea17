// Package ingest accepts sensor values published to the trusted MQTT ingest
// topics (spaceapi/ingest/sensors/{key}) and writes them through the
// sensor registry without a session.
//
// The topics carry no authentication of their own. Only enable ingest when
// the broker ACL restricts who may publish there.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/spaceapi-core/internal/audit"
	"github.com/nerrad567/spaceapi-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/spaceapi-core/internal/notify"
	"github.com/nerrad567/spaceapi-core/internal/sensor"
)

// DefaultTimeout bounds the store write for one ingested message.
const DefaultTimeout = 5 * time.Second

// Logger is the logging interface used by the ingester.
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

// Subscriber is the subset of the MQTT client the ingester needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Registry validates and stores sensor values.
type Registry interface {
	Lookup(dataKey string) (sensor.Spec, bool)
	Update(ctx context.Context, dataKey, value string) error
}

// Ingester bridges the ingest topics to the sensor registry.
type Ingester struct {
	sub      Subscriber
	registry Registry
	notifier *notify.Notifier
	qos      byte
	timeout  time.Duration
	logger   Logger

	ctx context.Context
}

// New creates an ingester. notifier may be nil.
func New(sub Subscriber, registry Registry, notifier *notify.Notifier, qos byte) *Ingester {
	return &Ingester{
		sub:      sub,
		registry: registry,
		notifier: notifier,
		qos:      qos,
		timeout:  DefaultTimeout,
		logger:   noopLogger{},
		ctx:      context.Background(),
	}
}

// SetLogger sets the logger.
func (i *Ingester) SetLogger(logger Logger) {
	if logger != nil {
		i.logger = logger
	}
}

// Start subscribes to the ingest wildcard topic. Handlers derive their
// store deadline from ctx.
func (i *Ingester) Start(ctx context.Context) error {
	i.ctx = ctx
	topic := mqtt.Topics{}.AllIngestSensors()
	if err := i.sub.Subscribe(topic, i.qos, i.handle); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	i.logger.Info("sensor ingest started", "topic", topic)
	return nil
}

// Stop removes the subscription.
func (i *Ingester) Stop() error {
	if err := i.sub.Unsubscribe(mqtt.Topics{}.AllIngestSensors()); err != nil {
		return fmt.Errorf("unsubscribing ingest topic: %w", err)
	}
	return nil
}

// handle processes one ingest message. The payload is the raw value;
// surrounding whitespace is trimmed.
func (i *Ingester) handle(topic string, payload []byte) error {
	key, ok := mqtt.ParseIngestTopic(topic)
	if !ok {
		return fmt.Errorf("unexpected ingest topic %q", topic)
	}
	value := strings.TrimSpace(string(payload))

	ctx, cancel := context.WithTimeout(i.ctx, i.timeout)
	defer cancel()

	ev := notify.Event{
		SensorKey: key,
		Source:    audit.SourceMQTT,
	}
	if spec, found := i.registry.Lookup(key); found {
		ev.Kind = string(spec.Template.Kind())
		ev.Location = spec.Template.Describe().Location
	}

	err := i.registry.Update(ctx, key, value)
	if err != nil {
		ev.Outcome = audit.OutcomeRejected
		ev.Reason = rejectReason(err)
		i.notifier.Notify(ctx, ev)
		return fmt.Errorf("ingesting %s: %w", key, err)
	}

	ev.Outcome = audit.OutcomeAccepted
	ev.Value = value
	i.notifier.Notify(ctx, ev)
	i.logger.Debug("sensor value ingested", "sensor", key)
	return nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, sensor.ErrUnknownSensor):
		return "unknown sensor"
	case errors.Is(err, sensor.ErrInvalidValue):
		return "invalid value"
	default:
		return "store unavailable"
	}
}
