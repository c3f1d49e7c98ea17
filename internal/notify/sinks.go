package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nerrad567/spaceapi-core/internal/audit"
	"github.com/nerrad567/spaceapi-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/spaceapi-core/internal/sensor"
)

// StatusBuilder renders the current status document.
type StatusBuilder interface {
	Build(ctx context.Context) ([]byte, error)
}

// Publisher publishes retained MQTT messages.
type Publisher interface {
	PublishRetained(topic string, payload []byte) error
}

// SensorUpdateMessage is the payload published for an accepted write.
type SensorUpdateMessage struct {
	Sensor    string `json:"sensor"`
	Kind      string `json:"kind,omitempty"`
	Value     string `json:"value"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
}

// MQTTSink publishes accepted writes to spaceapi/sensors/{key} and, when a
// builder is set, the full document to spaceapi/status. Both are retained.
type MQTTSink struct {
	pub     Publisher
	builder StatusBuilder
}

// NewMQTTSink creates an MQTT sink. builder may be nil.
func NewMQTTSink(pub Publisher, builder StatusBuilder) *MQTTSink {
	return &MQTTSink{pub: pub, builder: builder}
}

// Notify implements Sink.
func (s *MQTTSink) Notify(ctx context.Context, ev Event) error {
	if !ev.Accepted() {
		return nil
	}

	payload, err := json.Marshal(SensorUpdateMessage{
		Sensor:    ev.SensorKey,
		Kind:      ev.Kind,
		Value:     ev.Value,
		Source:    string(ev.Source),
		Timestamp: ev.At.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("encoding sensor update: %w", err)
	}
	if err := s.pub.PublishRetained(mqtt.Topics{}.SensorUpdate(ev.SensorKey), payload); err != nil {
		return fmt.Errorf("publishing sensor update: %w", err)
	}

	if s.builder == nil {
		return nil
	}
	doc, err := s.builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("building status document: %w", err)
	}
	if err := s.pub.PublishRetained(mqtt.Topics{}.Status(), doc); err != nil {
		return fmt.Errorf("publishing status document: %w", err)
	}
	return nil
}

// HistoryWriter records sensor history. Writes are non-blocking.
type HistoryWriter interface {
	WriteSensorValue(kind, key, location string, value float64, at time.Time)
	WriteUpdateOutcome(key, source, outcome string, at time.Time)
}

// HistorySink records every outcome and the numeric value of accepted writes.
type HistorySink struct {
	w HistoryWriter
}

// NewHistorySink creates a history sink.
func NewHistorySink(w HistoryWriter) *HistorySink {
	return &HistorySink{w: w}
}

// Notify implements Sink.
func (s *HistorySink) Notify(_ context.Context, ev Event) error {
	s.w.WriteUpdateOutcome(ev.SensorKey, string(ev.Source), string(ev.Outcome), ev.At)

	if !ev.Accepted() {
		return nil
	}
	v, ok := numericValue(sensor.Kind(ev.Kind), ev.Value)
	if !ok {
		return nil
	}
	s.w.WriteSensorValue(ev.Kind, ev.SensorKey, ev.Location, v, ev.At)
	return nil
}

// numericValue converts a stored value to a number for the time series.
// door_locked maps true/false to 1/0.
func numericValue(kind sensor.Kind, value string) (float64, bool) {
	if kind == sensor.KindDoorLocked {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return 0, false
		}
		if b {
			return 1, true
		}
		return 0, true
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// AuditSink writes every event to the audit trail.
type AuditSink struct {
	repo audit.Repository
}

// NewAuditSink creates an audit sink.
func NewAuditSink(repo audit.Repository) *AuditSink {
	return &AuditSink{repo: repo}
}

// Notify implements Sink.
func (s *AuditSink) Notify(ctx context.Context, ev Event) error {
	return s.repo.Create(ctx, &audit.Entry{
		SensorKey:  ev.SensorKey,
		Source:     ev.Source,
		Outcome:    ev.Outcome,
		Reason:     ev.Reason,
		SessionID:  ev.SessionID,
		RemoteAddr: ev.RemoteAddr,
		CreatedAt:  ev.At,
	})
}

// Broadcaster pushes an event to WebSocket clients subscribed to channel.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// ChannelStatusUpdated is the WebSocket channel for accepted writes.
const ChannelStatusUpdated = "status.updated"

// StatusUpdatedPayload is broadcast on ChannelStatusUpdated.
type StatusUpdatedPayload struct {
	Sensor string          `json:"sensor"`
	Source string          `json:"source"`
	Status json.RawMessage `json:"status,omitempty"`
}

// BroadcastSink announces accepted writes to WebSocket clients, attaching
// the freshly assembled document when a builder is set.
type BroadcastSink struct {
	b       Broadcaster
	builder StatusBuilder
}

// NewBroadcastSink creates a broadcast sink. builder may be nil.
func NewBroadcastSink(b Broadcaster, builder StatusBuilder) *BroadcastSink {
	return &BroadcastSink{b: b, builder: builder}
}

// Notify implements Sink.
func (s *BroadcastSink) Notify(ctx context.Context, ev Event) error {
	if !ev.Accepted() {
		return nil
	}

	payload := StatusUpdatedPayload{
		Sensor: ev.SensorKey,
		Source: string(ev.Source),
	}
	if s.builder != nil {
		doc, err := s.builder.Build(ctx)
		if err != nil {
			return fmt.Errorf("building status document: %w", err)
		}
		payload.Status = doc
	}
	s.b.Broadcast(ChannelStatusUpdated, payload)
	return nil
}
