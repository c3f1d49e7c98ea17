package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nerrad567/spaceapi-core/internal/audit"
)

var testTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func acceptedEvent() Event {
	return Event{
		SensorKey: "temp_room",
		Kind:      "temperature",
		Location:  "Hackcenter",
		Value:     "21.5",
		Source:    audit.SourceHTTP,
		Outcome:   audit.OutcomeAccepted,
		SessionID: "0f8fad5b-d9cb-469f-a165-70867728950e",
		At:        testTime,
	}
}

func rejectedEvent() Event {
	return Event{
		SensorKey: "temp_room",
		Source:    audit.SourceHTTP,
		Outcome:   audit.OutcomeRejected,
		Reason:    "invalid or expired session",
		At:        testTime,
	}
}

type published struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) PublishRetained(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{topic: topic, payload: payload})
	return nil
}

type fakeBuilder struct {
	doc []byte
	err error
}

func (b fakeBuilder) Build(context.Context) ([]byte, error) {
	return b.doc, b.err
}

type fakeHistory struct {
	values   []float64
	outcomes []string
	location string
}

func (h *fakeHistory) WriteSensorValue(_, _, location string, value float64, _ time.Time) {
	h.values = append(h.values, value)
	h.location = location
}

func (h *fakeHistory) WriteUpdateOutcome(_, source, outcome string, _ time.Time) {
	h.outcomes = append(h.outcomes, source+"/"+outcome)
}

type fakeRepo struct {
	entries []audit.Entry
	err     error
}

func (r *fakeRepo) Create(_ context.Context, e *audit.Entry) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, *e)
	return nil
}

func (r *fakeRepo) List(context.Context, audit.Filter) (*audit.ListResult, error) {
	return &audit.ListResult{Entries: r.entries, Total: len(r.entries)}, nil
}

type fakeBroadcaster struct {
	channel string
	payload any
	calls   int
}

func (b *fakeBroadcaster) Broadcast(channel string, payload any) {
	b.channel = channel
	b.payload = payload
	b.calls++
}

type recordingLogger struct {
	noopLogger
	warnings int
}

func (l *recordingLogger) Warn(string, ...any) { l.warnings++ }

func TestNotifier_DeliversInOrderAndSurvivesFailures(t *testing.T) {
	n := New()
	logger := &recordingLogger{}
	n.SetLogger(logger)

	var order []string
	n.Add("first", SinkFunc(func(context.Context, Event) error {
		order = append(order, "first")
		return errors.New("boom")
	}))
	n.Add("nil", nil)
	n.Add("second", SinkFunc(func(context.Context, Event) error {
		order = append(order, "second")
		return nil
	}))

	if n.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (nil sink ignored)", n.Len())
	}

	n.Notify(context.Background(), acceptedEvent())

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("order = %v, want [first second]", order)
	}
	if logger.warnings != 1 {
		t.Errorf("warnings = %d, want 1", logger.warnings)
	}
}

func TestNotifier_FillsTimestamp(t *testing.T) {
	n := New()
	n.now = func() time.Time { return testTime }

	var got time.Time
	n.Add("capture", SinkFunc(func(_ context.Context, ev Event) error {
		got = ev.At
		return nil
	}))

	ev := acceptedEvent()
	ev.At = time.Time{}
	n.Notify(context.Background(), ev)

	if !got.Equal(testTime) {
		t.Errorf("At = %v, want %v", got, testTime)
	}
}

func TestNotifier_NilIsNoop(t *testing.T) {
	var n *Notifier
	n.Notify(context.Background(), acceptedEvent())
	if n.Len() != 0 {
		t.Errorf("Len() on nil = %d", n.Len())
	}
}

func TestMQTTSink(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewMQTTSink(pub, fakeBuilder{doc: []byte(`{"space":"Test"}`)})

	if err := sink.Notify(context.Background(), acceptedEvent()); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if len(pub.msgs) != 2 {
		t.Fatalf("published %d messages, want 2", len(pub.msgs))
	}
	if pub.msgs[0].topic != "spaceapi/sensors/temp_room" {
		t.Errorf("topic = %q", pub.msgs[0].topic)
	}

	var msg SensorUpdateMessage
	if err := json.Unmarshal(pub.msgs[0].payload, &msg); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if msg.Value != "21.5" || msg.Source != "http" || msg.Timestamp != "2026-03-01T09:00:00Z" {
		t.Errorf("payload = %+v", msg)
	}

	if pub.msgs[1].topic != "spaceapi/status" || string(pub.msgs[1].payload) != `{"space":"Test"}` {
		t.Errorf("status message = %s %s", pub.msgs[1].topic, pub.msgs[1].payload)
	}
}

func TestMQTTSink_SkipsRejectedAndReportsErrors(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewMQTTSink(pub, nil)

	if err := sink.Notify(context.Background(), rejectedEvent()); err != nil {
		t.Fatalf("Notify(rejected) error = %v", err)
	}
	if len(pub.msgs) != 0 {
		t.Errorf("rejected write published %d messages", len(pub.msgs))
	}

	pub.err = errors.New("not connected")
	if err := sink.Notify(context.Background(), acceptedEvent()); err == nil {
		t.Error("Notify() expected publish error")
	}

	failing := NewMQTTSink(&fakePublisher{}, fakeBuilder{err: errors.New("store down")})
	if err := failing.Notify(context.Background(), acceptedEvent()); err == nil {
		t.Error("Notify() expected build error")
	}
}

func TestHistorySink(t *testing.T) {
	tests := []struct {
		name         string
		ev           Event
		wantValues   []float64
		wantOutcomes int
	}{
		{
			name:         "numeric value",
			ev:           acceptedEvent(),
			wantValues:   []float64{21.5},
			wantOutcomes: 1,
		},
		{
			name: "door locked maps to one",
			ev: func() Event {
				ev := acceptedEvent()
				ev.Kind, ev.Value = "door_locked", "true"
				return ev
			}(),
			wantValues:   []float64{1},
			wantOutcomes: 1,
		},
		{
			name:         "rejected records only the outcome",
			ev:           rejectedEvent(),
			wantOutcomes: 1,
		},
		{
			name: "non numeric value skipped",
			ev: func() Event {
				ev := acceptedEvent()
				ev.Value = "warm"
				return ev
			}(),
			wantOutcomes: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &fakeHistory{}
			if err := NewHistorySink(h).Notify(context.Background(), tt.ev); err != nil {
				t.Fatalf("Notify() error = %v", err)
			}
			if len(h.outcomes) != tt.wantOutcomes {
				t.Errorf("outcomes = %v", h.outcomes)
			}
			if len(h.values) != len(tt.wantValues) {
				t.Fatalf("values = %v, want %v", h.values, tt.wantValues)
			}
			for i := range h.values {
				if h.values[i] != tt.wantValues[i] {
					t.Errorf("values[%d] = %v, want %v", i, h.values[i], tt.wantValues[i])
				}
			}
		})
	}
}

func TestAuditSink(t *testing.T) {
	repo := &fakeRepo{}
	sink := NewAuditSink(repo)

	if err := sink.Notify(context.Background(), rejectedEvent()); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	e := repo.entries[0]
	if e.Outcome != audit.OutcomeRejected || e.Reason != "invalid or expired session" || !e.CreatedAt.Equal(testTime) {
		t.Errorf("entry = %+v", e)
	}

	repo.err = errors.New("disk full")
	if err := sink.Notify(context.Background(), acceptedEvent()); err == nil {
		t.Error("Notify() expected repository error")
	}
}

func TestBroadcastSink(t *testing.T) {
	b := &fakeBroadcaster{}
	sink := NewBroadcastSink(b, fakeBuilder{doc: []byte(`{"space":"Test"}`)})

	if err := sink.Notify(context.Background(), rejectedEvent()); err != nil {
		t.Fatalf("Notify(rejected) error = %v", err)
	}
	if b.calls != 0 {
		t.Fatalf("rejected write broadcast %d times", b.calls)
	}

	if err := sink.Notify(context.Background(), acceptedEvent()); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if b.channel != ChannelStatusUpdated {
		t.Errorf("channel = %q, want %q", b.channel, ChannelStatusUpdated)
	}
	payload, ok := b.payload.(StatusUpdatedPayload)
	if !ok {
		t.Fatalf("payload type = %T", b.payload)
	}
	if payload.Sensor != "temp_room" || string(payload.Status) != `{"space":"Test"}` {
		t.Errorf("payload = %+v", payload)
	}
}

func TestMetricsSink(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewMetricsSink(reg)
	if err != nil {
		t.Fatalf("NewMetricsSink() error = %v", err)
	}

	ctx := context.Background()
	_ = sink.Notify(ctx, acceptedEvent())
	_ = sink.Notify(ctx, acceptedEvent())
	_ = sink.Notify(ctx, rejectedEvent())

	if got := testutil.ToFloat64(sink.updates.WithLabelValues("http", "accepted")); got != 2 {
		t.Errorf("accepted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(sink.updates.WithLabelValues("http", "rejected")); got != 1 {
		t.Errorf("rejected = %v, want 1", got)
	}

	if _, err := NewMetricsSink(reg); err == nil {
		t.Error("registering the counter twice should fail")
	}
}

func TestQueue_DeliversAndDrainsOnShutdown(t *testing.T) {
	repo := &fakeRepo{}
	q := NewQueue(NewAuditSink(repo), 8)

	for i := 0; i < 3; i++ {
		_ = q.Notify(context.Background(), acceptedEvent())
	}

	// Run with an already-cancelled context: everything buffered is drained.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.Run(ctx)

	select {
	case <-q.Done():
	default:
		t.Fatal("Done() not closed after Run returned")
	}
	if len(repo.entries) != 3 {
		t.Errorf("entries = %d, want 3", len(repo.entries))
	}
}

func TestQueue_DropsWhenFull(t *testing.T) {
	logger := &recordingLogger{}
	q := NewQueue(NewAuditSink(&fakeRepo{}), 1)
	q.SetLogger(logger)

	_ = q.Notify(context.Background(), acceptedEvent())
	_ = q.Notify(context.Background(), acceptedEvent())

	if logger.warnings != 1 {
		t.Errorf("warnings = %d, want 1 dropped event", logger.warnings)
	}
}
