package notify

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsSink counts write outcomes per source.
type MetricsSink struct {
	updates *prometheus.CounterVec
}

// NewMetricsSink creates the spaceapi_sensor_updates_total counter and
// registers it with reg.
func NewMetricsSink(reg prometheus.Registerer) (*MetricsSink, error) {
	updates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spaceapi",
		Subsystem: "sensor",
		Name:      "updates_total",
		Help:      "Sensor write attempts by source and outcome",
	}, []string{"source", "outcome"})

	if err := reg.Register(updates); err != nil {
		return nil, err
	}
	return &MetricsSink{updates: updates}, nil
}

// Notify implements Sink.
func (s *MetricsSink) Notify(_ context.Context, ev Event) error {
	s.updates.WithLabelValues(string(ev.Source), string(ev.Outcome)).Inc()
	return nil
}
