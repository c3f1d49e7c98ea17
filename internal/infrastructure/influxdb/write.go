package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the server.
const (
	measurementSensor  = "sensor_value"
	measurementUpdates = "sensor_updates"
)

// sensorPoint builds the point for one numeric sensor reading.
//
// Tags stay low-cardinality: kind, key and location come from
// configuration, never from request data.
func sensorPoint(kind, key, location string, value float64, at time.Time) *write.Point {
	tags := map[string]string{
		"kind": kind,
		"key":  key,
	}
	if location != "" {
		tags["location"] = location
	}

	return write.NewPoint(
		measurementSensor,
		tags,
		map[string]interface{}{
			"value": value,
		},
		at,
	)
}

// updatePoint counts a write attempt so rejected updates are visible next to values.
func updatePoint(key, source, outcome string, at time.Time) *write.Point {
	return write.NewPoint(
		measurementUpdates,
		map[string]string{
			"key":     key,
			"source":  source,
			"outcome": outcome,
		},
		map[string]interface{}{
			"count": 1,
		},
		at,
	)
}

// WriteSensorValue records a numeric sensor reading. Non-blocking; points are batched.
//
// Example:
//
//	client.WriteSensorValue("temperature", "temp_room", "Hackcenter", 21.5, time.Now())
func (c *Client) WriteSensorValue(kind, key, location string, value float64, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(sensorPoint(kind, key, location, value, at))
}

// WriteUpdateOutcome records one sensor write attempt and how it ended
// (accepted, rejected, unavailable).
func (c *Client) WriteUpdateOutcome(key, source, outcome string, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(updatePoint(key, source, outcome, at))
}
