package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the root of every topic the server uses.
const TopicPrefix = "spaceapi"

// Topics provides builders for SpaceAPI MQTT topics.
//
//	spaceapi/system/status            retained presence of the server
//	spaceapi/status                   retained full status document
//	spaceapi/sensors/{key}            accepted sensor writes
//	spaceapi/ingest/sensors/{key}     trusted inbound sensor values
type Topics struct{}

// SystemStatus returns the presence topic (online/offline, LWT).
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// Status returns the topic carrying the latest assembled status document.
func (Topics) Status() string {
	return TopicPrefix + "/status"
}

// SensorUpdate returns the topic announcing an accepted write to a sensor.
//
// Example: spaceapi/sensors/temp_room
func (Topics) SensorUpdate(key string) string {
	return fmt.Sprintf("%s/sensors/%s", TopicPrefix, key)
}

// IngestSensor returns the trusted ingest topic for a sensor.
//
// Example: spaceapi/ingest/sensors/temp_room
func (Topics) IngestSensor(key string) string {
	return fmt.Sprintf("%s/ingest/sensors/%s", TopicPrefix, key)
}

// AllIngestSensors returns the wildcard subscription for trusted ingest.
func (Topics) AllIngestSensors() string {
	return TopicPrefix + "/ingest/sensors/+"
}

// ParseIngestTopic extracts the sensor key from an ingest topic.
func ParseIngestTopic(topic string) (string, bool) {
	prefix := TopicPrefix + "/ingest/sensors/"
	key, ok := strings.CutPrefix(topic, prefix)
	if !ok || key == "" || strings.Contains(key, "/") {
		return "", false
	}
	return key, true
}
