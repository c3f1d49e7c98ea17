package sensor

import "errors"

// Domain errors for the sensor package.
//
// Store failures are returned wrapped and match the kvstore sentinels
// (kvstore.ErrUnavailable, kvstore.ErrBackend) under errors.Is.
var (
	// ErrUnknownSensor is returned when a store key is not registered.
	ErrUnknownSensor = errors.New("sensor: unknown sensor")

	// ErrDuplicateSensor is returned when a store key is registered twice.
	ErrDuplicateSensor = errors.New("sensor: duplicate sensor key")

	// ErrInvalidValue is returned when a value cannot be parsed for the sensor's kind.
	ErrInvalidValue = errors.New("sensor: invalid value")

	// ErrUnknownKind is returned when a template is requested for an unsupported kind.
	ErrUnknownKind = errors.New("sensor: unknown kind")
)
