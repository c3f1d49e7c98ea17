package session

import (
	"errors"

	"github.com/nerrad567/spaceapi-core/internal/sensor"
)

// Domain errors for the session package.
//
// ErrSessionNotFound, ErrSessionExpired and ErrSignatureMismatch are
// authorization failures; transports should report them with one generic
// message so callers cannot tell them apart.
var (
	// ErrSessionNotFound is returned when the session id is unknown, already
	// consumed, or expired out of the store.
	ErrSessionNotFound = errors.New("session: not found")

	// ErrSessionExpired is returned when a session record is found but its
	// lifetime has elapsed.
	ErrSessionExpired = errors.New("session: expired")

	// ErrSignatureMismatch is returned when the signature does not match the
	// session secret, or the session was issued for a different sensor.
	ErrSignatureMismatch = errors.New("session: signature mismatch")

	// ErrMalformedSignature is returned when the signature is not a hex-encoded SHA-256 MAC.
	ErrMalformedSignature = errors.New("session: malformed signature")

	// ErrMalformedSecret is returned by Sign when the secret is not valid hex.
	ErrMalformedSecret = errors.New("session: malformed secret")

	// ErrUnavailable is returned when the store fails while creating or verifying a session.
	ErrUnavailable = errors.New("session: store unavailable")

	// ErrUnknownSensor is returned when the sensor key is not registered.
	ErrUnknownSensor = sensor.ErrUnknownSensor
)

// IsAuthFailure reports whether err is one of the authorization failures.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrSignatureMismatch)
}
