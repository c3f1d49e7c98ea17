package kvstore

import "errors"

// Domain-specific errors for store operations.
var (
	// ErrNotFound is returned when the key does not exist or has expired.
	ErrNotFound = errors.New("kvstore: key not found")

	// ErrUnavailable is returned when the backend cannot be reached in time:
	// pool acquisition timeout, dial or network failure, deadline exceeded,
	// or a closed client.
	ErrUnavailable = errors.New("kvstore: store unavailable")

	// ErrBackend is returned when the backend replied with a protocol-level error.
	ErrBackend = errors.New("kvstore: backend error")
)

// IsNotFound reports whether err means the key is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
