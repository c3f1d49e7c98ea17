package session

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/spaceapi-core/internal/infrastructure/kvstore"
	"github.com/nerrad567/spaceapi-core/internal/sensor"
)

// Logger defines the logging interface used by the Manager.
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

const (
	// DefaultTTL is the session lifetime used when none is configured.
	DefaultTTL = 5 * time.Minute

	// KeyPrefix namespaces session records in the store.
	KeyPrefix = "spaceapi:session:"

	secretSize = 32
)

// SensorLookup reports whether a sensor is registered. *sensor.Registry satisfies it.
type SensorLookup interface {
	Lookup(dataKey string) (sensor.Spec, bool)
}

// Record is the persisted form of a session.
type Record struct {
	ID        string    `json:"id"`
	SensorKey string    `json:"sensor_key"`
	Secret    string    `json:"secret"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Token is handed to the agent when a session is created.
type Token struct {
	SessionID string `json:"session_id"`
	Secret    string `json:"secret"`
	ExpiresIn int    `json:"expires_in"`
}

// Manager creates and consumes update sessions. Safe for concurrent use.
type Manager struct {
	store   kvstore.Store
	sensors SensorLookup
	ttl     time.Duration
	now     func() time.Time
	random  io.Reader
	logger  Logger
}

// NewManager creates a session manager. A non-positive ttl selects DefaultTTL.
func NewManager(store kvstore.Store, sensors SensorLookup, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store:   store,
		sensors: sensors,
		ttl:     ttl,
		now:     time.Now,
		random:  rand.Reader,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// TTL returns the session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func sessionKey(id string) string {
	return KeyPrefix + id
}

// Create issues a session authorizing one write to sensorKey.
//
// Returns ErrUnknownSensor without touching the store if the sensor is not
// registered, and ErrUnavailable if the record cannot be stored.
func (m *Manager) Create(ctx context.Context, sensorKey string) (Token, error) {
	if _, ok := m.sensors.Lookup(sensorKey); !ok {
		return Token{}, fmt.Errorf("%w: %q", ErrUnknownSensor, sensorKey)
	}

	secret := make([]byte, secretSize)
	if _, err := io.ReadFull(m.random, secret); err != nil {
		return Token{}, fmt.Errorf("generating session secret: %w", err)
	}

	now := m.now()
	rec := Record{
		ID:        uuid.NewString(),
		SensorKey: sensorKey,
		Secret:    hex.EncodeToString(secret),
		IssuedAt:  now.UTC(),
		ExpiresAt: now.Add(m.ttl).UTC(),
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return Token{}, fmt.Errorf("encoding session: %w", err)
	}

	if err := m.store.SetWithTTL(ctx, sessionKey(rec.ID), string(payload), m.ttl); err != nil {
		return Token{}, fmt.Errorf("%w: storing session: %w", ErrUnavailable, err)
	}

	m.logger.Debug("session created", "session_id", rec.ID, "sensor", sensorKey)

	return Token{
		SessionID: rec.ID,
		Secret:    rec.Secret,
		ExpiresIn: int(m.ttl / time.Second),
	}, nil
}

// VerifyAndConsume checks that signature authorizes writing value to
// sensorKey under the given session, and ends the session.
//
// The record is removed from the store before the signature is checked, so a
// session can be attempted exactly once whatever the outcome. The caller
// performs the write only when the result is nil.
func (m *Manager) VerifyAndConsume(ctx context.Context, sessionID, signature, sensorKey, value string) error {
	if _, ok := m.sensors.Lookup(sensorKey); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSensor, sensorKey)
	}

	// Ids are always UUIDs; anything else cannot name a record.
	if _, err := uuid.Parse(sessionID); err != nil {
		return ErrSessionNotFound
	}

	raw, err := m.store.Take(ctx, sessionKey(sessionID))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("%w: loading session: %w", ErrUnavailable, err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		m.logger.Warn("discarding corrupt session record", "session_id", sessionID, "error", err)
		return ErrSessionNotFound
	}

	if !m.now().Before(rec.ExpiresAt) {
		m.logger.Debug("session expired", "session_id", sessionID)
		return ErrSessionExpired
	}

	sig, err := decodeSignature(signature)
	if err != nil {
		return err
	}

	secret, err := hex.DecodeString(rec.Secret)
	if err != nil {
		m.logger.Warn("discarding session with corrupt secret", "session_id", sessionID)
		return ErrSessionNotFound
	}

	expected := mac(secret, sensorKey, value)
	macOK := hmac.Equal(sig, expected)
	if !macOK || rec.SensorKey != sensorKey {
		m.logger.Info("session signature rejected", "session_id", sessionID, "sensor", sensorKey)
		return ErrSignatureMismatch
	}

	m.logger.Debug("session verified", "session_id", sessionID, "sensor", sensorKey)
	return nil
}
