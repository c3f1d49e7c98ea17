package modifier

import (
	"context"
	"errors"
	"strconv"

	"github.com/nerrad567/spaceapi-core/internal/infrastructure/kvstore"
	"github.com/nerrad567/spaceapi-core/internal/status"
)

// Store keys read by StateFromStore.
const (
	KeyStateOpen          = "state_open"
	KeyStateLastChange    = "state_lastchange"
	KeyStateTriggerPerson = "state_triggerperson"
)

// StateFromStore applies state fields kept directly in the store, for setups
// where an external agent (a door switch, a bot) owns the open state.
//
// Absent keys leave the corresponding field untouched. Unparseable values and
// store failures are logged and skipped.
type StateFromStore struct {
	store  kvstore.Store
	logger Logger
}

// NewStateFromStore creates the modifier.
func NewStateFromStore(store kvstore.Store) *StateFromStore {
	return &StateFromStore{store: store, logger: noopLogger{}}
}

// SetLogger sets the logger for the modifier.
func (m *StateFromStore) SetLogger(logger Logger) {
	m.logger = logger
}

// Modify implements Modifier.
func (m *StateFromStore) Modify(ctx context.Context, doc *status.Document) {
	if v, ok := m.get(ctx, KeyStateOpen); ok {
		if open, err := strconv.ParseBool(v); err == nil {
			doc.EnsureState().Open = &open
		} else {
			m.logger.Warn("ignoring unparseable state value", "key", KeyStateOpen)
		}
	}

	if v, ok := m.get(ctx, KeyStateLastChange); ok {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			doc.EnsureState().LastChange = &ts
		} else {
			m.logger.Warn("ignoring unparseable state value", "key", KeyStateLastChange)
		}
	}

	if v, ok := m.get(ctx, KeyStateTriggerPerson); ok {
		doc.EnsureState().TriggerPerson = v
	}
}

func (m *StateFromStore) get(ctx context.Context, key string) (string, bool) {
	v, err := m.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			m.logger.Warn("state read failed", "key", key, "error", err)
		}
		return "", false
	}
	return v, true
}
