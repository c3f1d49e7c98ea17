package sensor

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/spaceapi-core/internal/infrastructure/config"
	"github.com/nerrad567/spaceapi-core/internal/infrastructure/kvstore"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// DefaultConcurrency bounds the number of simultaneous store reads in ResolveAll.
const DefaultConcurrency = 4

// Spec is one registered sensor.
type Spec struct {
	Template Template
	DataKey  string
}

// Reading is the outcome of reading one sensor. Exactly one of Value and Err is meaningful.
type Reading struct {
	Spec  Spec
	Value string
	Err   error
}

// Builder collects sensor registrations before the Registry is frozen.
// A Builder is not safe for concurrent use.
type Builder struct {
	specs       []Spec
	keys        map[string]struct{}
	logger      Logger
	concurrency int
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		keys:        make(map[string]struct{}),
		logger:      noopLogger{},
		concurrency: DefaultConcurrency,
	}
}

// SetLogger sets the logger handed to the built Registry.
func (b *Builder) SetLogger(logger Logger) {
	b.logger = logger
}

// SetConcurrency sets the ResolveAll read limit. Values below 1 are ignored.
func (b *Builder) SetConcurrency(n int) {
	if n >= 1 {
		b.concurrency = n
	}
}

// Register adds a sensor. It returns ErrDuplicateSensor if dataKey is already registered.
func (b *Builder) Register(tmpl Template, dataKey string) error {
	if tmpl == nil {
		return errors.New("sensor: nil template")
	}
	if dataKey == "" {
		return errors.New("sensor: empty data key")
	}
	if _, ok := b.keys[dataKey]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateSensor, dataKey)
	}

	b.keys[dataKey] = struct{}{}
	b.specs = append(b.specs, Spec{Template: tmpl, DataKey: dataKey})
	return nil
}

// Build freezes the registrations into a Registry backed by store.
// The builder must not be reused afterwards.
func (b *Builder) Build(store kvstore.Store) *Registry {
	specs := make([]Spec, len(b.specs))
	copy(specs, b.specs)

	index := make(map[string]int, len(specs))
	for i, s := range specs {
		index[s.DataKey] = i
	}

	return &Registry{
		specs:       specs,
		index:       index,
		store:       store,
		logger:      b.logger,
		concurrency: b.concurrency,
	}
}

// FromConfig registers every configured sensor, in configuration order.
func (b *Builder) FromConfig(sensors []config.SensorConfig) error {
	for i, sc := range sensors {
		tmpl, err := NewTemplate(Kind(sc.Kind), Metadata{
			Location:    sc.Location,
			Name:        sc.Name,
			Description: sc.Description,
			Unit:        sc.Unit,
		})
		if err != nil {
			return fmt.Errorf("sensors[%d]: %w", i, err)
		}
		if err := b.Register(tmpl, sc.Key); err != nil {
			return fmt.Errorf("sensors[%d]: %w", i, err)
		}
	}
	return nil
}

// Registry is the frozen set of sensors. It is read-only and safe for concurrent use.
type Registry struct {
	specs       []Spec
	index       map[string]int
	store       kvstore.Store
	logger      Logger
	concurrency int
}

// Len returns the number of registered sensors.
func (r *Registry) Len() int {
	return len(r.specs)
}

// Keys returns the registered data keys in registration order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.specs))
	for i, s := range r.specs {
		keys[i] = s.DataKey
	}
	return keys
}

// Lookup returns the spec registered under dataKey.
func (r *Registry) Lookup(dataKey string) (Spec, bool) {
	i, ok := r.index[dataKey]
	if !ok {
		return Spec{}, false
	}
	return r.specs[i], true
}

// ResolveAll reads every sensor's current value.
//
// Reads run concurrently up to the configured limit. The result has one
// Reading per sensor in registration order. A failed read is logged with its
// key and reported in Reading.Err; it never affects the other sensors.
func (r *Registry) ResolveAll(ctx context.Context) []Reading {
	readings := make([]Reading, len(r.specs))

	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i, spec := range r.specs {
		g.Go(func() error {
			v, err := r.store.Get(ctx, spec.DataKey)
			readings[i] = Reading{Spec: spec, Value: v, Err: err}

			switch {
			case err == nil:
			case errors.Is(err, kvstore.ErrNotFound):
				r.logger.Debug("sensor has no value", "key", spec.DataKey)
			default:
				r.logger.Warn("sensor read failed", "key", spec.DataKey, "error", err)
			}
			// Errors are carried in the reading, never returned, so the
			// group never cancels sibling reads.
			return nil
		})
	}
	_ = g.Wait()

	return readings
}

// Update writes value for the sensor registered under dataKey.
//
// Returns ErrUnknownSensor without touching the store if dataKey is not
// registered, and ErrInvalidValue if the sensor's template rejects value.
// Store failures are wrapped and match the kvstore sentinels.
func (r *Registry) Update(ctx context.Context, dataKey, value string) error {
	spec, ok := r.Lookup(dataKey)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSensor, dataKey)
	}

	if err := spec.Template.Validate(value); err != nil {
		return err
	}

	if err := r.store.Set(ctx, dataKey, value); err != nil {
		return fmt.Errorf("writing sensor %q: %w", dataKey, err)
	}

	r.logger.Debug("sensor updated", "key", dataKey)
	return nil
}
