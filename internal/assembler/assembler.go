// Package assembler produces the per-request status document from the static
// baseline, the current sensor readings and the modifier chain.
package assembler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/spaceapi-core/internal/modifier"
	"github.com/nerrad567/spaceapi-core/internal/sensor"
	"github.com/nerrad567/spaceapi-core/internal/status"
)

// Logger defines the logging interface used by the Assembler.
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

// Resolver reads the current value of every registered sensor.
// *sensor.Registry satisfies it.
type Resolver interface {
	ResolveAll(ctx context.Context) []sensor.Reading
}

// Assembler builds status documents. It is safe for concurrent use: the only
// shared state is the read-only baseline and the resolver.
type Assembler struct {
	baseline *status.Document
	resolver Resolver
	chain    *modifier.Chain
	logger   Logger
}

// New creates an Assembler. The baseline is cloned so later changes by the
// caller cannot leak into served documents.
func New(baseline *status.Document, resolver Resolver, chain *modifier.Chain) *Assembler {
	return &Assembler{
		baseline: baseline.Clone(),
		resolver: resolver,
		chain:    chain,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the assembler.
func (a *Assembler) SetLogger(logger Logger) {
	a.logger = logger
}

// Document assembles the current status document.
//
// Readings are rendered in registration order. The sensors section is
// created on the first successful render, so it is absent rather than
// empty when nothing renders. Values that fail to parse are logged and
// omitted.
func (a *Assembler) Document(ctx context.Context) *status.Document {
	doc := a.baseline.Clone()

	for _, r := range a.resolver.ResolveAll(ctx) {
		if r.Err != nil {
			continue
		}

		// Render into a scratch section first so a failed parse never
		// creates an empty sensors section.
		var scratch status.Sensors
		if err := r.Spec.Template.Render(r.Value, &scratch); err != nil {
			a.logger.Warn("dropping unrenderable sensor value", "key", r.Spec.DataKey, "error", err)
			continue
		}
		mergeSensors(doc.EnsureSensors(), &scratch)
	}

	a.chain.Apply(ctx, doc)
	return doc
}

// Build assembles the current status document and serializes it to JSON.
func (a *Assembler) Build(ctx context.Context) ([]byte, error) {
	doc := a.Document(ctx)

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding status document: %w", err)
	}
	return out, nil
}

func mergeSensors(dst, src *status.Sensors) {
	dst.Temperature = append(dst.Temperature, src.Temperature...)
	dst.Humidity = append(dst.Humidity, src.Humidity...)
	dst.PeopleNowPresent = append(dst.PeopleNowPresent, src.PeopleNowPresent...)
	dst.DoorLocked = append(dst.DoorLocked, src.DoorLocked...)
	dst.Barometer = append(dst.Barometer, src.Barometer...)
	dst.PowerConsumption = append(dst.PowerConsumption, src.PowerConsumption...)
}
