// Package sensor holds the sensor registry and the per-kind sensor templates.
//
// A Registry is assembled once at startup with a Builder and frozen by
// Build; it is read-only afterwards and needs no locking. Each registered
// Spec pairs a Template (static metadata plus rendering logic for one sensor
// kind) with the store key that holds the sensor's current value.
//
// Values are stored as strings and parsed only when rendered, so the store
// stays agnostic of sensor kinds.
//
// Usage:
//
//	b := sensor.NewBuilder()
//	b.SetLogger(logger)
//	tmpl, _ := sensor.NewTemplate(sensor.KindTemperature, sensor.Metadata{Location: "Hall"})
//	if err := b.Register(tmpl, "temp_hall"); err != nil {
//	    return err
//	}
//	reg := b.Build(store)
//
//	for _, r := range reg.ResolveAll(ctx) {
//	    if r.Err == nil {
//	        _ = r.Spec.Template.Render(r.Value, doc.EnsureSensors())
//	    }
//	}
package sensor
