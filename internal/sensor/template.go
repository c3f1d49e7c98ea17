package sensor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nerrad567/spaceapi-core/internal/status"
)

// Kind identifies a sensor template.
type Kind string

// Supported sensor kinds. Names match the SpaceAPI sensor section keys.
const (
	KindTemperature      Kind = "temperature"
	KindHumidity         Kind = "humidity"
	KindPeopleNowPresent Kind = "people_now_present"
	KindDoorLocked       Kind = "door_locked"
	KindBarometer        Kind = "barometer"
	KindPowerConsumption Kind = "power_consumption"
)

// defaultUnits holds the unit used when Metadata.Unit is empty.
var defaultUnits = map[Kind]string{
	KindTemperature:      "°C",
	KindHumidity:         "%",
	KindBarometer:        "hPa",
	KindPowerConsumption: "W",
}

// Metadata is the static description shared by every template.
type Metadata struct {
	Location    string
	Name        string
	Description string
	Unit        string
}

// Describe returns the static metadata. Every template embeds Metadata and
// so satisfies this part of the Template interface.
func (m Metadata) Describe() Metadata { return m }

// Template renders a raw stored value into the sensor section of a document.
type Template interface {
	// Kind returns the sensor kind.
	Kind() Kind

	// Describe returns the sensor's static metadata.
	Describe() Metadata

	// Validate reports whether value can be rendered. It wraps ErrInvalidValue.
	Validate(value string) error

	// Render parses value and appends one reading to into.
	Render(value string, into *status.Sensors) error
}

// NewTemplate returns the template for kind. An empty unit is replaced by the
// kind's default unit.
func NewTemplate(kind Kind, meta Metadata) (Template, error) {
	if meta.Unit == "" {
		meta.Unit = defaultUnits[kind]
	}

	switch kind {
	case KindTemperature:
		return Temperature{meta}, nil
	case KindHumidity:
		return Humidity{meta}, nil
	case KindPeopleNowPresent:
		return PeopleNowPresent{meta}, nil
	case KindDoorLocked:
		return DoorLocked{meta}, nil
	case KindBarometer:
		return Barometer{meta}, nil
	case KindPowerConsumption:
		return PowerConsumption{meta}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func parseFloat(value string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q is not a finite number", ErrInvalidValue, value)
	}
	return f, nil
}

func parseCount(value string) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a non-negative integer", ErrInvalidValue, value)
	}
	return n, nil
}

func parseBool(value string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, value)
	}
	return b, nil
}

// Temperature renders a temperature reading.
type Temperature struct{ Metadata }

func (Temperature) Kind() Kind { return KindTemperature }

func (Temperature) Validate(value string) error {
	_, err := parseFloat(value)
	return err
}

func (t Temperature) Render(value string, into *status.Sensors) error {
	v, err := parseFloat(value)
	if err != nil {
		return err
	}
	into.Temperature = append(into.Temperature, status.TemperatureSensor{
		Value:       v,
		Unit:        t.Unit,
		Location:    t.Location,
		Name:        t.Name,
		Description: t.Description,
	})
	return nil
}

// Humidity renders a relative humidity reading.
type Humidity struct{ Metadata }

func (Humidity) Kind() Kind { return KindHumidity }

func (Humidity) Validate(value string) error {
	_, err := parseFloat(value)
	return err
}

func (h Humidity) Render(value string, into *status.Sensors) error {
	v, err := parseFloat(value)
	if err != nil {
		return err
	}
	into.Humidity = append(into.Humidity, status.HumiditySensor{
		Value:       v,
		Unit:        h.Unit,
		Location:    h.Location,
		Name:        h.Name,
		Description: h.Description,
	})
	return nil
}

// PeopleNowPresent renders a head count.
type PeopleNowPresent struct{ Metadata }

func (PeopleNowPresent) Kind() Kind { return KindPeopleNowPresent }

func (PeopleNowPresent) Validate(value string) error {
	_, err := parseCount(value)
	return err
}

func (p PeopleNowPresent) Render(value string, into *status.Sensors) error {
	n, err := parseCount(value)
	if err != nil {
		return err
	}
	into.PeopleNowPresent = append(into.PeopleNowPresent, status.PeopleNowPresentSensor{
		Value:       n,
		Location:    p.Location,
		Name:        p.Name,
		Description: p.Description,
	})
	return nil
}

// DoorLocked renders a door lock state. Accepts the strconv.ParseBool forms.
type DoorLocked struct{ Metadata }

func (DoorLocked) Kind() Kind { return KindDoorLocked }

func (DoorLocked) Validate(value string) error {
	_, err := parseBool(value)
	return err
}

func (d DoorLocked) Render(value string, into *status.Sensors) error {
	b, err := parseBool(value)
	if err != nil {
		return err
	}
	into.DoorLocked = append(into.DoorLocked, status.DoorLockedSensor{
		Value:       b,
		Location:    d.Location,
		Name:        d.Name,
		Description: d.Description,
	})
	return nil
}

// Barometer renders an air pressure reading.
type Barometer struct{ Metadata }

func (Barometer) Kind() Kind { return KindBarometer }

func (Barometer) Validate(value string) error {
	_, err := parseFloat(value)
	return err
}

func (b Barometer) Render(value string, into *status.Sensors) error {
	v, err := parseFloat(value)
	if err != nil {
		return err
	}
	into.Barometer = append(into.Barometer, status.BarometerSensor{
		Value:       v,
		Unit:        b.Unit,
		Location:    b.Location,
		Name:        b.Name,
		Description: b.Description,
	})
	return nil
}

// PowerConsumption renders a power draw reading.
type PowerConsumption struct{ Metadata }

func (PowerConsumption) Kind() Kind { return KindPowerConsumption }

func (PowerConsumption) Validate(value string) error {
	_, err := parseFloat(value)
	return err
}

func (p PowerConsumption) Render(value string, into *status.Sensors) error {
	v, err := parseFloat(value)
	if err != nil {
		return err
	}
	into.PowerConsumption = append(into.PowerConsumption, status.PowerConsumptionSensor{
		Value:       v,
		Unit:        p.Unit,
		Location:    p.Location,
		Name:        p.Name,
		Description: p.Description,
	})
	return nil
}
