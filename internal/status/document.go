package status

// APICompatibility lists the SpaceAPI schema versions the document conforms to.
var APICompatibility = []string{"14"}

// Document is a SpaceAPI status document.
type Document struct {
	APICompatibility    []string `json:"api_compatibility"`
	Space               string   `json:"space"`
	Logo                string   `json:"logo"`
	URL                 string   `json:"url"`
	Location            Location `json:"location"`
	Contact             Contact  `json:"contact"`
	IssueReportChannels []string `json:"issue_report_channels,omitempty"`
	Projects            []string `json:"projects,omitempty"`

	State   *State   `json:"state,omitempty"`
	Sensors *Sensors `json:"sensors,omitempty"`

	// ExtVersions carries server and runtime versions. Informational only.
	ExtVersions map[string]string `json:"ext_versions,omitempty"`
}

// Location is the position of the space.
type Location struct {
	Address  string  `json:"address,omitempty"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Timezone string  `json:"timezone,omitempty"`
}

// Contact lists the public contact channels of the space.
type Contact struct {
	Email     string `json:"email,omitempty"`
	IRC       string `json:"irc,omitempty"`
	Matrix    string `json:"matrix,omitempty"`
	Mastodon  string `json:"mastodon,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Phone     string `json:"phone,omitempty"`
	IssueMail string `json:"issue_mail,omitempty"`
	ML        string `json:"ml,omitempty"`
}

// State describes whether the space is open.
type State struct {
	Open          *bool  `json:"open,omitempty"`
	LastChange    *int64 `json:"lastchange,omitempty"`
	TriggerPerson string `json:"trigger_person,omitempty"`
	Message       string `json:"message,omitempty"`
}

// Sensors is the dynamic sensor section. Each kind is a list of readings.
type Sensors struct {
	Temperature      []TemperatureSensor      `json:"temperature,omitempty"`
	Humidity         []HumiditySensor         `json:"humidity,omitempty"`
	PeopleNowPresent []PeopleNowPresentSensor `json:"people_now_present,omitempty"`
	DoorLocked       []DoorLockedSensor       `json:"door_locked,omitempty"`
	Barometer        []BarometerSensor        `json:"barometer,omitempty"`
	PowerConsumption []PowerConsumptionSensor `json:"power_consumption,omitempty"`
}

// TemperatureSensor is a temperature reading.
type TemperatureSensor struct {
	Value       float64 `json:"value"`
	Unit        string  `json:"unit"`
	Location    string  `json:"location"`
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
}

// HumiditySensor is a relative humidity reading.
type HumiditySensor struct {
	Value       float64 `json:"value"`
	Unit        string  `json:"unit"`
	Location    string  `json:"location"`
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
}

// PeopleNowPresentSensor is a head count.
type PeopleNowPresentSensor struct {
	Value       uint64   `json:"value"`
	Location    string   `json:"location,omitempty"`
	Name        string   `json:"name,omitempty"`
	Names       []string `json:"names,omitempty"`
	Description string   `json:"description,omitempty"`
}

// DoorLockedSensor reports whether a door is locked.
type DoorLockedSensor struct {
	Value       bool   `json:"value"`
	Location    string `json:"location"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// BarometerSensor is an air pressure reading.
type BarometerSensor struct {
	Value       float64 `json:"value"`
	Unit        string  `json:"unit"`
	Location    string  `json:"location"`
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
}

// PowerConsumptionSensor is a power draw reading.
type PowerConsumptionSensor struct {
	Value       float64 `json:"value"`
	Unit        string  `json:"unit"`
	Location    string  `json:"location"`
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
}

// EnsureSensors returns the sensor section, creating it on first use.
func (d *Document) EnsureSensors() *Sensors {
	if d.Sensors == nil {
		d.Sensors = &Sensors{}
	}
	return d.Sensors
}

// EnsureState returns the state section, creating it on first use.
func (d *Document) EnsureState() *State {
	if d.State == nil {
		d.State = &State{}
	}
	return d.State
}

// FirstPeopleNowPresent returns the first people_now_present reading, if any.
func (d *Document) FirstPeopleNowPresent() (PeopleNowPresentSensor, bool) {
	if d.Sensors == nil || len(d.Sensors.PeopleNowPresent) == 0 {
		return PeopleNowPresentSensor{}, false
	}
	return d.Sensors.PeopleNowPresent[0], true
}
