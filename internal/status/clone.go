package status

import "slices"

// Clone returns a deep copy of d. Mutating the copy never affects d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}

	c := *d
	c.APICompatibility = slices.Clone(d.APICompatibility)
	c.IssueReportChannels = slices.Clone(d.IssueReportChannels)
	c.Projects = slices.Clone(d.Projects)

	if d.State != nil {
		s := *d.State
		if d.State.Open != nil {
			open := *d.State.Open
			s.Open = &open
		}
		if d.State.LastChange != nil {
			lc := *d.State.LastChange
			s.LastChange = &lc
		}
		c.State = &s
	}

	if d.Sensors != nil {
		s := Sensors{
			Temperature:      slices.Clone(d.Sensors.Temperature),
			Humidity:         slices.Clone(d.Sensors.Humidity),
			DoorLocked:       slices.Clone(d.Sensors.DoorLocked),
			Barometer:        slices.Clone(d.Sensors.Barometer),
			PowerConsumption: slices.Clone(d.Sensors.PowerConsumption),
		}
		if d.Sensors.PeopleNowPresent != nil {
			s.PeopleNowPresent = make([]PeopleNowPresentSensor, len(d.Sensors.PeopleNowPresent))
			for i, p := range d.Sensors.PeopleNowPresent {
				p.Names = slices.Clone(p.Names)
				s.PeopleNowPresent[i] = p
			}
		}
		c.Sensors = &s
	}

	if d.ExtVersions != nil {
		c.ExtVersions = make(map[string]string, len(d.ExtVersions))
		for k, v := range d.ExtVersions {
			c.ExtVersions[k] = v
		}
	}

	return &c
}
