package status

import (
	"github.com/nerrad567/spaceapi-core/internal/infrastructure/config"
)

// NewBaseline builds the static baseline document from the space configuration.
// The result must be treated as read-only; callers mutate Clones only.
func NewBaseline(space config.SpaceConfig) *Document {
	doc := &Document{
		APICompatibility:    append([]string(nil), APICompatibility...),
		Space:               space.Name,
		Logo:                space.Logo,
		URL:                 space.URL,
		IssueReportChannels: append([]string(nil), space.IssueReportChannels...),
		Projects:            append([]string(nil), space.Projects...),
		Location: Location{
			Address:  space.Location.Address,
			Lat:      space.Location.Latitude,
			Lon:      space.Location.Longitude,
			Timezone: space.Location.Timezone,
		},
		Contact: Contact{
			Email:     space.Contact.Email,
			IRC:       space.Contact.IRC,
			Matrix:    space.Contact.Matrix,
			Mastodon:  space.Contact.Mastodon,
			Twitter:   space.Contact.Twitter,
			Phone:     space.Contact.Phone,
			IssueMail: space.Contact.IssueMail,
			ML:        space.Contact.ML,
		},
	}

	if space.State != nil {
		st := doc.EnsureState()
		st.Message = space.State.Message
		if space.State.Open != nil {
			open := *space.State.Open
			st.Open = &open
		}
	}

	return doc
}
