package modifier

import (
	"context"
	"fmt"

	"github.com/nerrad567/spaceapi-core/internal/status"
)

// StateFromPeopleNowPresent derives the open state from the first
// people_now_present reading.
//
//	0      open=false, message untouched
//	1      open=true,  "1 person here right now"
//	N > 1  open=true,  "N people here right now"
//
// Without a reading the state section is left exactly as it was.
type StateFromPeopleNowPresent struct{}

// Modify implements Modifier.
func (StateFromPeopleNowPresent) Modify(_ context.Context, doc *status.Document) {
	reading, ok := doc.FirstPeopleNowPresent()
	if !ok {
		return
	}

	st := doc.EnsureState()
	open := reading.Value > 0
	st.Open = &open

	switch {
	case reading.Value == 1:
		st.Message = "1 person here right now"
	case reading.Value > 1:
		st.Message = fmt.Sprintf("%d people here right now", reading.Value)
	}
}
