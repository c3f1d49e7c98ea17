package modifier

import (
	"context"
	"runtime"
	"testing"

	"github.com/nerrad567/spaceapi-core/internal/infrastructure/kvstore"
	"github.com/nerrad567/spaceapi-core/internal/status"
)

func boolPtr(b bool) *bool { return &b }

func docWithPeople(values ...uint64) *status.Document {
	doc := &status.Document{Space: "Test"}
	for _, v := range values {
		s := doc.EnsureSensors()
		s.PeopleNowPresent = append(s.PeopleNowPresent, status.PeopleNowPresentSensor{Value: v})
	}
	return doc
}

func TestStateFromPeopleNowPresent(t *testing.T) {
	tests := []struct {
		name        string
		doc         *status.Document
		wantState   bool
		wantOpen    bool
		wantMessage string
	}{
		{
			name:        "zero closes and keeps message",
			doc:         withState(docWithPeople(0), &status.State{Open: boolPtr(true), Message: "back soon"}),
			wantState:   true,
			wantOpen:    false,
			wantMessage: "back soon",
		},
		{
			name:        "one person is singular",
			doc:         docWithPeople(1),
			wantState:   true,
			wantOpen:    true,
			wantMessage: "1 person here right now",
		},
		{
			name:        "two people is plural",
			doc:         docWithPeople(2),
			wantState:   true,
			wantOpen:    true,
			wantMessage: "2 people here right now",
		},
		{
			name:        "overwrites human message when open",
			doc:         withState(docWithPeople(5), &status.State{Message: "members only"}),
			wantState:   true,
			wantOpen:    true,
			wantMessage: "5 people here right now",
		},
		{
			name:        "only the first reading counts",
			doc:         docWithPeople(0, 9),
			wantState:   true,
			wantOpen:    false,
			wantMessage: "",
		},
		{
			name:      "absent sensor leaves state absent",
			doc:       &status.Document{Space: "Test"},
			wantState: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			StateFromPeopleNowPresent{}.Modify(context.Background(), tt.doc)

			if !tt.wantState {
				if tt.doc.State != nil {
					t.Errorf("State = %+v, want nil", tt.doc.State)
				}
				return
			}
			st := tt.doc.State
			if st == nil || st.Open == nil {
				t.Fatalf("State = %+v, want open set", st)
			}
			if *st.Open != tt.wantOpen {
				t.Errorf("Open = %v, want %v", *st.Open, tt.wantOpen)
			}
			if st.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", st.Message, tt.wantMessage)
			}
		})
	}
}

func TestStateFromPeopleNowPresent_AbsentKeepsExistingState(t *testing.T) {
	doc := withState(&status.Document{}, &status.State{Open: boolPtr(true), Message: "hi"})
	StateFromPeopleNowPresent{}.Modify(context.Background(), doc)

	if !*doc.State.Open || doc.State.Message != "hi" {
		t.Errorf("State = %+v, want unchanged", doc.State)
	}
}

func withState(doc *status.Document, st *status.State) *status.Document {
	doc.State = st
	return doc
}

func TestLibraryVersions(t *testing.T) {
	doc := &status.Document{ExtVersions: map[string]string{"custom": "x"}}
	NewLibraryVersions("1.2.3").Modify(context.Background(), doc)

	if doc.ExtVersions["spaceapi_server"] != "1.2.3" {
		t.Errorf("spaceapi_server = %q", doc.ExtVersions["spaceapi_server"])
	}
	if doc.ExtVersions["go"] != runtime.Version() {
		t.Errorf("go = %q, want %q", doc.ExtVersions["go"], runtime.Version())
	}
	if doc.ExtVersions["custom"] != "x" {
		t.Error("existing extension entries must be kept")
	}
}

func TestStateFromStore(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	_ = store.Set(ctx, KeyStateOpen, "true")
	_ = store.Set(ctx, KeyStateLastChange, "1700000000")
	_ = store.Set(ctx, KeyStateTriggerPerson, "ada")

	doc := &status.Document{}
	NewStateFromStore(store).Modify(ctx, doc)

	st := doc.State
	if st == nil || st.Open == nil || !*st.Open {
		t.Fatalf("State = %+v, want open", st)
	}
	if st.LastChange == nil || *st.LastChange != 1700000000 {
		t.Errorf("LastChange = %v", st.LastChange)
	}
	if st.TriggerPerson != "ada" {
		t.Errorf("TriggerPerson = %q, want ada", st.TriggerPerson)
	}
}

func TestStateFromStore_MissingAndBadValues(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	_ = store.Set(ctx, KeyStateOpen, "perhaps")

	doc := &status.Document{}
	NewStateFromStore(store).Modify(ctx, doc)

	if doc.State != nil {
		t.Errorf("State = %+v, want nil", doc.State)
	}
}

func TestStateFromStore_StoreDown(t *testing.T) {
	store := kvstore.NewMemoryStore()
	_ = store.Close()

	doc := withState(&status.Document{}, &status.State{Message: "kept"})
	NewStateFromStore(store).Modify(context.Background(), doc)

	if doc.State.Message != "kept" || doc.State.Open != nil {
		t.Errorf("State = %+v, want unchanged", doc.State)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	record := func(name string) Modifier {
		return Func(func(_ context.Context, doc *status.Document) {
			order = append(order, name)
			doc.Space += name
		})
	}

	chain := NewChain(record("a"), nil, record("b"), record("c"))
	if chain.Len() != 3 {
		t.Errorf("Len() = %d, want 3", chain.Len())
	}

	doc := &status.Document{}
	chain.Apply(context.Background(), doc)

	if doc.Space != "abc" {
		t.Errorf("Space = %q, want abc", doc.Space)
	}
	if len(order) != 3 || order[0] != "a" || order[2] != "c" {
		t.Errorf("order = %v", order)
	}
}

func TestChain_SeesEarlierMutations(t *testing.T) {
	inject := Func(func(_ context.Context, doc *status.Document) {
		doc.EnsureSensors().PeopleNowPresent = []status.PeopleNowPresentSensor{{Value: 1}}
	})

	doc := &status.Document{}
	NewChain(inject, StateFromPeopleNowPresent{}).Apply(context.Background(), doc)

	if doc.State == nil || doc.State.Message != "1 person here right now" {
		t.Errorf("State = %+v", doc.State)
	}
}

func TestChain_Nil(t *testing.T) {
	var c *Chain
	c.Apply(context.Background(), &status.Document{})
	if c.Len() != 0 {
		t.Error("nil chain should be empty")
	}
}
