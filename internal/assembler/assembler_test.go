package assembler

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/nerrad567/spaceapi-core/internal/infrastructure/config"
	"github.com/nerrad567/spaceapi-core/internal/infrastructure/kvstore"
	"github.com/nerrad567/spaceapi-core/internal/modifier"
	"github.com/nerrad567/spaceapi-core/internal/sensor"
	"github.com/nerrad567/spaceapi-core/internal/status"
)

func testBaseline() *status.Document {
	return status.NewBaseline(config.SpaceConfig{
		Name: "Test Space",
		Logo: "https://example.org/logo.png",
		URL:  "https://example.org",
	})
}

func buildRegistry(t *testing.T, store kvstore.Store, sensors ...config.SensorConfig) *sensor.Registry {
	t.Helper()
	b := sensor.NewBuilder()
	if err := b.FromConfig(sensors); err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	return b.Build(store)
}

func decode(t *testing.T, out []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("invalid JSON %s: %v", out, err)
	}
	return m
}

func TestBuild_NoSensorsResolvedOmitsSection(t *testing.T) {
	store := kvstore.NewMemoryStore()
	reg := buildRegistry(t, store,
		config.SensorConfig{Kind: "temperature", Key: "temp", Location: "Hall"},
		config.SensorConfig{Kind: "people_now_present", Key: "people"},
	)

	out, err := New(testBaseline(), reg, modifier.NewChain()).Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if _, ok := decode(t, out)["sensors"]; ok {
		t.Errorf("expected sensors to be absent, got %s", out)
	}
}

func TestBuild_UnrenderableValueOmitsSection(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	_ = store.Set(ctx, "temp", "not-a-number")
	reg := buildRegistry(t, store, config.SensorConfig{Kind: "temperature", Key: "temp", Location: "Hall"})

	out, err := New(testBaseline(), reg, modifier.NewChain()).Build(ctx)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if strings.Contains(string(out), "sensors") {
		t.Errorf("expected sensors to be absent, got %s", out)
	}
}

func TestBuild_PartialResultsInOrder(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	_ = store.Set(ctx, "t1", "20.5")
	_ = store.Set(ctx, "t3", "22")
	reg := buildRegistry(t, store,
		config.SensorConfig{Kind: "temperature", Key: "t1", Location: "One"},
		config.SensorConfig{Kind: "temperature", Key: "t2", Location: "Two"},
		config.SensorConfig{Kind: "temperature", Key: "t3", Location: "Three"},
	)

	doc := New(testBaseline(), reg, modifier.NewChain()).Document(ctx)

	if doc.Sensors == nil {
		t.Fatal("expected sensors section")
	}
	temps := doc.Sensors.Temperature
	if len(temps) != 2 {
		t.Fatalf("len(Temperature) = %d, want 2", len(temps))
	}
	if temps[0].Location != "One" || temps[0].Value != 20.5 {
		t.Errorf("Temperature[0] = %+v", temps[0])
	}
	if temps[1].Location != "Three" || temps[1].Value != 22 {
		t.Errorf("Temperature[1] = %+v", temps[1])
	}
}

func TestBuild_RunsChainAfterSensors(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	_ = store.Set(ctx, "people", "2")
	reg := buildRegistry(t, store, config.SensorConfig{Kind: "people_now_present", Key: "people"})

	chain := modifier.NewChain(modifier.StateFromPeopleNowPresent{}, modifier.NewLibraryVersions("test"))
	doc := New(testBaseline(), reg, chain).Document(ctx)

	if doc.State == nil || doc.State.Open == nil || !*doc.State.Open {
		t.Fatalf("State = %+v, want open", doc.State)
	}
	if doc.State.Message != "2 people here right now" {
		t.Errorf("Message = %q", doc.State.Message)
	}
	if doc.ExtVersions["spaceapi_server"] != "test" {
		t.Errorf("ExtVersions = %v", doc.ExtVersions)
	}
}

func TestBuild_BaselineNeverMutated(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	_ = store.Set(ctx, "people", "1")
	reg := buildRegistry(t, store, config.SensorConfig{Kind: "people_now_present", Key: "people"})

	baseline := testBaseline()
	before, _ := json.Marshal(baseline)

	a := New(baseline, reg, modifier.NewChain(modifier.StateFromPeopleNowPresent{}))
	_ = a.Document(ctx)
	_ = a.Document(ctx)

	after, _ := json.Marshal(baseline)
	if !bytes.Equal(before, after) {
		t.Errorf("baseline changed:\nbefore %s\nafter  %s", before, after)
	}
	if baseline.Sensors != nil || baseline.State != nil {
		t.Error("baseline gained dynamic sections")
	}
}

func TestBuild_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	_ = store.Set(ctx, "temp", "19.25")
	_ = store.Set(ctx, "people", "3")
	reg := buildRegistry(t, store,
		config.SensorConfig{Kind: "temperature", Key: "temp", Location: "Hall"},
		config.SensorConfig{Kind: "people_now_present", Key: "people"},
	)
	a := New(testBaseline(), reg, modifier.NewChain(modifier.StateFromPeopleNowPresent{}, modifier.NewLibraryVersions("x")))

	first, err := a.Build(ctx)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	second, err := a.Build(ctx)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("Build() not idempotent:\n%s\n%s", first, second)
	}
}

func TestBuild_ConcurrentIdentical(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := kvstore.NewRedisStore(config.StoreConfig{
		URL:              "redis://" + mr.Addr(),
		PoolSize:         6,
		MinIdle:          2,
		PoolTimeout:      time.Second,
		OperationTimeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	mr.Set("temp", "21")
	mr.Set("hum", "40")
	mr.Set("people", "1")
	mr.Set("door", "true")

	reg := buildRegistry(t, store,
		config.SensorConfig{Kind: "temperature", Key: "temp", Location: "Hall"},
		config.SensorConfig{Kind: "humidity", Key: "hum", Location: "Hall"},
		config.SensorConfig{Kind: "people_now_present", Key: "people"},
		config.SensorConfig{Kind: "door_locked", Key: "door", Location: "Front"},
	)
	a := New(testBaseline(), reg, modifier.NewChain(modifier.StateFromPeopleNowPresent{}, modifier.NewLibraryVersions("x")))

	want, err := a.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	const n = 32
	results := make([][]byte, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := a.Build(context.Background())
			if err != nil {
				t.Errorf("Build() error = %v", err)
				return
			}
			results[i] = out
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if !bytes.Equal(got, want) {
			t.Errorf("result %d differs:\n%s\n%s", i, got, want)
		}
	}
}

func TestBuild_StoreUnavailableStillServesBaseline(t *testing.T) {
	store := kvstore.NewMemoryStore()
	reg := buildRegistry(t, store, config.SensorConfig{Kind: "temperature", Key: "temp", Location: "Hall"})
	_ = store.Close()

	out, err := New(testBaseline(), reg, modifier.NewChain()).Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	m := decode(t, out)
	if m["space"] != "Test Space" {
		t.Errorf("space = %v", m["space"])
	}
	if _, ok := m["sensors"]; ok {
		t.Error("expected sensors to be absent")
	}
}
