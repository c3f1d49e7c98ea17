package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/spaceapi-core/internal/infrastructure/config"
	"github.com/nerrad567/spaceapi-core/internal/infrastructure/kvstore"
	"github.com/nerrad567/spaceapi-core/internal/infrastructure/logging"
	"github.com/nerrad567/spaceapi-core/internal/session"
)

const testSecret = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("SPACEAPI_CONFIG", "")
	if got := resolveConfigPath(""); got != defaultConfigPath {
		t.Errorf("resolveConfigPath() = %q, want default", got)
	}

	t.Setenv("SPACEAPI_CONFIG", "/etc/spaceapi.yaml")
	if got := resolveConfigPath(""); got != "/etc/spaceapi.yaml" {
		t.Errorf("resolveConfigPath() = %q, want env value", got)
	}
	if got := resolveConfigPath("local.yaml"); got != "local.yaml" {
		t.Errorf("resolveConfigPath() = %q, flag should win", got)
	}
}

func TestSignCmd(t *testing.T) {
	want, err := session.Sign(testSecret, "people_now_present", "3")
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	out, err := executeCmd(t, "sign", "--secret", testSecret, "--sensor", "people_now_present", "--value", "3")
	if err != nil {
		t.Fatalf("sign error = %v", err)
	}
	if strings.TrimSpace(out) != want {
		t.Errorf("sign output = %q, want %q", out, want)
	}
}

func TestSignCmd_WithSession(t *testing.T) {
	out, err := executeCmd(t, "sign",
		"--secret", testSecret,
		"--sensor", "temp_room",
		"--value", "21.5",
		"--session", "5b2c4f0e-6a55-4f1f-9d0e-1d7c2f3b8a90",
	)
	if err != nil {
		t.Fatalf("sign error = %v", err)
	}

	var body map[string]string
	if err := json.Unmarshal([]byte(out), &body); err != nil {
		t.Fatalf("output is not JSON: %q", out)
	}
	if body["value"] != "21.5" || body["session_id"] == "" || len(body["signature"]) != 64 {
		t.Errorf("body = %v", body)
	}
}

func TestSignCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing secret", []string{"sign", "--sensor", "a", "--value", "1"}},
		{"missing value", []string{"sign", "--secret", testSecret, "--sensor", "a"}},
		{"bad secret", []string{"sign", "--secret", "zz", "--sensor", "a", "--value", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := executeCmd(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := executeCmd(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "spaceapi "+version) {
		t.Errorf("version output = %q", out)
	}
}

func TestBuildModifiers(t *testing.T) {
	store := kvstore.NewMemoryStore()
	tests := []struct {
		name string
		cfg  config.ModifiersConfig
		want int
	}{
		{"none", config.ModifiersConfig{}, 0},
		{"defaults", config.ModifiersConfig{PeopleNowPresentState: true, LibraryVersions: true}, 2},
		{"all", config.ModifiersConfig{PeopleNowPresentState: true, LibraryVersions: true, StoreState: true}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildModifiers(tt.cfg, store, logging.Discard()).Len(); got != tt.want {
				t.Errorf("Len() = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, "/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("finding free port: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

// TestRun_MemoryStore boots the whole stack on the in-memory store with the
// audit database enabled, then shuts it down.
func TestRun_MemoryStore(t *testing.T) {
	for _, name := range []string{"PORT", "SPACEAPI_API_PORT", "SPACEAPI_STORE_BACKEND", "SPACEAPI_DATABASE_PATH"} {
		t.Setenv(name, "")
	}

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "data", "audit.db")
	port := freePort(t)

	configContent := fmt.Sprintf(`
space:
  name: Test Space
  logo: https://example.org/logo.png
  url: https://example.org

sensors:
  - kind: people_now_present
    key: people_now_present
    location: Main Room

store:
  backend: memory

api:
  host: "127.0.0.1"
  port: %d

database:
  enabled: true
  path: %q
  wal_mode: true
  busy_timeout: 5

logging:
  level: error
  format: text
  output: stderr
`, port, dbPath)

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- run(ctx, configPath) }()

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	var healthy bool
	for i := 0; i < 50 && !healthy; i++ {
		resp, err := http.Get(base + "/health")
		if err == nil {
			healthy = resp.StatusCode == http.StatusOK
			resp.Body.Close()
		}
		if !healthy {
			time.Sleep(100 * time.Millisecond)
		}
	}
	if !healthy {
		cancel()
		t.Fatalf("server never became healthy: %v", <-done)
	}

	resp, err := http.Get(base + "/status.json")
	if err != nil {
		t.Fatalf("GET /status.json error = %v", err)
	}
	var doc map[string]any
	err = json.NewDecoder(resp.Body).Decode(&doc)
	resp.Body.Close()
	if err != nil || doc["space"] != "Test Space" {
		t.Errorf("status document = %v, %v", doc, err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() error = %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancel")
	}

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("audit database not created: %v", err)
	}
}
