package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration as read from YAML.
type Config struct {
	Space     SpaceConfig     `yaml:"space"`
	Sensors   []SensorConfig  `yaml:"sensors"`
	Modifiers ModifiersConfig `yaml:"modifiers"`
	Store     StoreConfig     `yaml:"store"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SpaceConfig contains the static portion of the status document.
type SpaceConfig struct {
	Name                string         `yaml:"name"`
	Logo                string         `yaml:"logo"`
	URL                 string         `yaml:"url"`
	Location            LocationConfig `yaml:"location"`
	Contact             ContactConfig  `yaml:"contact"`
	IssueReportChannels []string       `yaml:"issue_report_channels"`
	Projects            []string       `yaml:"projects"`
	// State seeds the document state (e.g. a human-authored message).
	State *StateConfig `yaml:"state,omitempty"`
}

// LocationConfig contains the postal address and geographic coordinates of the space.
type LocationConfig struct {
	Address   string  `yaml:"address"`
	Latitude  float64 `yaml:"lat"`
	Longitude float64 `yaml:"lon"`
	Timezone  string  `yaml:"timezone"`
}

// ContactConfig contains the public contact channels of the space.
type ContactConfig struct {
	Email     string `yaml:"email"`
	IRC       string `yaml:"irc"`
	Matrix    string `yaml:"matrix"`
	Mastodon  string `yaml:"mastodon"`
	Twitter   string `yaml:"twitter"`
	Phone     string `yaml:"phone"`
	IssueMail string `yaml:"issue_mail"`
	ML        string `yaml:"ml"`
}

// StateConfig seeds the state section of the baseline document.
type StateConfig struct {
	Open    *bool  `yaml:"open,omitempty"`
	Message string `yaml:"message,omitempty"`
}

// SensorConfig registers one sensor.
type SensorConfig struct {
	// Kind selects the sensor template: temperature, humidity,
	// people_now_present, door_locked, barometer, power_consumption.
	Kind string `yaml:"kind"`

	// Key is the store key holding the sensor value. Must be unique.
	Key string `yaml:"key"`

	Location    string `yaml:"location"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Unit overrides the kind's default unit (e.g. "°F").
	Unit string `yaml:"unit"`
}

// ModifiersConfig selects which status modifiers run, in a fixed order.
type ModifiersConfig struct {
	PeopleNowPresentState bool `yaml:"people_now_present_state"`
	LibraryVersions       bool `yaml:"library_versions"`
	StoreState            bool `yaml:"store_state"`
}

// StoreConfig contains key-value store connection and pool settings.
type StoreConfig struct {
	// Backend is "redis" (default) or "memory" (single process, development only).
	Backend string `yaml:"backend"`

	// URL is a redis:// connection URL.
	URL string `yaml:"url"`

	PoolSize         int           `yaml:"pool_size"`
	MinIdle          int           `yaml:"min_idle"`
	PoolTimeout      time.Duration `yaml:"pool_timeout"`
	OperationTimeout time.Duration `yaml:"operation_timeout"`
}

// SessionsConfig contains update session settings.
type SessionsConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Enabled        bool `yaml:"enabled"`
	MaxMessageSize int  `yaml:"max_message_size"`
	PingInterval   int  `yaml:"ping_interval"`
	PongTimeout    int  `yaml:"pong_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// Ingest enables the trusted ingest subscription. Sensor values published
	// to spaceapi/ingest/sensors/{key} are written without a session, so the
	// broker ACL must restrict that topic.
	Ingest bool `yaml:"ingest"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// DatabaseConfig contains SQLite audit database settings.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result.
//
// Overrides use SPACEAPI_<SECTION>_<KEY> (SPACEAPI_STORE_URL,
// SPACEAPI_API_PORT, ...). The platform variables PORT and REDIS_URL are
// honoured too, with the SPACEAPI_ form taking precedence.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Modifiers: ModifiersConfig{
			PeopleNowPresentState: true,
			LibraryVersions:       true,
		},
		Store: StoreConfig{
			Backend:          "redis",
			URL:              "redis://127.0.0.1:6379/0",
			PoolSize:         6,
			MinIdle:          2,
			PoolTimeout:      time.Second,
			OperationTimeout: 2 * time.Second,
		},
		Sessions: SessionsConfig{TTL: 5 * time.Minute},
		API: APIConfig{
			Host:     "0.0.0.0",
			Port:     3000,
			Timeouts: APITimeoutConfig{Read: 10, Write: 10, Idle: 60},
		},
		WebSocket: WebSocketConfig{
			Enabled:        true,
			MaxMessageSize: 4096,
			PingInterval:   30,
			PongTimeout:    10,
		},
		MQTT: MQTTConfig{
			Broker:    MQTTBrokerConfig{Host: "localhost", Port: 1883, ClientID: "spaceapi-server"},
			QoS:       1,
			Reconnect: MQTTReconnectConfig{InitialDelay: 1, MaxDelay: 60},
		},
		Database: DatabaseConfig{
			Path:        "./data/spaceapi.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
	}
}

// applyEnvOverrides copies non-empty environment variables over cfg.
// Later entries win, so the SPACEAPI_ names beat the platform ones.
func applyEnvOverrides(cfg *Config) {
	vars := []struct {
		name string
		dst  *string
	}{
		{"REDIS_URL", &cfg.Store.URL},
		{"SPACEAPI_STORE_URL", &cfg.Store.URL},
		{"SPACEAPI_STORE_BACKEND", &cfg.Store.Backend},
		{"SPACEAPI_API_HOST", &cfg.API.Host},
		{"SPACEAPI_MQTT_HOST", &cfg.MQTT.Broker.Host},
		{"SPACEAPI_MQTT_USERNAME", &cfg.MQTT.Auth.Username},
		{"SPACEAPI_MQTT_PASSWORD", &cfg.MQTT.Auth.Password},
		{"SPACEAPI_INFLUXDB_TOKEN", &cfg.InfluxDB.Token},
		{"SPACEAPI_DATABASE_PATH", &cfg.Database.Path},
		{"SPACEAPI_LOG_LEVEL", &cfg.Logging.Level},
	}
	for _, o := range vars {
		if v := os.Getenv(o.name); v != "" {
			*o.dst = v
		}
	}

	// An unparseable port leaves the file value in place.
	for _, name := range []string{"PORT", "SPACEAPI_API_PORT"} {
		if port, ok := envPort(name); ok {
			cfg.API.Port = port
		}
	}
}

func envPort(name string) (int, bool) {
	port, err := strconv.ParseUint(os.Getenv(name), 10, 16)
	if err != nil || port == 0 {
		return 0, false
	}
	return int(port), true
}

// validSensorKinds lists the sensor kinds accepted in the sensors section.
var validSensorKinds = map[string]bool{
	"temperature":        true,
	"humidity":           true,
	"people_now_present": true,
	"door_locked":        true,
	"barometer":          true,
	"power_consumption":  true,
}

// Validate reports every configuration error at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Space.Name == "" {
		errs = append(errs, "space.name is required")
	}
	if c.Space.Logo == "" {
		errs = append(errs, "space.logo is required")
	}
	if c.Space.URL == "" {
		errs = append(errs, "space.url is required")
	}

	seen := make(map[string]bool, len(c.Sensors))
	for i, s := range c.Sensors {
		if !validSensorKinds[s.Kind] {
			errs = append(errs, fmt.Sprintf("sensors[%d].kind %q is not supported", i, s.Kind))
		}
		if s.Key == "" {
			errs = append(errs, fmt.Sprintf("sensors[%d].key is required", i))
			continue
		}
		if seen[s.Key] {
			errs = append(errs, fmt.Sprintf("sensors[%d].key %q is registered twice", i, s.Key))
		}
		seen[s.Key] = true
	}

	switch c.Store.Backend {
	case "redis":
		if c.Store.URL == "" {
			errs = append(errs, "store.url is required for the redis backend")
		}
	case "memory":
	default:
		errs = append(errs, "store.backend must be redis or memory")
	}
	if c.Store.PoolSize < 1 {
		errs = append(errs, "store.pool_size must be at least 1")
	}
	if c.Store.MinIdle < 0 || c.Store.MinIdle > c.Store.PoolSize {
		errs = append(errs, "store.min_idle must be between 0 and store.pool_size")
	}
	if c.Store.PoolTimeout <= 0 {
		errs = append(errs, "store.pool_timeout must be positive")
	}

	if c.Sessions.TTL < time.Second {
		errs = append(errs, "sessions.ttl must be at least 1s")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.WebSocket.Enabled && (c.WebSocket.PingInterval < 1 || c.WebSocket.PongTimeout < 1) {
		errs = append(errs, "websocket.ping_interval and websocket.pong_timeout must be at least 1 second")
	}

	if c.MQTT.Enabled && (c.MQTT.QoS < 0 || c.MQTT.QoS > 2) {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when the audit database is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ReadTimeout is the HTTP read and header timeout.
func (c APIConfig) ReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// WriteTimeout is the HTTP write timeout.
func (c APIConfig) WriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// IdleTimeout is the keep-alive idle timeout.
func (c APIConfig) IdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}
