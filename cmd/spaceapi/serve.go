package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/nerrad567/spaceapi-core/internal/api"
	"github.com/nerrad567/spaceapi-core/internal/assembler"
	"github.com/nerrad567/spaceapi-core/internal/audit"
	"github.com/nerrad567/spaceapi-core/internal/infrastructure/config"
	"github.com/nerrad567/spaceapi-core/internal/infrastructure/database"
	"github.com/nerrad567/spaceapi-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/spaceapi-core/internal/infrastructure/kvstore"
	"github.com/nerrad567/spaceapi-core/internal/infrastructure/logging"
	"github.com/nerrad567/spaceapi-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/spaceapi-core/internal/ingest"
	"github.com/nerrad567/spaceapi-core/internal/modifier"
	"github.com/nerrad567/spaceapi-core/internal/notify"
	"github.com/nerrad567/spaceapi-core/internal/sensor"
	"github.com/nerrad567/spaceapi-core/internal/session"
	"github.com/nerrad567/spaceapi-core/internal/status"
	"github.com/nerrad567/spaceapi-core/migrations"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// auditQueueSize bounds audit entries waiting for the database.
const auditQueueSize = 256

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the SpaceAPI server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), resolveConfigPath(configPath))
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML configuration file")

	return cmd
}

// resolveConfigPath picks the flag, then SPACEAPI_CONFIG, then the default.
func resolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if path := os.Getenv("SPACEAPI_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// run wires every component and blocks until ctx is cancelled.
// Deferred cleanups run in reverse order of construction.
func run(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting SpaceAPI server",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"sensors", len(cfg.Sensors),
		"store", cfg.Store.Backend,
	)

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing store")
		if closeErr := store.Close(); closeErr != nil {
			log.Error("error closing store", "error", closeErr)
		}
	}()
	log.Info("store ready", "backend", cfg.Store.Backend)

	builder := sensor.NewBuilder()
	builder.SetLogger(log.Component("sensor"))
	if err := builder.FromConfig(cfg.Sensors); err != nil {
		return fmt.Errorf("registering sensors: %w", err)
	}
	registry := builder.Build(store)

	asm := assembler.New(status.NewBaseline(cfg.Space), registry, buildModifiers(cfg.Modifiers, store, log))
	asm.SetLogger(log.Component("assembler"))

	sessions := session.NewManager(store, registry, cfg.Sessions.TTL)
	sessions.SetLogger(log.Component("session"))

	metricsReg := prometheus.NewRegistry()
	metricsReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	notifier := notify.New()
	notifier.SetLogger(log.Component("notify"))

	metricsSink, err := notify.NewMetricsSink(metricsReg)
	if err != nil {
		return fmt.Errorf("registering update metrics: %w", err)
	}
	notifier.Add("metrics", metricsSink)

	// InfluxDB history (optional)
	influxClient, err := influxdb.Connect(cfg.InfluxDB, cfg.Space.Name)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		notifier.Add("history", notify.NewHistorySink(influxClient))
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	// SQLite audit trail (optional)
	var auditRepo audit.Repository
	db, err := database.Open(cfg.Database)
	switch {
	case errors.Is(err, database.ErrDisabled):
		log.Info("audit database disabled")
	case err != nil:
		return fmt.Errorf("opening database: %w", err)
	default:
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		if err := db.Migrate(ctx, migrations.FS); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		log.Info("database ready", "path", db.Path())

		repo := audit.NewSQLiteRepository(db.DB)
		auditRepo = repo

		queue := notify.NewQueue(notify.NewAuditSink(repo), auditQueueSize)
		queue.SetLogger(log.Component("audit"))
		queueCtx, stopQueue := context.WithCancel(context.Background())
		go queue.Run(queueCtx)
		// Registered after the database close, so it runs first and
		// drains pending entries while the database is still open.
		defer func() {
			stopQueue()
			<-queue.Done()
		}()
		notifier.Add("audit", queue)
	}

	// MQTT fan-out and trusted ingest (optional)
	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.Component("mqtt"))
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		notifier.Add("mqtt", notify.NewMQTTSink(mqttClient, asm))

		if cfg.MQTT.Ingest {
			ingester := ingest.New(mqttClient, registry, notifier, mqttClient.QoS())
			ingester.SetLogger(log.Component("ingest"))
			if err := ingester.Start(ctx); err != nil {
				return fmt.Errorf("starting MQTT ingest: %w", err)
			}
			defer func() {
				if stopErr := ingester.Stop(); stopErr != nil {
					log.Warn("error stopping MQTT ingest", "error", stopErr)
				}
			}()
			log.Info("MQTT ingest enabled", "topic", mqtt.Topics{}.AllIngestSensors())
		}
	} else {
		log.Info("MQTT disabled")
	}

	var hub *api.Hub
	if cfg.WebSocket.Enabled {
		hub = api.NewHub(cfg.WebSocket, log.Component("websocket"))
		notifier.Add("websocket", notify.NewBroadcastSink(hub, asm))
	}

	srv, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log,
		Status:   asm,
		Sessions: sessions,
		Registry: registry,
		Store:    store,
		Notifier: notifier,
		Hub:      hub,
		Audit:    auditRepo,
		Metrics:  metricsReg,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := srv.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete",
		"sensors", registry.Len(),
		"sinks", notifier.Len(),
	)

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// openStore selects the store backend. The redis store is pinged so a
// misconfigured URL shows up at startup rather than on the first request.
func openStore(ctx context.Context, cfg config.StoreConfig) (kvstore.Store, error) {
	if cfg.Backend == "memory" {
		return kvstore.NewMemoryStore(), nil
	}

	rs, err := kvstore.NewRedisStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}
	if err := rs.Ping(ctx); err != nil {
		rs.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("connecting to store: %w", err)
	}
	return rs, nil
}

// buildModifiers assembles the modifier chain in a fixed order: store state
// first, then the people counter, then version info.
func buildModifiers(cfg config.ModifiersConfig, store kvstore.Store, log *logging.Logger) *modifier.Chain {
	var mods []modifier.Modifier
	if cfg.StoreState {
		m := modifier.NewStateFromStore(store)
		m.SetLogger(log.Component("modifier"))
		mods = append(mods, m)
	}
	if cfg.PeopleNowPresentState {
		mods = append(mods, modifier.StateFromPeopleNowPresent{})
	}
	if cfg.LibraryVersions {
		mods = append(mods, modifier.NewLibraryVersions(version))
	}
	return modifier.NewChain(mods...)
}
