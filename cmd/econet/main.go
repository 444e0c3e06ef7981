// EcoNet Core keeps a live, in-memory model of the water heaters and
// thermostats on an EcoNet cloud account.
//
// It logs in over REST, loads the account's equipment snapshot, and then
// follows the MQTT push stream so every entity tracks the device state.
// Commands issued through the entity setters are published back to the
// cloud and, when enabled, journalled to SQLite. Numeric state changes
// and usage reports can be written to InfluxDB.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/econet-core/migrations"

	"github.com/nerrad567/econet-core/internal/econet"
	"github.com/nerrad567/econet-core/internal/equipment"
	"github.com/nerrad567/econet-core/internal/infrastructure/config"
	"github.com/nerrad567/econet-core/internal/infrastructure/database"
	"github.com/nerrad567/econet-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/econet-core/internal/infrastructure/logging"
	"github.com/nerrad567/econet-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/econet-core/internal/journal"
	"github.com/nerrad567/econet-core/internal/push"
	"github.com/nerrad567/econet-core/internal/registry"
	"github.com/nerrad567/econet-core/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting EcoNet Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Cloud session
	cloud := econet.NewClient(cfg.Account)
	cloud.SetLogger(log)

	session, err := cloud.Login(ctx)
	if err != nil {
		return fmt.Errorf("logging in to EcoNet: %w", err)
	}
	log.Info("EcoNet session established", "account_id", session.AccountID)

	// Push transport
	mqttClient, err := mqtt.Connect(cfg.MQTT, mqtt.Credentials{
		ClientID: mqtt.ClientID(cfg.Account.Email, time.Now(), cfg.MQTT.Broker.ClientSuffix),
		Username: session.UserToken,
		Password: cfg.Account.SystemKey,
	})
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	mqttClient.SetLogger(log)
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
	)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Command path, optionally journalled
	var publisher equipment.Publisher = econet.NewPublisher(
		mqttClient,
		mqtt.Topics{}.Desired(session.AccountID),
		byte(cfg.MQTT.QoS),
	)

	var db *database.DB
	if cfg.Journal.Enabled {
		db, err = openJournal(ctx, cfg.Journal, log)
		if err != nil {
			return err
		}
		journalled := journal.NewPublisher(publisher, journal.NewSQLiteRepository(db.DB), log)
		defer func() {
			log.Info("closing command journal")
			journalled.Close()
			if dropped := journalled.Dropped(); dropped > 0 {
				log.Warn("commands missing from journal", "dropped", dropped)
			}
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing command journal", "error", closeErr)
			}
		}()
		publisher = journalled
	} else {
		log.Info("command journal disabled")
	}

	// Equipment registry
	reg := registry.New(cloud, equipment.Env{Logger: log, Publisher: publisher})
	reg.SetLogger(log)

	if loadErr := reg.Load(ctx); loadErr != nil {
		return fmt.Errorf("loading equipment: %w", loadErr)
	}
	log.Info("equipment registry initialised", "equipment", reg.Count())

	// Push routing
	router, err := push.NewRouter(push.RouterOptions{Registry: reg, Logger: log})
	if err != nil {
		return fmt.Errorf("creating push router: %w", err)
	}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		router.AddObserver(telemetry.NewRecorder(influxClient))

		if interval := cfg.GetUsageInterval(); interval > 0 {
			poller := telemetry.NewUsagePoller(telemetry.UsagePollerConfig{
				Source:    cloud,
				Equipment: reg,
				Writer:    influxClient,
				Interval:  interval,
				Logger:    log,
			})
			poller.Start(ctx)
			defer poller.Stop()
			log.Info("usage polling started", "interval", interval)
		}
	} else {
		log.Info("InfluxDB disabled")
	}

	dispatcher, err := push.NewDispatcher(push.DispatcherOptions{
		Handler:   router,
		QueueSize: cfg.Sync.QueueSize,
		Logger:    log,
	})
	if err != nil {
		return fmt.Errorf("creating push dispatcher: %w", err)
	}
	dispatcher.Start(ctx)
	defer func() {
		log.Info("stopping push dispatcher")
		dispatcher.Stop()
	}()

	stream, err := push.NewStream(push.StreamOptions{
		Subscriber: &mqttSubscriber{client: mqttClient},
		Registry:   reg,
		Dispatcher: dispatcher,
		Topics:     mqtt.Topics{}.Account(session.AccountID),
		QoS:        byte(cfg.MQTT.QoS),
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("creating push stream: %w", err)
	}
	if subErr := stream.Subscribe(); subErr != nil {
		return fmt.Errorf("subscribing to push stream: %w", subErr)
	}
	defer func() {
		log.Info("unsubscribing from push stream")
		if closeErr := stream.Close(); closeErr != nil {
			log.Error("error closing push stream", "error", closeErr)
		}
	}()

	if interval := cfg.GetRefreshInterval(); interval > 0 {
		go refreshLoop(ctx, reg, interval, log)
		log.Info("snapshot refresh enabled", "interval", interval)
	}

	if err := healthCheck(ctx, db, mqttClient, mqtt.Topics{}.Account(session.AccountID), influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up",
		"routed", router.Stats().Routed,
		"dropped", dispatcher.Stats().Dropped,
	)

	// Deferred functions run in reverse order:
	// stream, dispatcher, usage poller, InfluxDB, journal, MQTT.

	log.Info("EcoNet Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Checks ECONET_CONFIG environment variable first, then uses default.
func getConfigPath() string {
	if path := os.Getenv("ECONET_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// openJournal opens and migrates the command journal database.
func openJournal(ctx context.Context, cfg config.JournalConfig, log *logging.Logger) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening command journal: %w", err)
	}
	applied, err := db.Migrate(ctx)
	if err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("running journal migrations: %w", err)
	}
	schemaVersion, err := db.SchemaVersion(ctx)
	if err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, err
	}
	log.Info("command journal enabled",
		"path", cfg.Path,
		"schema_version", schemaVersion,
		"migrations_applied", len(applied),
	)
	return db, nil
}

// refresher is the part of the registry the refresh loop needs.
type refresher interface {
	Refresh(ctx context.Context) error
}

// refreshLoop re-fetches the snapshot every interval. A failed refresh
// leaves the current state untouched and is retried on the next tick.
func refreshLoop(ctx context.Context, reg refresher, interval time.Duration, log *logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := reg.Refresh(ctx); err != nil {
				log.Warn("snapshot refresh failed", "error", err)
			}
		}
	}
}

// healthCheck verifies the connected services are reachable and the push
// topics are subscribed. The journal and InfluxDB are optional and
// skipped when nil.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, pushTopics []string, influxClient *influxdb.Client) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if missing := mqttClient.Unsubscribed(pushTopics...); len(missing) > 0 {
		return fmt.Errorf("mqtt: push topics not subscribed: %v", missing)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// mqttSubscriber adapts *mqtt.Client to push.Subscriber.
type mqttSubscriber struct {
	client *mqtt.Client
}

func (s *mqttSubscriber) Subscribe(topic string, qos byte, handler func(string, []byte) error) error {
	return s.client.Subscribe(topic, qos, mqtt.MessageHandler(handler))
}

func (s *mqttSubscriber) Unsubscribe(topic string) error {
	return s.client.Unsubscribe(topic)
}
