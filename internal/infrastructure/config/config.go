package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the EcoNet core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Account  AccountConfig  `yaml:"account"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Sync     SyncConfig     `yaml:"sync"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Journal  JournalConfig  `yaml:"journal"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AccountConfig contains the EcoNet cloud account and REST endpoint settings.
type AccountConfig struct {
	Email        string `yaml:"email"`
	Password     string `yaml:"password"`
	APIURL       string `yaml:"api_url"`
	SystemKey    string `yaml:"system_key"`
	SystemSecret string `yaml:"system_secret"`

	// Resource is the app resource name sent with the snapshot request.
	Resource string `yaml:"resource"`

	// RequestTimeout bounds each REST call, in seconds.
	RequestTimeout int `yaml:"request_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
//
// Credentials are not configured here: the broker accepts the session's
// user token as username and the system key as password.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	TLS  bool   `yaml:"tls"`

	// ClientSuffix is appended to the generated client identifier.
	ClientSuffix string `yaml:"client_suffix"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// SyncConfig controls push dispatch and periodic snapshot refresh.
type SyncConfig struct {
	// QueueSize bounds the number of decoded pushes awaiting routing.
	QueueSize int `yaml:"queue_size"`

	// RefreshInterval re-fetches the snapshot every N seconds. 0 disables.
	RefreshInterval int `yaml:"refresh_interval"`

	// UsageInterval polls water heater usage reports every N seconds while
	// InfluxDB is enabled. 0 disables.
	UsageInterval int `yaml:"usage_interval"`
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

// JournalConfig contains settings for the SQLite command journal.
type JournalConfig struct {
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

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ECONET_SECTION_KEY
// For example: ECONET_MQTT_HOST, ECONET_JOURNAL_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with the public EcoNet app endpoints.
func defaultConfig() *Config {
	return &Config{
		Account: AccountConfig{
			APIURL:         "https://rheem.clearblade.com/api/v/1",
			SystemKey:      "e2e699cb0bb0bbb88fc8858cb5a401",
			SystemSecret:   "E2E699CB0BE6C6FADDB1B0BC9A20",
			Resource:       "friedrich",
			RequestTimeout: 30,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:         "rheem.clearblade.com",
				Port:         1884,
				TLS:          true,
				ClientSuffix: "_android",
			},
			QoS: 0,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Sync: SyncConfig{
			QueueSize:       256,
			RefreshInterval: 0,
			UsageInterval:   3600,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Journal: JournalConfig{
			Path:        "./data/econet.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ECONET_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Account
	if v := os.Getenv("ECONET_EMAIL"); v != "" {
		cfg.Account.Email = v
	}
	if v := os.Getenv("ECONET_PASSWORD"); v != "" {
		cfg.Account.Password = v
	}
	if v := os.Getenv("ECONET_API_URL"); v != "" {
		cfg.Account.APIURL = v
	}

	// MQTT
	if v := os.Getenv("ECONET_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}

	// InfluxDB
	if v := os.Getenv("ECONET_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Journal
	if v := os.Getenv("ECONET_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}
}

// Validate checks the configuration for missing credentials and bad ranges.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Account validation
	if c.Account.Email == "" {
		errs = append(errs, "account.email is required (set ECONET_EMAIL environment variable)")
	}
	if c.Account.Password == "" {
		errs = append(errs, "account.password is required (set ECONET_PASSWORD environment variable)")
	}
	if c.Account.APIURL == "" {
		errs = append(errs, "account.api_url is required")
	}
	if c.Account.SystemKey == "" || c.Account.SystemSecret == "" {
		errs = append(errs, "account.system_key and account.system_secret are required")
	}

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Sync validation
	if c.Sync.QueueSize < 1 {
		errs = append(errs, "sync.queue_size must be at least 1")
	}
	if c.Sync.RefreshInterval < 0 {
		errs = append(errs, "sync.refresh_interval must not be negative")
	}
	if c.Sync.UsageInterval < 0 {
		errs = append(errs, "sync.usage_interval must not be negative")
	}

	// Optional sinks
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, "journal.path is required when the journal is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetRequestTimeout returns the REST request timeout as a Duration.
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.Account.RequestTimeout) * time.Second
}

// GetRefreshInterval returns the snapshot refresh period. Zero means disabled.
func (c *Config) GetRefreshInterval() time.Duration {
	return time.Duration(c.Sync.RefreshInterval) * time.Second
}

// GetUsageInterval returns the usage report polling period. Zero means disabled.
func (c *Config) GetUsageInterval() time.Duration {
	return time.Duration(c.Sync.UsageInterval) * time.Second
}
