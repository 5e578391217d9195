package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Command transports for writing item commands.
const (
	TransportREST = "rest"
	TransportMQTT = "mqtt"
)

// Config is the root configuration of the bridge.
// Values come from defaults, then the YAML file, then OHGHOME_* environment
// variables.
type Config struct {
	OpenHAB   OpenHABConfig   `yaml:"openhab"`
	API       APIConfig       `yaml:"api"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Database  DatabaseConfig  `yaml:"database"`
	HomeGraph HomeGraphConfig `yaml:"homegraph"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// OpenHABConfig describes the openHAB REST endpoint items are read from.
type OpenHABConfig struct {
	URL      string `yaml:"url"`
	ItemPath string `yaml:"item_path"`
	UUIDPath string `yaml:"uuid_path"`
	Timeout  int    `yaml:"timeout"`

	// CommandTransport selects how commands reach openHAB: "rest" posts to
	// the item endpoint, "mqtt" publishes to <mqtt.topic_prefix>/<item>/command.
	CommandTransport string `yaml:"command_transport"`
}

// APIConfig contains the fulfillment HTTP server settings.
type APIConfig struct {
	Host            string           `yaml:"host"`
	Port            int              `yaml:"port"`
	TLS             TLSConfig        `yaml:"tls"`
	Timeouts        APITimeoutConfig `yaml:"timeouts"`
	CORS            CORSConfig       `yaml:"cors"`
	FulfillmentPath string           `yaml:"fulfillment_path"`
	MaxBodyBytes    int64            `yaml:"max_body_bytes"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeouts in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
	TopicPrefix string              `yaml:"topic_prefix"`
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

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
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

// DatabaseConfig contains the SQLite audit store settings.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// HomeGraphConfig contains Google HomeGraph report-state settings.
type HomeGraphConfig struct {
	Enabled            bool   `yaml:"enabled"`
	ServiceAccountFile string `yaml:"service_account_file"`
	Endpoint           string `yaml:"endpoint"`
	TokenURL           string `yaml:"token_url"`
	Timeout            int    `yaml:"timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable
// overrides. An empty path skips the file and uses defaults plus environment.
//
// Environment variables follow the pattern OHGHOME_SECTION_KEY, for example
// OHGHOME_OPENHAB_URL or OHGHOME_API_PORT.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		OpenHAB: OpenHABConfig{
			URL:              "http://localhost:8080",
			ItemPath:         "/rest/items/",
			UUIDPath:         "/rest/uuid",
			Timeout:          10,
			CommandTransport: TransportREST,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 3000,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			FulfillmentPath: "/smarthome",
			MaxBodyBytes:    1 << 20,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "openhab-ghome",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			TopicPrefix: "openhab",
		},
		InfluxDB: InfluxDBConfig{
			Bucket:        "ghome",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Database: DatabaseConfig{
			Enabled:     true,
			Path:        "./data/openhab-ghome.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		HomeGraph: HomeGraphConfig{
			Endpoint: "https://homegraph.googleapis.com/v1/devices:reportStateAndNotification",
			TokenURL: "https://oauth2.googleapis.com/token",
			Timeout:  10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

func applyEnvOverrides(cfg *Config) error {
	// openHAB
	if v := os.Getenv("OHGHOME_OPENHAB_URL"); v != "" {
		cfg.OpenHAB.URL = v
	}
	if v := os.Getenv("OHGHOME_OPENHAB_COMMAND_TRANSPORT"); v != "" {
		cfg.OpenHAB.CommandTransport = v
	}

	// API
	if v := os.Getenv("OHGHOME_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("OHGHOME_API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("OHGHOME_API_PORT: %w", err)
		}
		cfg.API.Port = port
	}

	// MQTT
	if v := os.Getenv("OHGHOME_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("OHGHOME_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("OHGHOME_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("OHGHOME_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Database
	if v := os.Getenv("OHGHOME_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// HomeGraph
	if v := os.Getenv("OHGHOME_HOMEGRAPH_SERVICE_ACCOUNT_FILE"); v != "" {
		cfg.HomeGraph.ServiceAccountFile = v
		cfg.HomeGraph.Enabled = true
	}

	// Logging
	if v := os.Getenv("OHGHOME_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []string

	if u, err := url.Parse(c.OpenHAB.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "openhab.url must be an absolute URL")
	}
	if !strings.HasPrefix(c.OpenHAB.ItemPath, "/") || !strings.HasSuffix(c.OpenHAB.ItemPath, "/") {
		errs = append(errs, "openhab.item_path must start and end with /")
	}
	switch c.OpenHAB.CommandTransport {
	case TransportREST:
	case TransportMQTT:
		if !c.MQTT.Enabled {
			errs = append(errs, "openhab.command_transport mqtt requires mqtt.enabled")
		}
	default:
		errs = append(errs, "openhab.command_transport must be rest or mqtt")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if !strings.HasPrefix(c.API.FulfillmentPath, "/") {
		errs = append(errs, "api.fulfillment_path must start with /")
	}
	if c.API.TLS.Enabled && (c.API.TLS.CertFile == "" || c.API.TLS.KeyFile == "") {
		errs = append(errs, "api.tls requires cert_file and key_file")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.TopicPrefix == "" {
		errs = append(errs, "mqtt.topic_prefix is required")
	}

	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url, org and bucket are required when enabled")
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.HomeGraph.Enabled && c.HomeGraph.ServiceAccountFile == "" {
		errs = append(errs, "homegraph.service_account_file is required (set OHGHOME_HOMEGRAPH_SERVICE_ACCOUNT_FILE)")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetOpenHABTimeout returns the openHAB request timeout as a Duration.
func (c *Config) GetOpenHABTimeout() time.Duration {
	return time.Duration(c.OpenHAB.Timeout) * time.Second
}
