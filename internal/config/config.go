// Package config loads the mirror's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for one mirror instance.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Auth     AuthConfig     `yaml:"auth"`
	History  HistoryConfig  `yaml:"history"`
	Database DBConfig       `yaml:"database"`
	Notify   NotifyConfig   `yaml:"notify"`
	Orders   OrdersConfig   `yaml:"orders"`
	Clock    ClockConfig    `yaml:"clock"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

// InstanceConfig identifies the session towards the gateway.
type InstanceConfig struct {
	ID       string `yaml:"id"`
	ClientID int    `yaml:"client_id"`
}

// GatewayConfig configures the bridge websocket connection.
type GatewayConfig struct {
	URL             string        `yaml:"url"`
	PingTimeout     time.Duration `yaml:"ping_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	HeartbeatPeriod time.Duration `yaml:"heartbeat_period"`
	EventBufferSize int           `yaml:"event_buffer_size"`
}

// AuthConfig holds the handshake signing key. Empty KeyID disables signing.
type AuthConfig struct {
	KeyID          string `yaml:"key_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
}

// HistoryConfig configures where finished historical series go.
type HistoryConfig struct {
	CSVDir    string `yaml:"csv_dir"`  // Empty disables the CSV sink
	Postgres  bool   `yaml:"postgres"` // Also write bars to historical_bars
	QueueSize int    `yaml:"queue_size"`
	Timezone  string `yaml:"timezone"` // Zone for intraday bar timestamps
}

// DBConfig configures the optional Postgres connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// NotifyConfig sizes the notification queue.
type NotifyConfig struct {
	QueueSize int `yaml:"queue_size"`
}

// OrdersConfig configures order bookkeeping.
type OrdersConfig struct {
	RestampDelay time.Duration `yaml:"restamp_delay"`
}

// ClockConfig configures the periodic server time refresh. A negative
// interval disables it.
type ClockConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// MetricsConfig configures the HTTP server for health and metrics.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // Optional file teed with stdout
}

// Load reads a YAML config file, expanding ${VAR} references from the
// environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// LoadWithDefaults loads the file and fills in unset optional fields.
func LoadWithDefaults(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadAndValidate loads, applies defaults and validates.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// DatabaseEnabled reports whether a Postgres connection is configured.
func (c *Config) DatabaseEnabled() bool {
	return c.Database.Host != ""
}

// Location resolves History.Timezone. Empty means the local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.History.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.History.Timezone)
}
