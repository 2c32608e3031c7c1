package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultInstanceID       = "ibmirror"
	DefaultGatewayURL       = "ws://localhost:8765/v1/stream"
	DefaultPingTimeout      = 60 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultHeartbeatPeriod  = 30 * time.Second
	DefaultEventBufferSize  = 10000
	DefaultHistoryQueueSize = 64
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 10
	DefaultMinConns         = 2
	DefaultNotifyQueueSize  = 1024
	DefaultRestampDelay     = time.Millisecond
	DefaultClockInterval    = 30 * time.Second
	DefaultMetricsPort      = 9090
	DefaultMetricsPath      = "/metrics"
	DefaultLogLevel         = "info"
)

func (c *Config) applyDefaults() {
	if c.Instance.ID == "" {
		c.Instance.ID = DefaultInstanceID
	}

	// Gateway defaults
	if c.Gateway.URL == "" {
		c.Gateway.URL = DefaultGatewayURL
	}
	if c.Gateway.PingTimeout == 0 {
		c.Gateway.PingTimeout = DefaultPingTimeout
	}
	if c.Gateway.WriteTimeout == 0 {
		c.Gateway.WriteTimeout = DefaultWriteTimeout
	}
	if c.Gateway.HeartbeatPeriod == 0 {
		c.Gateway.HeartbeatPeriod = DefaultHeartbeatPeriod
	}
	if c.Gateway.EventBufferSize == 0 {
		c.Gateway.EventBufferSize = DefaultEventBufferSize
	}

	if c.History.QueueSize == 0 {
		c.History.QueueSize = DefaultHistoryQueueSize
	}

	// Database defaults only matter when a host is set.
	if c.DatabaseEnabled() {
		applyDBDefaults(&c.Database)
	}

	if c.Notify.QueueSize == 0 {
		c.Notify.QueueSize = DefaultNotifyQueueSize
	}
	if c.Orders.RestampDelay == 0 {
		c.Orders.RestampDelay = DefaultRestampDelay
	}
	if c.Clock.Interval == 0 {
		c.Clock.Interval = DefaultClockInterval
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
