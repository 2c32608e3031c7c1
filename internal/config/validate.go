package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}
	if c.Instance.ClientID < 0 {
		return errors.New("instance.client_id must be >= 0")
	}

	if c.Gateway.URL == "" {
		return errors.New("gateway.url is required")
	}
	u, err := url.Parse(c.Gateway.URL)
	if err != nil {
		return fmt.Errorf("gateway.url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("gateway.url scheme must be ws or wss, got %q", u.Scheme)
	}
	if c.Gateway.EventBufferSize < 1 {
		return errors.New("gateway.event_buffer_size must be >= 1")
	}

	if c.Auth.KeyID != "" && c.Auth.PrivateKeyPath == "" {
		return errors.New("auth.private_key_path is required when auth.key_id is set")
	}

	if c.History.QueueSize < 1 {
		return errors.New("history.queue_size must be >= 1")
	}
	if c.History.Timezone != "" {
		if _, err := time.LoadLocation(c.History.Timezone); err != nil {
			return fmt.Errorf("history.timezone: %w", err)
		}
	}
	if c.History.Postgres && !c.DatabaseEnabled() {
		return errors.New("history.postgres requires database.host")
	}

	if c.DatabaseEnabled() {
		if err := c.Database.validate("database"); err != nil {
			return err
		}
	}

	if c.Notify.QueueSize < 1 {
		return errors.New("notify.queue_size must be >= 1")
	}
	if c.Orders.RestampDelay < 0 {
		return errors.New("orders.restamp_delay must be >= 0")
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}

// SlogLevel returns the configured log level, info when unset or invalid.
func (l LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
