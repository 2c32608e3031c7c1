// Package session wires one gateway session: registry, stores, classifier,
// notification hub and order builder. It is the application's entry point.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/ibmirror/internal/connection"
	"github.com/rickgao/ibmirror/internal/event"
	"github.com/rickgao/ibmirror/internal/instrument"
	"github.com/rickgao/ibmirror/internal/market"
	"github.com/rickgao/ibmirror/internal/metrics"
	"github.com/rickgao/ibmirror/internal/notify"
	"github.com/rickgao/ibmirror/internal/order"
	"github.com/rickgao/ibmirror/internal/router"
	"github.com/rickgao/ibmirror/internal/store"
)

// Config holds session configuration.
type Config struct {
	ClientID     int           // Stamped on every order
	Router       router.Config // Classifier settings
	Notify       notify.Config // Notification queue settings
	AccountKeys  []string      // Account values to mirror; nil = model.TrackedAccountKeys
	GenericTicks string        // Generic tick list sent with market data requests
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Router:       router.DefaultConfig(),
		Notify:       notify.DefaultConfig(),
		GenericTicks: event.GenericTicksRTVolume,
	}
}

// Stats combines the counters of the session's components.
type Stats struct {
	Classifier router.Stats
	Hub        notify.Stats
	Contracts  int
	Orders     int
}

// Session mirrors the state of one gateway session.
type Session struct {
	id      uuid.UUID
	cfg     Config
	gateway connection.Gateway
	metrics *metrics.Collectors
	logger  *slog.Logger

	registry   *market.Registry
	contracts  *instrument.Builder
	stores     *store.Set
	hub        *notify.Hub
	classifier *router.Classifier
	orders     *order.Builder
}

// New creates a session over gateway. sink receives finished historical
// series and may be nil; metrics may be nil.
func New(cfg Config, gateway connection.Gateway, sink router.HistorySink, m *metrics.Collectors, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.GenericTicks == "" {
		cfg.GenericTicks = event.GenericTicksRTVolume
	}

	id := uuid.New()
	logger = logger.With("session", id.String())

	registry := market.NewRegistry()
	contracts := instrument.NewBuilder(registry, logger)
	stores := store.NewSet(cfg.AccountKeys...)
	hub := notify.NewHub(cfg.Notify, m, logger)

	deps := router.Dependencies{
		Registry: registry,
		Keys:     contracts,
		Stores:   stores,
		Hub:      hub,
		Sink:     sink,
		Clock:    gateway,
		Metrics:  m,
	}

	return &Session{
		id:         id,
		cfg:        cfg,
		gateway:    gateway,
		metrics:    m,
		logger:     logger,
		registry:   registry,
		contracts:  contracts,
		stores:     stores,
		hub:        hub,
		classifier: router.NewClassifier(cfg.Router, deps, gateway.Events(), logger),
		orders:     order.NewBuilder(gateway, stores.Orders, stores.Session, cfg.ClientID, logger),
	}
}

// Start begins dispatching notifications and classifying events, then asks
// the gateway for its clock.
func (s *Session) Start(ctx context.Context) error {
	if err := s.hub.Start(ctx); err != nil {
		return fmt.Errorf("start notification hub: %w", err)
	}
	if err := s.classifier.Start(ctx); err != nil {
		return fmt.Errorf("start classifier: %w", err)
	}

	if err := s.RequestServerTime(); err != nil {
		s.logger.Warn("initial server time request failed", "error", err)
	}

	s.logger.Info("session started", "client_id", s.cfg.ClientID)
	return nil
}

// Stop stops the classifier, then drains the notification hub.
func (s *Session) Stop(ctx context.Context) error {
	var errs []error
	if err := s.classifier.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop classifier: %w", err))
	}
	if err := s.hub.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop notification hub: %w", err))
	}
	s.logger.Info("session stopped")
	return errors.Join(errs...)
}

// SetHandler installs the application's notification handler.
func (s *Session) SetHandler(h notify.Handler) {
	s.hub.SetHandler(h)
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID { return s.id }

// Stores exposes the state stores for read access.
func (s *Session) Stores() *store.Set { return s.stores }

// Registry exposes the identifier registry.
func (s *Session) Registry() *market.Registry { return s.registry }

// Orders exposes the order builder.
func (s *Session) Orders() *order.Builder { return s.orders }

// Stats returns a snapshot of component counters.
func (s *Session) Stats() Stats {
	return Stats{
		Classifier: s.classifier.Stats(),
		Hub:        s.hub.Stats(),
		Contracts:  s.registry.Len(),
		Orders:     s.stores.Orders.Len(),
	}
}

// Time returns the latest gateway time observed.
func (s *Session) Time() time.Time { return s.stores.Session.Time() }

// AccountCode returns the managed account used for account updates.
func (s *Session) AccountCode() string { return s.stores.Session.AccountCode() }

// NextOrderID returns the next order id without consuming it.
func (s *Session) NextOrderID() int { return s.stores.Session.NextOrderID() }

// Commission returns the commission of the latest execution.
func (s *Session) Commission() float64 { return s.stores.Session.Commission() }
