package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// TimeRequester asks the gateway for its clock.
type TimeRequester interface {
	RequestCurrentTime() error
}

// Config holds clock refresher configuration.
type Config struct {
	Interval time.Duration // Request interval (default: 30s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Interval: 30 * time.Second}
}

// Stats contains refresher counters.
type Stats struct {
	Requests int64
	Failures int64
}

// Clock periodically requests the gateway's current time.
type Clock struct {
	cfg       Config
	requester TimeRequester
	logger    *slog.Logger

	requests atomic.Int64
	failures atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClock creates a clock refresher.
func NewClock(cfg Config, requester TimeRequester, logger *slog.Logger) *Clock {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Clock{
		cfg:       cfg,
		requester: requester,
		logger:    logger,
	}
}

// Start begins the refresh loop.
func (c *Clock) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go c.run()

	c.logger.Info("clock refresher started", "interval", c.cfg.Interval)
	return nil
}

// Stop gracefully shuts down the refresher.
func (c *Clock) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("clock refresher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns current counters.
func (c *Clock) Stats() Stats {
	return Stats{
		Requests: c.requests.Load(),
		Failures: c.failures.Load(),
	}
}

func (c *Clock) run() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.refresh()
		}
	}
}

func (c *Clock) refresh() {
	c.requests.Add(1)
	if err := c.requester.RequestCurrentTime(); err != nil {
		c.failures.Add(1)
		c.logger.Warn("server time request failed", "error", err)
	}
}
