package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rickgao/ibmirror/internal/metrics"
	"github.com/rickgao/ibmirror/internal/queue"
)

// Handler receives notifications. It is called from a single goroutine, in
// publish order.
type Handler interface {
	Handle(n Notification)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(Notification)

func (f HandlerFunc) Handle(n Notification) { f(n) }

// Config holds hub configuration.
type Config struct {
	QueueSize int // Initial queue capacity
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{QueueSize: 1024}
}

// Stats reports hub counters.
type Stats struct {
	Published int64
	Delivered int64
	Dropped   int64 // Published with no handler installed
	Panics    int64
	Queued    int
}

// Hub fans notifications out to the application handler.
type Hub struct {
	queue   *queue.Queue[Notification]
	logger  *slog.Logger
	metrics *metrics.Collectors

	mu      sync.RWMutex
	handler Handler

	statsMu sync.Mutex
	stats   Stats

	wg      sync.WaitGroup
	started bool
}

// NewHub creates a hub. metrics may be nil.
func NewHub(cfg Config, m *metrics.Collectors, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	return &Hub{
		queue:   queue.New[Notification](cfg.QueueSize),
		logger:  logger,
		metrics: m,
	}
}

// SetHandler installs the application handler, replacing any previous one.
// A nil handler drops notifications.
func (h *Hub) SetHandler(handler Handler) {
	h.mu.Lock()
	h.handler = handler
	h.mu.Unlock()
}

// Publish queues n for delivery. It never blocks. Returns false once the
// hub is stopped.
func (h *Hub) Publish(n Notification) bool {
	if !h.queue.Push(n) {
		return false
	}
	h.statsMu.Lock()
	h.stats.Published++
	h.statsMu.Unlock()
	h.metrics.QueueDepth("notify", h.queue.Len())
	return true
}

// Start begins dispatching.
func (h *Hub) Start(ctx context.Context) error {
	if h.started {
		return fmt.Errorf("notify hub already started")
	}
	h.started = true

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.dispatchLoop()
	}()

	h.logger.Info("notification hub started")
	return nil
}

// Stop closes the queue and waits for queued notifications to be
// delivered, bounded by ctx.
func (h *Hub) Stop(ctx context.Context) error {
	h.queue.Close()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("notification hub stopped", "delivered", h.Stats().Delivered)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of hub counters.
func (h *Hub) Stats() Stats {
	h.statsMu.Lock()
	s := h.stats
	h.statsMu.Unlock()
	s.Queued = h.queue.Len()
	return s
}

func (h *Hub) dispatchLoop() {
	for {
		n, ok := h.queue.Pop()
		if !ok {
			return
		}
		h.metrics.QueueDepth("notify", h.queue.Len())
		h.deliver(n)
	}
}

func (h *Hub) deliver(n Notification) {
	h.mu.RLock()
	handler := h.handler
	h.mu.RUnlock()

	if handler == nil {
		h.statsMu.Lock()
		h.stats.Dropped++
		h.statsMu.Unlock()
		return
	}

	defer func() {
		if r := recover(); r != nil {
			h.statsMu.Lock()
			h.stats.Panics++
			h.statsMu.Unlock()
			h.metrics.HandlerPanic()
			h.logger.Error("notification handler panicked",
				"kind", n.Kind().String(),
				"panic", r,
			)
		}
	}()

	handler.Handle(n)

	h.statsMu.Lock()
	h.stats.Delivered++
	h.statsMu.Unlock()
	h.metrics.Notification(n.Kind().String())
}
