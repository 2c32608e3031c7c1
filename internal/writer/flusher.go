package writer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/ibmirror/internal/metrics"
	"github.com/rickgao/ibmirror/internal/model"
	"github.com/rickgao/ibmirror/internal/queue"
)

// FlusherConfig configures a Flusher.
type FlusherConfig struct {
	QueueSize    int           // Initial queue capacity, in submissions
	WriteTimeout time.Duration // Per-series sink deadline
}

// DefaultFlusherConfig returns sensible defaults.
func DefaultFlusherConfig() FlusherConfig {
	return FlusherConfig{
		QueueSize:    64,
		WriteTimeout: 30 * time.Second,
	}
}

// FlusherStats contains flusher counters.
type FlusherStats struct {
	Submitted int64
	Written   int64
	Failed    int64
	Rejected  int64 // Submitted after Stop
}

// Flusher hands finished series to a sink on its own goroutine. Submit
// never blocks.
type Flusher struct {
	cfg     FlusherConfig
	sink    Sink
	input   *queue.Queue[[]model.Series]
	metrics *metrics.Collectors
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	stats FlusherStats
}

// NewFlusher creates a flusher for sink. metrics may be nil.
func NewFlusher(cfg FlusherConfig, sink Sink, m *metrics.Collectors, logger *slog.Logger) *Flusher {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultFlusherConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaults.QueueSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	return &Flusher{
		cfg:     cfg,
		sink:    sink,
		input:   queue.New[[]model.Series](cfg.QueueSize),
		metrics: m,
		logger:  logger,
	}
}

// Submit queues series for writing.
func (f *Flusher) Submit(series []model.Series) {
	if len(series) == 0 {
		return
	}

	ok := f.input.Push(series)

	f.mu.Lock()
	if ok {
		f.stats.Submitted += int64(len(series))
	} else {
		f.stats.Rejected += int64(len(series))
	}
	f.mu.Unlock()

	if !ok {
		f.logger.Warn("history flusher stopped, series dropped", "count", len(series))
		return
	}
	f.metrics.QueueDepth("history", f.input.Len())
}

// Start begins writing queued series.
func (f *Flusher) Start(ctx context.Context) error {
	if f.cancel != nil {
		return fmt.Errorf("history flusher already started")
	}
	f.ctx, f.cancel = context.WithCancel(ctx)

	f.wg.Add(1)
	go f.run()

	f.logger.Info("history flusher started", "sink", f.sink.Name())
	return nil
}

// Stop stops accepting series and waits for queued ones to be written,
// bounded by ctx. Writes still running when ctx expires are cancelled.
func (f *Flusher) Stop(ctx context.Context) error {
	f.logger.Info("stopping history flusher")
	f.input.Close()

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
		f.logger.Info("history flusher stopped", "written", f.Stats().Written)
	case <-ctx.Done():
		f.logger.Warn("history flusher stop timed out", "queued", f.input.Len())
		err = ctx.Err()
	}

	if f.cancel != nil {
		f.cancel()
	}
	return err
}

// Stats returns current counters.
func (f *Flusher) Stats() FlusherStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

func (f *Flusher) run() {
	defer f.wg.Done()

	for {
		batches := f.input.PopBatch(0)
		if batches == nil {
			return
		}
		f.metrics.QueueDepth("history", f.input.Len())

		for _, batch := range batches {
			for _, s := range batch {
				f.write(s)
			}
		}
	}
}

func (f *Flusher) write(s model.Series) {
	ctx, cancel := context.WithTimeout(f.ctx, f.cfg.WriteTimeout)
	defer cancel()

	start := time.Now()
	err := f.sink.Write(ctx, s)

	f.mu.Lock()
	if err != nil {
		f.stats.Failed++
	} else {
		f.stats.Written++
	}
	f.mu.Unlock()

	if err != nil {
		f.logger.Error("history write failed", "symbol", s.Symbol, "bars", len(s.Bars), "error", err)
		return
	}
	f.logger.Debug("history written",
		"symbol", s.Symbol,
		"bars", len(s.Bars),
		"duration", time.Since(start),
	)
}
