package writer

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/ibmirror/internal/metrics"
	"github.com/rickgao/ibmirror/internal/model"
)

// Sink writes one finished series.
type Sink interface {
	Name() string
	Write(ctx context.Context, series model.Series) error
}

// MultiSink writes each series to every sink concurrently.
type MultiSink struct {
	sinks   []Sink
	metrics *metrics.Collectors
	logger  *slog.Logger
}

// NewMultiSink creates a fan-out sink. metrics may be nil.
func NewMultiSink(sinks []Sink, m *metrics.Collectors, logger *slog.Logger) *MultiSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiSink{sinks: sinks, metrics: m, logger: logger}
}

func (m *MultiSink) Name() string { return "multi" }

// Len returns the number of sinks.
func (m *MultiSink) Len() int { return len(m.sinks) }

// Write runs every sink. A failing sink does not stop the others; the first
// error is returned once all have finished.
func (m *MultiSink) Write(ctx context.Context, series model.Series) error {
	var g errgroup.Group
	for _, s := range m.sinks {
		s := s
		g.Go(func() error {
			if err := s.Write(ctx, series); err != nil {
				m.metrics.SinkError(s.Name())
				m.logger.Error("history sink failed",
					"sink", s.Name(),
					"symbol", series.Symbol,
					"error", err,
				)
				return fmt.Errorf("%s: %w", s.Name(), err)
			}
			m.metrics.SeriesFlushed(s.Name(), 1)
			return nil
		})
	}
	return g.Wait()
}
