package writer

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rickgao/ibmirror/internal/metrics"
	"github.com/rickgao/ibmirror/internal/model"
)

type recordingSink struct {
	name  string
	err   error
	delay time.Duration

	mu     sync.Mutex
	series []model.Series
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Write(ctx context.Context, series model.Series) error {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.series = append(s.series, series)
	return nil
}

func (s *recordingSink) symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, ser := range s.series {
		out = append(out, ser.Symbol)
	}
	return out
}

func TestMultiSink_FansOut(t *testing.T) {
	a := &recordingSink{name: "a"}
	b := &recordingSink{name: "b"}
	m := NewMultiSink([]Sink{a, b}, nil, nil)

	if err := m.Write(context.Background(), model.Series{Symbol: "AAPL"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(a.symbols()) != 1 || len(b.symbols()) != 1 {
		t.Errorf("a=%v b=%v, want one series each", a.symbols(), b.symbols())
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
}

func TestMultiSink_FailureDoesNotStopOthers(t *testing.T) {
	reg := prometheus.NewRegistry()
	col := metrics.New(reg)

	bad := &recordingSink{name: "postgres", err: errors.New("connection refused")}
	good := &recordingSink{name: "csv"}
	m := NewMultiSink([]Sink{bad, good}, col, nil)

	err := m.Write(context.Background(), model.Series{Symbol: "ESH2024"})
	if err == nil || !strings.HasPrefix(err.Error(), "postgres: ") {
		t.Errorf("Write() error = %v, want postgres error", err)
	}
	if len(good.symbols()) != 1 {
		t.Error("healthy sink did not receive the series")
	}

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`ibmirror_history_sink_errors_total{sink="postgres"} 1`,
		`ibmirror_history_series_flushed_total{sink="csv"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestFlusher_WritesInOrder(t *testing.T) {
	sink := &recordingSink{name: "rec"}
	f := NewFlusher(DefaultFlusherConfig(), sink, nil, nil)

	if err := f.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	f.Submit([]model.Series{{Symbol: "A"}, {Symbol: "B"}})
	f.Submit([]model.Series{{Symbol: "C"}})
	f.Submit(nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := f.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	got := strings.Join(sink.symbols(), ",")
	if got != "A,B,C" {
		t.Errorf("written = %s, want A,B,C", got)
	}
	if s := f.Stats(); s.Submitted != 3 || s.Written != 3 || s.Failed != 0 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestFlusher_SubmitDoesNotBlockOnSlowSink(t *testing.T) {
	sink := &recordingSink{name: "slow", delay: 50 * time.Millisecond}
	f := NewFlusher(DefaultFlusherConfig(), sink, nil, nil)
	f.Start(context.Background())
	defer f.Stop(context.Background())

	start := time.Now()
	for i := 0; i < 10; i++ {
		f.Submit([]model.Series{{Symbol: "X"}})
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Errorf("Submit blocked for %v", elapsed)
	}
}

func TestFlusher_CountsFailures(t *testing.T) {
	sink := &recordingSink{name: "bad", err: errors.New("disk full")}
	f := NewFlusher(DefaultFlusherConfig(), sink, nil, nil)
	f.Start(context.Background())

	f.Submit([]model.Series{{Symbol: "A"}, {Symbol: "B"}})
	if err := f.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}

	if s := f.Stats(); s.Failed != 2 || s.Written != 0 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestFlusher_RejectsAfterStop(t *testing.T) {
	sink := &recordingSink{name: "rec"}
	f := NewFlusher(DefaultFlusherConfig(), sink, nil, nil)
	f.Start(context.Background())
	f.Stop(context.Background())

	f.Submit([]model.Series{{Symbol: "late"}})

	if s := f.Stats(); s.Rejected != 1 || s.Submitted != 0 {
		t.Errorf("Stats() = %+v", s)
	}
	if len(sink.symbols()) != 0 {
		t.Error("series written after Stop")
	}
}

func TestFlusher_StopTimeoutCancelsWrites(t *testing.T) {
	sink := &recordingSink{name: "stuck", delay: time.Hour}
	f := NewFlusher(DefaultFlusherConfig(), sink, nil, nil)
	f.Start(context.Background())
	f.Submit([]model.Series{{Symbol: "A"}})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := f.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Stop() error = %v, want deadline exceeded", err)
	}

	// The cancelled write unblocks and is counted as failed.
	deadline := time.Now().Add(time.Second)
	for f.Stats().Failed != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if f.Stats().Failed != 1 {
		t.Errorf("Stats() = %+v, want one failed write", f.Stats())
	}
}

func TestFlusher_DoubleStart(t *testing.T) {
	f := NewFlusher(FlusherConfig{}, &recordingSink{name: "rec"}, nil, nil)
	if err := f.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer f.Stop(context.Background())
	if err := f.Start(context.Background()); err == nil {
		t.Error("second Start returned nil")
	}
}
