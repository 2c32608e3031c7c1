package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingRequester struct {
	calls atomic.Int32
	err   error
}

func (r *countingRequester) RequestCurrentTime() error {
	r.calls.Add(1)
	return r.err
}

func TestClock_RequestsOnInterval(t *testing.T) {
	req := &countingRequester{}
	c := NewClock(Config{Interval: 10 * time.Millisecond}, req, nil)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(55 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	got := req.calls.Load()
	if got < 3 {
		t.Errorf("requests = %d, want at least 3", got)
	}
	if c.Stats().Requests != int64(got) {
		t.Errorf("Stats().Requests = %d, want %d", c.Stats().Requests, got)
	}

	// No requests after Stop.
	time.Sleep(25 * time.Millisecond)
	if req.calls.Load() != got {
		t.Error("requests continued after Stop")
	}
}

func TestClock_NoImmediateRequest(t *testing.T) {
	req := &countingRequester{}
	c := NewClock(Config{Interval: time.Hour}, req, nil)
	c.Start(context.Background())
	c.Stop(context.Background())

	if req.calls.Load() != 0 {
		t.Errorf("requests = %d, want 0", req.calls.Load())
	}
}

func TestClock_CountsFailures(t *testing.T) {
	req := &countingRequester{err: errors.New("not connected")}
	c := NewClock(Config{Interval: 5 * time.Millisecond}, req, nil)
	c.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	c.Stop(context.Background())

	s := c.Stats()
	if s.Failures == 0 || s.Failures != s.Requests {
		t.Errorf("Stats() = %+v, want every request failed", s)
	}
}

func TestClock_ParentContextCancel(t *testing.T) {
	req := &countingRequester{}
	c := NewClock(Config{Interval: time.Hour}, req, nil)

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := c.Stop(stopCtx); err != nil {
		t.Errorf("Stop after parent cancel: %v", err)
	}
}

func TestNewClock_DefaultInterval(t *testing.T) {
	c := NewClock(Config{}, &countingRequester{}, nil)
	if c.cfg.Interval != DefaultConfig().Interval {
		t.Errorf("Interval = %v, want %v", c.cfg.Interval, DefaultConfig().Interval)
	}
}
