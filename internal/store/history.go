package store

import (
	"sort"
	"sync"

	"github.com/rickgao/ibmirror/internal/model"
)

// History accumulates historical bars per canonical key. Series are
// append-only until Begin starts a fresh one for the same key; finished
// series stay readable.
type History struct {
	mu      sync.RWMutex
	series  map[string][]model.Bar
	pending map[string]struct{}
}

func NewHistory() *History {
	return &History{
		series:  make(map[string][]model.Bar),
		pending: make(map[string]struct{}),
	}
}

// Begin discards any bars held for key and marks it pending.
func (s *History) Begin(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.series[key] = nil
	s.pending[key] = struct{}{}
}

// Append adds bar to the series for key and returns the new length.
func (s *History) Append(key string, bar model.Bar) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.series[key] = append(s.series[key], bar)
	s.pending[key] = struct{}{}
	return len(s.series[key])
}

// Finish returns a copy of every pending series, ordered by key, and clears
// the pending set.
func (s *History) Finish() []model.Series {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Series, 0, len(s.pending))
	for key := range s.pending {
		out = append(out, model.Series{Symbol: key, Bars: copyBars(s.series[key])})
	}
	clear(s.pending)

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Series returns a copy of the bars held for key.
func (s *History) Series(key string) (model.Series, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bars, ok := s.series[key]
	if !ok {
		return model.Series{}, false
	}
	return model.Series{Symbol: key, Bars: copyBars(bars)}, true
}

// Pending returns the number of series waiting for the finished marker.
func (s *History) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

func copyBars(bars []model.Bar) []model.Bar {
	if bars == nil {
		return nil
	}
	out := make([]model.Bar, len(bars))
	copy(out, bars)
	return out
}
