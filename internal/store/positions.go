package store

import (
	"sync"

	"github.com/rickgao/ibmirror/internal/model"
)

// Positions holds the latest position per canonical key.
type Positions struct {
	mu   sync.RWMutex
	byID map[string]model.Position
}

func NewPositions() *Positions {
	return &Positions{byID: make(map[string]model.Position)}
}

// Apply replaces the position for p.Symbol. A zero quantity for a key that
// is not tracked yet is discarded and Apply returns false.
func (s *Positions) Apply(p model.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, tracked := s.byID[p.Symbol]; !tracked && p.Position == 0 {
		return false
	}
	s.byID[p.Symbol] = p
	return true
}

func (s *Positions) Get(symbol string) (model.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[symbol]
	return p, ok
}

// All returns a copy of every position keyed by symbol.
func (s *Positions) All() map[string]model.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]model.Position, len(s.byID))
	for k, v := range s.byID {
		out[k] = v
	}
	return out
}

// Portfolio holds the latest portfolio line per canonical key.
type Portfolio struct {
	mu      sync.RWMutex
	entries map[string]model.PortfolioEntry
}

func NewPortfolio() *Portfolio {
	return &Portfolio{entries: make(map[string]model.PortfolioEntry)}
}

// Apply replaces the entry for e.Symbol.
func (s *Portfolio) Apply(e model.PortfolioEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.Symbol] = e
}

func (s *Portfolio) Get(symbol string) (model.PortfolioEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[symbol]
	return e, ok
}

// All returns a copy of every entry keyed by symbol.
func (s *Portfolio) All() map[string]model.PortfolioEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]model.PortfolioEntry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}
