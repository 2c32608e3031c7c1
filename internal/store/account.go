package store

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/rickgao/ibmirror/internal/model"
)

// Account holds allow-listed account values as floats.
type Account struct {
	mu      sync.RWMutex
	allowed map[string]struct{}
	values  map[string]float64
}

// NewAccount creates an account store tracking keys, or
// model.TrackedAccountKeys when none are given.
func NewAccount(keys ...string) *Account {
	if len(keys) == 0 {
		keys = model.TrackedAccountKeys
	}
	allowed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		allowed[k] = struct{}{}
	}
	return &Account{
		allowed: allowed,
		values:  make(map[string]float64, len(keys)),
	}
}

// Tracks reports whether key is on the allow-list.
func (s *Account) Tracks(key string) bool {
	_, ok := s.allowed[key]
	return ok
}

// Apply parses and stores value under key. Keys off the allow-list are
// ignored (false, nil); unparseable values return an error.
func (s *Account) Apply(key, value string) (float64, bool, error) {
	if !s.Tracks(key) {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse account value %s=%q: %w", key, value, err)
	}

	s.mu.Lock()
	s.values[key] = f
	s.mu.Unlock()
	return f, true, nil
}

func (s *Account) Value(key string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok
}

// Values returns a copy of every stored value.
func (s *Account) Values() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]float64, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
