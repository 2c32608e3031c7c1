package store

import (
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Session holds the scalar session state: gateway clock, managed accounts,
// next order id and last commission.
type Session struct {
	clock      atomic.Int64 // unix seconds
	nextID     atomic.Int64
	commission atomic.Uint64 // float64 bits

	mu       sync.RWMutex
	accounts []string
}

func NewSession() *Session {
	return &Session{}
}

// ObserveTime advances the clock to t (unix seconds) if t is later and
// returns the resulting clock.
func (s *Session) ObserveTime(t int64) int64 {
	for {
		cur := s.clock.Load()
		if t <= cur {
			return cur
		}
		if s.clock.CompareAndSwap(cur, t) {
			return t
		}
	}
}

// Time returns the gateway clock. Zero until the first time event.
func (s *Session) Time() time.Time {
	sec := s.clock.Load()
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

// SetAccounts replaces the managed account list (comma separated).
func (s *Session) SetAccounts(list string) {
	var accounts []string
	for _, a := range strings.Split(list, ",") {
		if a = strings.TrimSpace(a); a != "" {
			accounts = append(accounts, a)
		}
	}

	s.mu.Lock()
	s.accounts = accounts
	s.mu.Unlock()
}

// AccountCode returns the first managed account, or "" if none is known.
func (s *Session) AccountCode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.accounts) == 0 {
		return ""
	}
	return s.accounts[0]
}

// Accounts returns the managed accounts.
func (s *Session) Accounts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.accounts...)
}

// SetNextOrderID replaces the next order id.
func (s *Session) SetNextOrderID(id int) {
	s.nextID.Store(int64(id))
}

// NextOrderID returns the next order id without consuming it.
func (s *Session) NextOrderID() int {
	return int(s.nextID.Load())
}

// TakeOrderID returns the next order id and advances the counter.
func (s *Session) TakeOrderID() int {
	return int(s.nextID.Add(1) - 1)
}

// ReserveOrderIDs consumes n consecutive ids and returns the first.
func (s *Session) ReserveOrderIDs(n int) int {
	return int(s.nextID.Add(int64(n)) - int64(n))
}

// ObserveOrderID raises the counter past an explicitly used id.
func (s *Session) ObserveOrderID(id int) {
	want := int64(id) + 1
	for {
		cur := s.nextID.Load()
		if cur >= want || s.nextID.CompareAndSwap(cur, want) {
			return
		}
	}
}

// SetCommission stores the last reported commission.
func (s *Session) SetCommission(c float64) {
	s.commission.Store(math.Float64bits(c))
}

// Commission returns the last reported commission.
func (s *Session) Commission() float64 {
	return math.Float64frombits(s.commission.Load())
}
