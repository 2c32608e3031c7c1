package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rickgao/ibmirror/internal/model"
)

// StatusUpdate is an order-status change as reported by the gateway.
type StatusUpdate struct {
	Status       string
	Reason       *string
	AvgFillPrice float64
	ParentID     int
	Time         time.Time
}

// Orders mirrors every order the gateway has announced. Records are never
// removed; cancellation is a status.
type Orders struct {
	mu      sync.RWMutex
	records map[int]*model.OrderRecord
}

// NewOrders creates an empty order store.
func NewOrders() *Orders {
	return &Orders{records: make(map[int]*model.OrderRecord)}
}

// Open records a newly announced order. Returns false and leaves the store
// untouched if the id is already known.
func (s *Orders) Open(rec model.OrderRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return false
	}
	if rec.Status == "" {
		rec.Status = model.StatusOpened
	}
	s.records[rec.ID] = &rec
	return true
}

// UpdateStatus applies a status change. A status equal to the stored one,
// compared case-insensitively, is a duplicate and changes nothing.
// found is false when the order id is unknown.
func (s *Orders) UpdateStatus(id int, u StatusUpdate) (rec model.OrderRecord, changed, found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return model.OrderRecord{}, false, false
	}

	status := strings.ToUpper(u.Status)
	if r.Status == status {
		return *r, false, true
	}

	r.Status = status
	r.Reason = u.Reason
	r.AvgFillPrice = u.AvgFillPrice
	r.ParentID = u.ParentID
	r.UpdatedAt = u.Time
	return *r, true, true
}

// Restamp sets the update time of an existing order.
func (s *Orders) Restamp(id int, t time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return false
	}
	r.UpdatedAt = t
	return true
}

// Get returns the record for id.
func (s *Orders) Get(id int) (model.OrderRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return model.OrderRecord{}, false
	}
	return *r, true
}

// Has reports whether id is a known order.
func (s *Orders) Has(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.records[id]
	return ok
}

// All returns every record ordered by id.
func (s *Orders) All() []model.OrderRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.OrderRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// BySymbol returns the records opened on the given canonical key.
func (s *Orders) BySymbol(symbol string) []model.OrderRecord {
	var out []model.OrderRecord
	for _, r := range s.All() {
		if r.Symbol == symbol {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of known orders.
func (s *Orders) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
