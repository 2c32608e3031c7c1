package store

import (
	"sync"
	"time"

	"github.com/rickgao/ibmirror/internal/event"
	"github.com/rickgao/ibmirror/internal/model"
)

// MarketData holds the current tick snapshot per subscription id.
type MarketData struct {
	mu   sync.RWMutex
	rows map[int]*model.Tick
}

// NewMarketData creates an empty market data store.
func NewMarketData() *MarketData {
	return &MarketData{rows: make(map[int]*model.Tick)}
}

// rowLocked returns the row for id, creating a zeroed one on first touch.
// Caller holds mu for writing.
func (s *MarketData) rowLocked(id int) *model.Tick {
	row, ok := s.rows[id]
	if !ok {
		row = &model.Tick{}
		s.rows[id] = row
	}
	return row
}

// ApplyPrice applies a price tick. Bid and ask only apply when the quote is
// auto-executable; last always applies. Reports whether a field changed.
func (s *MarketData) ApplyPrice(id, field int, price float64, canAutoExecute bool) (model.Tick, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.rowLocked(id)
	applied := true
	switch {
	case field == event.FieldBidPrice && canAutoExecute:
		row.Bid = price
	case field == event.FieldAskPrice && canAutoExecute:
		row.Ask = price
	case field == event.FieldLast:
		row.Last = price
	default:
		applied = false
	}
	return *row, applied
}

// ApplySize applies a bid, ask or last size tick.
func (s *MarketData) ApplySize(id, field, size int) (model.Tick, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.rowLocked(id)
	applied := true
	switch field {
	case event.FieldBidSize:
		row.BidSize = size
	case event.FieldAskSize:
		row.AskSize = size
	case event.FieldLastSize:
		row.LastSize = size
	default:
		applied = false
	}
	return *row, applied
}

// ApplyOption maps option computation ticks onto bid, ask and last using
// the model option price.
func (s *MarketData) ApplyOption(id, field int, optPrice float64) (model.Tick, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.rowLocked(id)
	applied := true
	switch field {
	case event.FieldBidOptionComputation:
		row.Bid = optPrice
	case event.FieldAskOptionComputation:
		row.Ask = optPrice
	case event.FieldLastOptionComputation:
		row.Last = optPrice
	default:
		applied = false
	}
	return *row, applied
}

// ApplyTimestamp sets the last-trade time of the row.
func (s *MarketData) ApplyTimestamp(id int, t time.Time) model.Tick {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.rowLocked(id)
	row.Time = t
	return *row
}

// Touch creates the row for id if needed and returns its snapshot.
func (s *MarketData) Touch(id int) model.Tick {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.rowLocked(id)
}

// Row returns the snapshot for id.
func (s *MarketData) Row(id int) (model.Tick, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[id]
	if !ok {
		return model.Tick{}, false
	}
	return *row, true
}

// Rows returns a copy of every row keyed by subscription id.
func (s *MarketData) Rows() map[int]model.Tick {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int]model.Tick, len(s.rows))
	for id, row := range s.rows {
		out[id] = *row
	}
	return out
}
