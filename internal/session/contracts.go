package session

import (
	"github.com/rickgao/ibmirror/internal/instrument"
	"github.com/rickgao/ibmirror/internal/model"
)

// Contract builds inst, binding it to a subscription id.
func (s *Session) Contract(inst model.Instrument) (model.Instrument, int) {
	return s.bound(s.contracts.Build(inst))
}

// Stock builds an equity contract.
func (s *Session) Stock(symbol string, opts ...instrument.ContractOption) (model.Instrument, int) {
	return s.bound(s.contracts.Stock(symbol, opts...))
}

// Future builds a futures contract.
func (s *Session) Future(symbol, expiry string, opts ...instrument.ContractOption) (model.Instrument, int) {
	return s.bound(s.contracts.Future(symbol, expiry, opts...))
}

// Option builds an equity option contract.
func (s *Session) Option(symbol, expiry string, strike float64, right string, opts ...instrument.ContractOption) (model.Instrument, int) {
	return s.bound(s.contracts.Option(symbol, expiry, strike, right, opts...))
}

// FutureOption builds an option on a future.
func (s *Session) FutureOption(symbol, expiry string, strike float64, right string, opts ...instrument.ContractOption) (model.Instrument, int) {
	return s.bound(s.contracts.FutureOption(symbol, expiry, strike, right, opts...))
}

// Cash builds an FX pair.
func (s *Session) Cash(symbol string, opts ...instrument.ContractOption) (model.Instrument, int) {
	return s.bound(s.contracts.Cash(symbol, opts...))
}

// Contracts returns every bound instrument, ordered by id.
func (s *Session) Contracts() []model.Instrument {
	return s.registry.Contracts()
}

// ContractKey returns the canonical key for inst without binding it.
func (s *Session) ContractKey(inst model.Instrument) string {
	return s.contracts.Key(inst)
}

// TickerID returns the subscription id for key, or 0 when the key was never
// bound.
func (s *Session) TickerID(key string) int {
	id, _ := s.registry.IDOf(key)
	return id
}

// TickerSymbol returns the key bound to id, or "" when id is unknown.
func (s *Session) TickerSymbol(id int) string {
	return s.registry.SymbolOf(id)
}

func (s *Session) bound(inst model.Instrument, id int) (model.Instrument, int) {
	s.metrics.SubscriptionIDs(s.registry.Len())
	return inst, id
}
