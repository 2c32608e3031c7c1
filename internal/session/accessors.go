package session

import "github.com/rickgao/ibmirror/internal/model"

// MarketData returns the current market data row for a canonical key.
func (s *Session) MarketData(key string) (model.Tick, bool) {
	id, ok := s.registry.IDOf(key)
	if !ok {
		return model.Tick{}, false
	}
	return s.stores.MarketData.Row(id)
}

// Order returns the mirrored record for an order id.
func (s *Session) Order(id int) (model.OrderRecord, bool) {
	return s.stores.Orders.Get(id)
}

// Position returns the held position for a canonical key.
func (s *Session) Position(key string) (model.Position, bool) {
	return s.stores.Positions.Get(key)
}

// PortfolioEntry returns the portfolio line for a canonical key.
func (s *Session) PortfolioEntry(key string) (model.PortfolioEntry, bool) {
	return s.stores.Portfolio.Get(key)
}

// AccountValue returns a mirrored account value.
func (s *Session) AccountValue(key string) (float64, bool) {
	return s.stores.Account.Value(key)
}

// Series returns the historical series for a canonical key.
func (s *Session) Series(key string) (model.Series, bool) {
	return s.stores.History.Series(key)
}
