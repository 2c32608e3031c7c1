package session

import (
	"github.com/rickgao/ibmirror/internal/model"
	"github.com/rickgao/ibmirror/internal/order"
)

// CreateOrder builds an order stamped with the session client id.
func (s *Session) CreateOrder(quantity int, opts ...order.Option) model.Order {
	return s.orders.CreateOrder(quantity, opts...)
}

// PlaceOrder binds inst and submits o under orderID, or the next tracked id
// when orderID is 0.
func (s *Session) PlaceOrder(inst model.Instrument, o model.Order, orderID int) (int, error) {
	inst, _ = s.Contract(inst)
	return s.orders.PlaceOrder(inst, o, orderID)
}

// CancelOrder cancels orderID, or the next tracked id when orderID is 0.
func (s *Session) CancelOrder(orderID int) (int, error) {
	return s.orders.CancelOrder(orderID)
}

// CreateBracketOrder submits an entry order with optional target and stop
// legs.
func (s *Session) CreateBracketOrder(inst model.Instrument, quantity int, p order.BracketParams) (model.Bracket, error) {
	inst, _ = s.Contract(inst)
	return s.orders.CreateBracketOrder(inst, quantity, p)
}

// CreateTrailingStopOrder attaches a trailing stop to an existing order.
func (s *Session) CreateTrailingStopOrder(inst model.Instrument, quantity, parentID int, trailPercent float64) (int, error) {
	inst, _ = s.Contract(inst)
	return s.orders.CreateTrailingStopOrder(inst, quantity, parentID, trailPercent)
}
