// Package order builds orders and order graphs (brackets, trailing stops)
// and submits them with ids consistent with the mirrored order state.
package order

import (
	"github.com/rickgao/ibmirror/internal/model"
)

// DefaultTIF is the time in force used when none is given.
const DefaultTIF = "DAY"

type draft struct {
	order     model.Order
	orderType string
}

// Option customizes an order built by CreateOrder.
type Option func(*draft)

// WithLimit sets the limit price. A non-zero limit makes the order LMT
// unless the type is overridden.
func WithLimit(price float64) Option {
	return func(s *draft) { s.order.LimitPrice = price }
}

// WithStop sets the stop (aux) price.
func WithStop(price float64) Option {
	return func(s *draft) { s.order.AuxPrice = price }
}

func WithTIF(tif string) Option {
	return func(s *draft) { s.order.TIF = tif }
}

func WithAllOrNone(v bool) Option {
	return func(s *draft) { s.order.AllOrNone = v }
}

// WithHidden marks the order as an iceberg.
func WithHidden(v bool) Option {
	return func(s *draft) { s.order.Hidden = v }
}

// WithTransmit controls whether the gateway transmits the order immediately.
func WithTransmit(v bool) Option {
	return func(s *draft) { s.order.Transmit = v }
}

// WithOrderType overrides the MKT/LMT inference.
func WithOrderType(orderType string) Option {
	return func(s *draft) { s.orderType = orderType }
}

func WithPercentOffset(v float64) Option {
	return func(s *draft) { s.order.PercentOffset = &v }
}

func WithParentID(id int) Option {
	return func(s *draft) { s.order.ParentID = &id }
}

func WithOCAGroup(group string) Option {
	return func(s *draft) { s.order.OCAGroup = &group }
}

func WithTrailingPercent(v float64) Option {
	return func(s *draft) { s.order.TrailingPercent = &v }
}

func WithTrailStopPrice(v float64) Option {
	return func(s *draft) { s.order.TrailStopPrice = &v }
}

// CreateOrder builds an order. Positive quantities buy, negative sell.
func CreateOrder(quantity int, opts ...Option) model.Order {
	s := draft{
		order: model.Order{
			Action:        model.ActionBuy,
			TotalQuantity: quantity,
			TIF:           DefaultTIF,
			Transmit:      true,
		},
	}
	if quantity < 0 {
		s.order.Action = model.ActionSell
		s.order.TotalQuantity = -quantity
	}

	for _, opt := range opts {
		opt(&s)
	}

	switch {
	case s.orderType != "":
		s.order.OrderType = s.orderType
	case s.order.LimitPrice != 0:
		s.order.OrderType = model.OrderTypeLimit
	default:
		s.order.OrderType = model.OrderTypeMarket
	}
	return s.order
}
