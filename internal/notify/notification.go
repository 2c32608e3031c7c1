// Package notify delivers typed state-change notifications to the
// application.
//
// The hub never blocks the publisher: notifications are queued in an
// unbounded buffer and handed to a single application handler by a
// dispatcher goroutine.
package notify

import (
	"github.com/rickgao/ibmirror/internal/event"
	"github.com/rickgao/ibmirror/internal/model"
)

// Kind identifies a notification variant.
type Kind int

const (
	KindMarketData Kind = iota + 1
	KindRTVolume
	KindOrder
	KindHistory
	KindAccount
	KindPosition
	KindPortfolio
	KindGatewayError
)

func (k Kind) String() string {
	switch k {
	case KindMarketData:
		return "market_data"
	case KindRTVolume:
		return "rt_volume"
	case KindOrder:
		return "order"
	case KindHistory:
		return "history"
	case KindAccount:
		return "account"
	case KindPosition:
		return "position"
	case KindPortfolio:
		return "portfolio"
	case KindGatewayError:
		return "gateway_error"
	default:
		return "unknown"
	}
}

// Notification is implemented by every notification variant. Source returns
// the gateway event that caused it.
type Notification interface {
	Kind() Kind
	Source() event.Event
}

// MarketData reports the tick row after a tick event.
type MarketData struct {
	ID     int
	Symbol string
	Tick   model.Tick
	Event  event.Event
}

// RTVolume reports a parsed real-time volume tick.
type RTVolume struct {
	ID    int
	Tick  model.RTVolume
	Event event.Event
}

// Order reports an accepted order open or status change.
type Order struct {
	Record model.OrderRecord
	Event  event.Event
}

// History reports one appended bar, or completion of a request when
// Completed is set. Flushed lists the series handed to the sink.
type History struct {
	Symbol    string
	Bar       model.Bar
	Completed bool
	Flushed   []string
	Event     event.Event
}

// Account reports one allow-listed account value.
type Account struct {
	Key   string
	Value float64
	Event event.Event
}

// Position reports an accepted position update.
type Position struct {
	Position model.Position
	Event    event.Event
}

// Portfolio reports a portfolio line update.
type Portfolio struct {
	Entry model.PortfolioEntry
	Event event.Event
}

// GatewayError forwards an error event from the gateway.
type GatewayError struct {
	ID      int
	Code    int
	Message string
	Event   event.Event
}

func (MarketData) Kind() Kind   { return KindMarketData }
func (RTVolume) Kind() Kind     { return KindRTVolume }
func (Order) Kind() Kind        { return KindOrder }
func (History) Kind() Kind      { return KindHistory }
func (Account) Kind() Kind      { return KindAccount }
func (Position) Kind() Kind     { return KindPosition }
func (Portfolio) Kind() Kind    { return KindPortfolio }
func (GatewayError) Kind() Kind { return KindGatewayError }

func (n MarketData) Source() event.Event   { return n.Event }
func (n RTVolume) Source() event.Event     { return n.Event }
func (n Order) Source() event.Event        { return n.Event }
func (n History) Source() event.Event      { return n.Event }
func (n Account) Source() event.Event      { return n.Event }
func (n Position) Source() event.Event     { return n.Event }
func (n Portfolio) Source() event.Event    { return n.Event }
func (n GatewayError) Source() event.Event { return n.Event }
