package connection

import (
	"github.com/rickgao/ibmirror/internal/event"
	"github.com/rickgao/ibmirror/internal/model"
)

// Gateway is the command and event surface of a trading gateway session.
// Commands are fire-and-forget; their effects arrive as events.
type Gateway interface {
	PlaceOrder(orderID int, inst model.Instrument, order model.Order) error
	CancelOrder(orderID int) error
	RequestIDs(count int) error
	RequestCurrentTime() error

	RequestMarketData(tickerID int, inst model.Instrument, genericTicks string) error
	CancelMarketData(tickerID int) error
	RequestHistoricalData(tickerID int, inst model.Instrument, req HistoryRequest) error
	CancelHistoricalData(tickerID int) error

	RequestPositions() error
	CancelPositions() error
	RequestAccountUpdates(subscribe bool, account string) error

	// Events delivers gateway events in arrival order.
	Events() <-chan event.Event
}
