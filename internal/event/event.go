// Package event defines the typed events delivered by the gateway connection.
//
// Kind is a closed set. Every concrete event implements Event, and the
// classifier switches over Kind exhaustively.
package event

import "github.com/rickgao/ibmirror/internal/model"

// Kind identifies an event variant.
type Kind int

const (
	KindUnknown Kind = iota
	KindCurrentTime
	KindTickString
	KindTickPrice
	KindTickSize
	KindTickOptionComputation
	KindOpenOrder
	KindOrderStatus
	KindHistoricalData
	KindAccountUpdate
	KindPortfolioUpdate
	KindPosition
	KindManagedAccounts
	KindNextValidID
	KindCommissionReport
	KindError
)

var kindNames = [...]string{
	KindUnknown:               "unknown",
	KindCurrentTime:           "currentTime",
	KindTickString:            "tickString",
	KindTickPrice:             "tickPrice",
	KindTickSize:              "tickSize",
	KindTickOptionComputation: "tickOptionComputation",
	KindOpenOrder:             "openOrder",
	KindOrderStatus:           "orderStatus",
	KindHistoricalData:        "historicalData",
	KindAccountUpdate:         "updateAccountValue",
	KindPortfolioUpdate:       "updatePortfolio",
	KindPosition:              "position",
	KindManagedAccounts:       "managedAccounts",
	KindNextValidID:           "nextValidId",
	KindCommissionReport:      "commissionReport",
	KindError:                 "error",
}

// String returns the gateway type name for k.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// ParseKind maps a gateway type name to its Kind. Unrecognized names map to
// KindUnknown.
func ParseKind(name string) Kind {
	for k, n := range kindNames {
		if n == name {
			return Kind(k)
		}
	}
	return KindUnknown
}

// Event is implemented by every event variant.
type Event interface {
	Kind() Kind
}

// Tick field ids.
const (
	FieldBidSize  = 0
	FieldBidPrice = 1
	FieldAskPrice = 2
	FieldAskSize  = 3
	FieldLast     = 4
	FieldLastSize = 5

	FieldBidOptionComputation   = 10
	FieldAskOptionComputation   = 11
	FieldLastOptionComputation  = 12
	FieldModelOptionComputation = 13

	FieldLastTimestamp = 45
	FieldRTVolume      = 48
)

// GenericTicksRTVolume requests RT volume ticks with market data.
const GenericTicksRTVolume = "233"

// FinishedMarker prefixes the date field of the last historical data event.
const FinishedMarker = "finished"

// CurrentTime reports the gateway clock (unix seconds).
type CurrentTime struct {
	Time int64
}

// TickString carries string-valued ticks (timestamps, RT volume).
type TickString struct {
	TickerID int
	TickType int
	Value    string
}

// TickPrice carries a price update for one field.
type TickPrice struct {
	TickerID       int
	Field          int
	Price          float64
	CanAutoExecute int
}

// TickSize carries a size update for one field.
type TickSize struct {
	TickerID int
	Field    int
	Size     int
}

// TickOptionComputation carries option model values for one field.
type TickOptionComputation struct {
	TickerID   int
	Field      int
	ImpliedVol float64
	Delta      float64
	OptPrice   float64
	PVDividend float64
	Gamma      float64
	Vega       float64
	Theta      float64
	UndPrice   float64
}

// OpenOrder announces an order known to the gateway.
type OpenOrder struct {
	OrderID  int
	Contract model.Instrument
	Order    model.Order
}

// OrderStatus reports an order lifecycle change. Duplicates are common.
type OrderStatus struct {
	OrderID       int
	Status        string
	Filled        int
	Remaining     int
	AvgFillPrice  float64
	PermID        int
	ParentID      int
	LastFillPrice float64
	ClientID      int
	WhyHeld       *string
}

// HistoricalData carries one bar, or the finished marker in Date.
type HistoricalData struct {
	ReqID   int
	Date    string
	Open    float64
	High    float64
	Low     float64
	Close   float64
	Volume  int64
	Count   int
	WAP     float64
	HasGaps bool
}

// AccountUpdate carries one account value.
type AccountUpdate struct {
	Key         string
	Value       string
	Currency    string
	AccountName string
}

// PortfolioUpdate carries one portfolio line.
type PortfolioUpdate struct {
	Contract      model.Instrument
	Position      int
	MarketPrice   float64
	MarketValue   float64
	AverageCost   float64
	UnrealizedPNL float64
	RealizedPNL   float64
	AccountName   string
}

// Position carries one position from the position stream.
type Position struct {
	Account  string
	Contract model.Instrument
	Pos      int
	AvgCost  float64
}

// ManagedAccounts lists the accounts the session may act on.
type ManagedAccounts struct {
	AccountsList string
}

// NextValidID announces the next order id the gateway will accept.
type NextValidID struct {
	OrderID int
}

// CommissionReport reports the commission for an execution.
type CommissionReport struct {
	ExecID      string
	Commission  float64
	Currency    string
	RealizedPNL float64
}

// Error is an error or informational message from the gateway.
type Error struct {
	ID      int
	Code    int
	Message string
}

// Unknown is an event whose type tag has no variant.
type Unknown struct {
	Type string
	Raw  []byte
}

func (CurrentTime) Kind() Kind           { return KindCurrentTime }
func (TickString) Kind() Kind            { return KindTickString }
func (TickPrice) Kind() Kind             { return KindTickPrice }
func (TickSize) Kind() Kind              { return KindTickSize }
func (TickOptionComputation) Kind() Kind { return KindTickOptionComputation }
func (OpenOrder) Kind() Kind             { return KindOpenOrder }
func (OrderStatus) Kind() Kind           { return KindOrderStatus }
func (HistoricalData) Kind() Kind        { return KindHistoricalData }
func (AccountUpdate) Kind() Kind         { return KindAccountUpdate }
func (PortfolioUpdate) Kind() Kind       { return KindPortfolioUpdate }
func (Position) Kind() Kind              { return KindPosition }
func (ManagedAccounts) Kind() Kind       { return KindManagedAccounts }
func (NextValidID) Kind() Kind           { return KindNextValidID }
func (CommissionReport) Kind() Kind      { return KindCommissionReport }
func (Error) Kind() Kind                 { return KindError }
func (Unknown) Kind() Kind               { return KindUnknown }
