package model

import "time"

// -----------------------------------------------------------------------------
// Instruments
// -----------------------------------------------------------------------------

// Security types understood by the key derivation rules. Any other gateway
// security type passes through the default rule.
const (
	SecTypeStock        = "STK"
	SecTypeOption       = "OPT"
	SecTypeFuture       = "FUT"
	SecTypeFutureOption = "FOP"
	SecTypeCash         = "CASH"
)

// Option rights.
const (
	RightCall = "CALL"
	RightPut  = "PUT"
)

// Instrument describes a tradeable contract. Built once by the instrument
// builder and never mutated afterwards.
type Instrument struct {
	Symbol   string  // Underlying symbol (e.g., "AAPL", "ES", "EUR")
	SecType  string  // STK, OPT, FUT, FOP, CASH, ...
	Exchange string  // Routing venue (e.g., "SMART", "GLOBEX")
	Currency string  // ISO currency (e.g., "USD")
	Expiry   string  // YYYYMM or YYYYMMDD, empty for stocks and cash
	Strike   float64 // 0 for non-options
	Right    string  // CALL/PUT, empty for non-options
	Key      string  // Canonical instrument key
}

// -----------------------------------------------------------------------------
// Orders
// -----------------------------------------------------------------------------

// Order actions.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
)

// Order types.
const (
	OrderTypeMarket    = "MKT"
	OrderTypeLimit     = "LMT"
	OrderTypeStop      = "STP"
	OrderTypeStopLimit = "STP LMT"
	OrderTypeTrail     = "TRAIL"
	OrderTypeTrailLmt  = "TRAIL LIMIT"
)

// StatusOpened is the status assigned to an order record on its first
// open-order event. Later statuses are the gateway's, uppercased.
const StatusOpened = "OPENED"

// Order is an order command ready to be submitted to the gateway.
// Pointer fields are only sent when explicitly set.
type Order struct {
	ClientID      int
	Action        string  // BUY or SELL
	TotalQuantity int     // Always positive
	OrderType     string  // MKT, LMT, STP, TRAIL, ...
	LimitPrice    float64 // LMT price
	AuxPrice      float64 // STOP price
	TIF           string  // DAY, GTC, IOC, GTD
	AllOrNone     bool
	Hidden        bool
	Transmit      bool

	PercentOffset   *float64 // Relative orders
	ParentID        *int     // Bracket and auto trailing stop children
	OCAGroup        *string  // One-cancels-all group
	TrailingPercent *float64 // TRAIL orders
	TrailStopPrice  *float64 // TRAIL LIMIT orders
}

// OrderRecord is the mirrored state of an order known to the gateway.
type OrderRecord struct {
	ID           int        // Broker order id, immutable
	Symbol       string     // Canonical instrument key
	Instrument   Instrument // Contract the order was opened on
	Status       string     // OPENED, SUBMITTED, FILLED, CANCELLED, ...
	Reason       *string    // Why the order is held, nil when not reported
	AvgFillPrice float64
	ParentID     int       // 0 for root orders
	UpdatedAt    time.Time // Gateway time of the last accepted update
}

// Bracket identifies the legs of a submitted bracket order. Zero ids mark
// omitted legs.
type Bracket struct {
	Label         string
	EntryOrderID  int
	TargetOrderID int
	StopOrderID   int
}

// -----------------------------------------------------------------------------
// Market data
// -----------------------------------------------------------------------------

// Tick is the current market data snapshot for one subscription id.
type Tick struct {
	Time     time.Time // Last-trade timestamp reported by the gateway
	Bid      float64
	BidSize  int
	Ask      float64
	AskSize  int
	Last     float64
	LastSize int
}

// RTVolume is a parsed real-time volume tick.
type RTVolume struct {
	Symbol   string
	Time     time.Time
	Last     float64
	LastSize float64
	Volume   float64
	VWAP     float64
	Single   bool // Trade filled by a single market maker

	// Most recent quote at the time of the trade.
	Bid     float64
	BidSize int
	Ask     float64
	AskSize int
}

// -----------------------------------------------------------------------------
// Historical data
// -----------------------------------------------------------------------------

// Bar is one historical bar.
type Bar struct {
	Datetime     string    // Formatted daily or intraday timestamp
	Time         time.Time // Parsed timestamp
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       int64
	OpenInterest int // Bar count as reported by the gateway
}

// Series is a finished historical series handed to a durable sink.
type Series struct {
	Symbol string
	Bars   []Bar
}

// -----------------------------------------------------------------------------
// Account state
// -----------------------------------------------------------------------------

// Position is a held position as reported by the position stream.
type Position struct {
	Symbol   string
	Position int
	AvgCost  float64
	Account  string
}

// PortfolioEntry is a portfolio line as reported by account updates.
type PortfolioEntry struct {
	Symbol        string
	Position      int
	MarketPrice   float64
	MarketValue   float64
	AverageCost   float64
	UnrealizedPNL float64
	RealizedPNL   float64
	Account       string
}

// TrackedAccountKeys lists the account values mirrored locally.
var TrackedAccountKeys = []string{
	"BuyingPower",
	"CashBalance",
	"DayTradesRemaining",
	"NetLiquidation",
	"InitMarginReq",
	"MaintMarginReq",
	"AvailableFunds",
	"AvailableFunds-C",
	"AvailableFunds-S",
}
