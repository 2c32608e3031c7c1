package connection

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rickgao/ibmirror/internal/model"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// Command names understood by the bridge.
const (
	CmdPlaceOrder           = "placeOrder"
	CmdCancelOrder          = "cancelOrder"
	CmdRequestIDs           = "reqIds"
	CmdRequestCurrentTime   = "reqCurrentTime"
	CmdRequestMarketData    = "reqMktData"
	CmdCancelMarketData     = "cancelMktData"
	CmdRequestHistorical    = "reqHistoricalData"
	CmdCancelHistorical     = "cancelHistoricalData"
	CmdRequestPositions     = "reqPositions"
	CmdCancelPositions      = "cancelPositions"
	CmdRequestAccountUpdate = "reqAccountUpdates"
)

// Command is a command sent to the bridge.
type Command struct {
	ID     int64  `json:"id"`
	Cmd    string `json:"cmd"`
	Params any    `json:"params,omitempty"`
}

// Envelope is an event relayed by the bridge.
type Envelope struct {
	Type string          `json:"type"`
	Msg  json.RawMessage `json:"msg"`
}

// HistoryRequest describes a historical data request.
type HistoryRequest struct {
	EndTime    time.Time // Zero means now
	Lookback   string    // e.g. "1 D", "2 W"
	Resolution string    // Bar size, e.g. "1 min", "1 day"
	WhatToShow string    // TRADES, MIDPOINT, BID, ASK, ...
	UseRTH     bool      // Regular trading hours only
	FormatDate int       // 1 = formatted string, 2 = epoch seconds
}

// HistoryEndTimeLayout is the end-time layout the gateway expects.
const HistoryEndTimeLayout = "20060102 15:04:05"

type orderParams struct {
	OrderID  int              `json:"orderId"`
	Contract model.Instrument `json:"contract"`
	Order    model.Order      `json:"order"`
}

type idParams struct {
	ID int `json:"id"`
}

type countParams struct {
	Count int `json:"numIds"`
}

type marketDataParams struct {
	TickerID     int              `json:"tickerId"`
	Contract     model.Instrument `json:"contract"`
	GenericTicks string           `json:"genericTicks,omitempty"`
	Snapshot     bool             `json:"snapshot"`
}

type historicalParams struct {
	TickerID    int              `json:"tickerId"`
	Contract    model.Instrument `json:"contract"`
	EndDateTime string           `json:"endDateTime"`
	Duration    string           `json:"durationStr"`
	BarSize     string           `json:"barSizeSetting"`
	WhatToShow  string           `json:"whatToShow"`
	UseRTH      int              `json:"useRTH"`
	FormatDate  int              `json:"formatDate"`
}

type accountParams struct {
	Subscribe bool   `json:"subscribe"`
	Account   string `json:"acctCode"`
}

// HeaderSigner produces handshake headers for a websocket path.
type HeaderSigner interface {
	SignHandshake(path string) (http.Header, error)
}

// ClientConfig configures the bridge client.
type ClientConfig struct {
	URL             string        // Bridge websocket URL, e.g. ws://localhost:8765/v1/stream
	Signer          HeaderSigner  // nil = unauthenticated handshake
	PingTimeout     time.Duration // Max time without ping/pong before the connection is stale
	WriteTimeout    time.Duration // Write deadline for commands
	HeartbeatPeriod time.Duration // Interval between keepalive pings
	EventBufferSize int           // Events channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingTimeout:     60 * time.Second,
		WriteTimeout:    5 * time.Second,
		HeartbeatPeriod: 30 * time.Second,
		EventBufferSize: 10000,
	}
}
