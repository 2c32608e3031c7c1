package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/ibmirror/internal/event"
	"github.com/rickgao/ibmirror/internal/model"
)

// Client is a Gateway backed by a websocket bridge.
type Client struct {
	cfg    ClientConfig
	logger *slog.Logger

	conn *websocket.Conn

	events chan event.Event
	errors chan error
	done   chan struct{}

	writeMu sync.Mutex
	nextCmd atomic.Int64

	mu         sync.RWMutex
	connected  bool
	closed     bool
	lastPingAt time.Time

	wg sync.WaitGroup
}

var _ Gateway = (*Client)(nil)

// NewClient creates a bridge client. Call Connect before sending commands.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultClientConfig()
	if cfg.EventBufferSize <= 0 {
		cfg.EventBufferSize = defaults.EventBufferSize
	}
	if cfg.HeartbeatPeriod <= 0 {
		cfg.HeartbeatPeriod = defaults.HeartbeatPeriod
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = defaults.PingTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}

	return &Client{
		cfg:    cfg,
		logger: logger,
		events: make(chan event.Event, cfg.EventBufferSize),
		errors: make(chan error, 1),
		done:   make(chan struct{}),
	}
}

// Connect dials the bridge and starts the read and heartbeat loops.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrAlreadyClosed
	}

	header, err := c.handshakeHeader()
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return fmt.Errorf("dial gateway bridge: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.lastPingAt = time.Now()
	c.mu.Unlock()

	conn.SetPingHandler(func(data string) error {
		c.touch()
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	conn.SetPongHandler(func(string) error {
		c.touch()
		return nil
	})

	c.wg.Add(2)
	go c.readLoop()
	go c.heartbeatLoop()

	c.logger.Info("gateway bridge connected", "url", c.cfg.URL)
	return nil
}

func (c *Client) handshakeHeader() (http.Header, error) {
	header := http.Header{}
	header.Set("Accept", "application/json")
	if c.cfg.Signer == nil {
		return header, nil
	}

	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse bridge url: %w", err)
	}
	signed, err := c.cfg.Signer.SignHandshake(u.Path)
	if err != nil {
		return nil, fmt.Errorf("sign handshake: %w", err)
	}
	for k, v := range signed {
		header[k] = v
	}
	return header, nil
}

// Close closes the connection. The events channel is closed once the read
// loop exits.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	conn := c.conn
	c.mu.Unlock()

	close(c.done)

	if conn == nil {
		close(c.events)
		return nil
	}

	c.writeMu.Lock()
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	c.writeMu.Unlock()
	err := conn.Close()

	c.wg.Wait()
	return err
}

// Events returns the event channel.
func (c *Client) Events() <-chan event.Event {
	return c.events
}

// Errors reports the error that ended the connection.
func (c *Client) Errors() <-chan error {
	return c.errors
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Client) PlaceOrder(orderID int, inst model.Instrument, order model.Order) error {
	return c.send(CmdPlaceOrder, orderParams{OrderID: orderID, Contract: inst, Order: order})
}

func (c *Client) CancelOrder(orderID int) error {
	return c.send(CmdCancelOrder, idParams{ID: orderID})
}

func (c *Client) RequestIDs(count int) error {
	return c.send(CmdRequestIDs, countParams{Count: count})
}

func (c *Client) RequestCurrentTime() error {
	return c.send(CmdRequestCurrentTime, nil)
}

func (c *Client) RequestMarketData(tickerID int, inst model.Instrument, genericTicks string) error {
	return c.send(CmdRequestMarketData, marketDataParams{
		TickerID:     tickerID,
		Contract:     inst,
		GenericTicks: genericTicks,
	})
}

func (c *Client) CancelMarketData(tickerID int) error {
	return c.send(CmdCancelMarketData, idParams{ID: tickerID})
}

func (c *Client) RequestHistoricalData(tickerID int, inst model.Instrument, req HistoryRequest) error {
	end := ""
	if !req.EndTime.IsZero() {
		end = req.EndTime.Format(HistoryEndTimeLayout)
	}
	useRTH := 0
	if req.UseRTH {
		useRTH = 1
	}
	return c.send(CmdRequestHistorical, historicalParams{
		TickerID:    tickerID,
		Contract:    inst,
		EndDateTime: end,
		Duration:    req.Lookback,
		BarSize:     req.Resolution,
		WhatToShow:  req.WhatToShow,
		UseRTH:      useRTH,
		FormatDate:  req.FormatDate,
	})
}

func (c *Client) CancelHistoricalData(tickerID int) error {
	return c.send(CmdCancelHistorical, idParams{ID: tickerID})
}

func (c *Client) RequestPositions() error {
	return c.send(CmdRequestPositions, nil)
}

func (c *Client) CancelPositions() error {
	return c.send(CmdCancelPositions, nil)
}

func (c *Client) RequestAccountUpdates(subscribe bool, account string) error {
	return c.send(CmdRequestAccountUpdate, accountParams{Subscribe: subscribe, Account: account})
}

// send serializes one command onto the connection.
func (c *Client) send(cmd string, params any) error {
	c.mu.RLock()
	conn, connected := c.conn, c.connected
	c.mu.RUnlock()
	if !connected {
		return ErrNotConnected
	}

	data, err := json.Marshal(Command{ID: c.nextCmd.Add(1), Cmd: cmd, Params: params})
	if err != nil {
		return fmt.Errorf("encode %s: %w", cmd, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send %s: %w", cmd, err)
	}
	return nil
}

func (c *Client) touch() {
	c.mu.Lock()
	c.lastPingAt = time.Now()
	c.mu.Unlock()
}

// readLoop decodes envelopes into events. Delivery blocks rather than drops
// so the mirror never silently misses a state change.
func (c *Client) readLoop() {
	defer c.wg.Done()
	defer close(c.events)
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.reportError(err)
			}
			return
		}

		ev, err := Decode(data)
		if err != nil {
			c.logger.Warn("dropping undecodable gateway message", "error", err)
			continue
		}

		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}

func (c *Client) heartbeatLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.HeartbeatPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, []byte("keepalive"), time.Now().Add(c.cfg.WriteTimeout))
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Debug("failed to send ping", "error", err)
			}

			c.mu.RLock()
			lastPing := c.lastPingAt
			c.mu.RUnlock()

			if time.Since(lastPing) > c.cfg.PingTimeout {
				c.logger.Warn("gateway bridge stale",
					"last_ping", lastPing,
					"timeout", c.cfg.PingTimeout,
				)
				c.reportError(ErrStaleConnection)
				return
			}
		}
	}
}

func (c *Client) reportError(err error) {
	select {
	case c.errors <- err:
	default:
	}
}
