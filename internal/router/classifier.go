package router

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rickgao/ibmirror/internal/event"
	"github.com/rickgao/ibmirror/internal/instrument"
	"github.com/rickgao/ibmirror/internal/market"
	"github.com/rickgao/ibmirror/internal/metrics"
	"github.com/rickgao/ibmirror/internal/model"
	"github.com/rickgao/ibmirror/internal/notify"
	"github.com/rickgao/ibmirror/internal/store"
)

// Dependencies are the collaborators of a Classifier. Sink, Clock and
// Metrics are optional.
type Dependencies struct {
	Registry *market.Registry
	Keys     *instrument.Builder
	Stores   *store.Set
	Hub      Publisher
	Sink     HistorySink
	Clock    TimeRequester
	Metrics  *metrics.Collectors
}

// Classifier routes gateway events to the stores.
type Classifier struct {
	cfg    Config
	deps   Dependencies
	logger *slog.Logger

	input <-chan event.Event

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	timersMu sync.Mutex
	timers   map[*time.Timer]struct{}
	stopped  bool

	mu    sync.RWMutex
	stats Stats
}

// NewClassifier creates a classifier reading from input.
func NewClassifier(cfg Config, deps Dependencies, input <-chan event.Event, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.RestampDelay <= 0 {
		cfg.RestampDelay = DefaultConfig().RestampDelay
	}
	if deps.Keys == nil {
		deps.Keys = instrument.NewBuilder(deps.Registry, logger)
	}

	return &Classifier{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		input:  input,
		timers: make(map[*time.Timer]struct{}),
	}
}

// Start begins classifying events.
func (c *Classifier) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go c.classifyLoop()

	c.logger.Info("event classifier started", "restamp_delay", c.cfg.RestampDelay)
	return nil
}

// Stop halts the loop and cancels pending order restamps.
func (c *Classifier) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("event classifier stopped")
	case <-ctx.Done():
		c.logger.Warn("event classifier stop timed out")
	}

	c.timersMu.Lock()
	c.stopped = true
	for t := range c.timers {
		t.Stop()
	}
	clear(c.timers)
	c.timersMu.Unlock()

	return nil
}

// Stats returns current statistics.
func (c *Classifier) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

func (c *Classifier) classifyLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		case ev, ok := <-c.input:
			if !ok {
				c.logger.Info("event channel closed")
				return
			}
			c.Handle(ev)
		}
	}
}

// Handle classifies one event. It must only be called from one goroutine
// at a time; Start does so from the classify loop.
func (c *Classifier) Handle(ev event.Event) {
	c.count(func(s *Stats) { s.Received++ })
	c.deps.Metrics.Event(ev.Kind().String())

	switch e := ev.(type) {
	case event.CurrentTime:
		c.deps.Stores.Session.ObserveTime(e.Time)
	case event.TickString:
		c.onTickString(e)
	case event.TickPrice:
		row, _ := c.deps.Stores.MarketData.ApplyPrice(e.TickerID, e.Field, e.Price, e.CanAutoExecute == 1)
		c.publishTick(e.TickerID, row, e)
	case event.TickSize:
		row, _ := c.deps.Stores.MarketData.ApplySize(e.TickerID, e.Field, e.Size)
		c.publishTick(e.TickerID, row, e)
	case event.TickOptionComputation:
		row, _ := c.deps.Stores.MarketData.ApplyOption(e.TickerID, e.Field, e.OptPrice)
		c.publishTick(e.TickerID, row, e)
	case event.OpenOrder:
		c.onOpenOrder(e)
	case event.OrderStatus:
		c.onOrderStatus(e)
	case event.HistoricalData:
		c.onHistoricalData(e)
	case event.AccountUpdate:
		c.onAccountUpdate(e)
	case event.PortfolioUpdate:
		c.onPortfolioUpdate(e)
	case event.Position:
		c.onPosition(e)
	case event.ManagedAccounts:
		c.deps.Stores.Session.SetAccounts(e.AccountsList)
	case event.NextValidID:
		c.deps.Stores.Session.SetNextOrderID(e.OrderID)
	case event.CommissionReport:
		c.deps.Stores.Session.SetCommission(e.Commission)
	case event.Error:
		c.onError(e)
	case event.Unknown:
		c.count(func(s *Stats) { s.Unknown++ })
		c.logger.Info("unhandled gateway event", "type", e.Type)
	default:
		c.count(func(s *Stats) { s.Unknown++ })
		c.logger.Info("unhandled gateway event", "kind", ev.Kind().String())
	}
}

func (c *Classifier) publishTick(id int, row model.Tick, ev event.Event) {
	c.deps.Hub.Publish(notify.MarketData{
		ID:     id,
		Symbol: c.deps.Registry.SymbolOf(id),
		Tick:   row,
		Event:  ev,
	})
}

func (c *Classifier) onTickString(e event.TickString) {
	md := c.deps.Stores.MarketData

	switch e.TickType {
	case event.FieldLastTimestamp:
		sec, err := strconv.ParseInt(e.Value, 10, 64)
		if err != nil {
			c.parseError("last timestamp", err, "ticker_id", e.TickerID, "value", e.Value)
			return
		}
		c.publishTick(e.TickerID, md.ApplyTimestamp(e.TickerID, time.Unix(sec, 0)), e)

	case event.FieldRTVolume:
		row := md.Touch(e.TickerID)
		rt, err := parseRTVolume(e.Value, row)
		if err != nil {
			c.count(func(s *Stats) { s.ParseErrors++ })
			c.deps.Metrics.Discarded("rt_volume_parse")
			c.logger.Debug("discarding rt volume payload", "ticker_id", e.TickerID, "value", e.Value, "error", err)
			return
		}
		rt.Symbol = c.deps.Registry.SymbolOf(e.TickerID)
		c.deps.Hub.Publish(notify.RTVolume{ID: e.TickerID, Tick: rt, Event: e})

	default:
		c.publishTick(e.TickerID, md.Touch(e.TickerID), e)
	}
}

// parseRTVolume parses "price;size;time;volume;vwap;single". Any malformed
// field rejects the whole payload.
func parseRTVolume(value string, quote model.Tick) (model.RTVolume, error) {
	parts := strings.Split(value, ";")
	if len(parts) != 6 {
		return model.RTVolume{}, fmt.Errorf("rt volume: %d fields, want 6", len(parts))
	}

	var (
		rt  model.RTVolume
		err error
	)
	if rt.Last, err = strconv.ParseFloat(parts[0], 64); err != nil {
		return model.RTVolume{}, err
	}
	if rt.LastSize, err = strconv.ParseFloat(parts[1], 64); err != nil {
		return model.RTVolume{}, err
	}
	ms, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return model.RTVolume{}, err
	}
	if rt.Volume, err = strconv.ParseFloat(parts[3], 64); err != nil {
		return model.RTVolume{}, err
	}
	if rt.VWAP, err = strconv.ParseFloat(parts[4], 64); err != nil {
		return model.RTVolume{}, err
	}

	rt.Time = time.UnixMilli(ms).UTC()
	rt.Single = parts[5] == "true"
	rt.Bid = roundCents(quote.Bid)
	rt.BidSize = quote.BidSize
	rt.Ask = roundCents(quote.Ask)
	rt.AskSize = quote.AskSize
	return rt, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func (c *Classifier) onOpenOrder(e event.OpenOrder) {
	c.requestTime()

	inst := e.Contract
	inst.Key = c.deps.Keys.Key(inst)

	accepted := c.deps.Stores.Orders.Open(model.OrderRecord{
		ID:         e.OrderID,
		Symbol:     inst.Key,
		Instrument: inst,
		Status:     model.StatusOpened,
		UpdatedAt:  c.deps.Stores.Session.Time(),
	})
	if !accepted {
		c.duplicate(e)
		return
	}

	rec, _ := c.deps.Stores.Orders.Get(e.OrderID)
	c.deps.Hub.Publish(notify.Order{Record: rec, Event: e})
	c.scheduleRestamp(e.OrderID)
}

func (c *Classifier) onOrderStatus(e event.OrderStatus) {
	c.requestTime()

	rec, changed, found := c.deps.Stores.Orders.UpdateStatus(e.OrderID, store.StatusUpdate{
		Status:       e.Status,
		Reason:       e.WhyHeld,
		AvgFillPrice: e.AvgFillPrice,
		ParentID:     e.ParentID,
		Time:         c.deps.Stores.Session.Time(),
	})
	if !found {
		c.discard("unknown_order")
		c.logger.Warn("status for unknown order", "order_id", e.OrderID, "status", e.Status)
		return
	}
	if !changed {
		c.duplicate(e)
		return
	}

	c.deps.Hub.Publish(notify.Order{Record: rec, Event: e})
	c.scheduleRestamp(e.OrderID)
}

func (c *Classifier) onHistoricalData(e event.HistoricalData) {
	if isFinished(e.Date) {
		series := c.deps.Stores.History.Finish()
		flushed := make([]string, len(series))
		for i, s := range series {
			flushed[i] = s.Symbol
		}
		if c.deps.Sink != nil && len(series) > 0 {
			c.deps.Sink.Submit(series)
		}
		c.logger.Info("historical data finished", "series", flushed)
		c.deps.Hub.Publish(notify.History{Completed: true, Flushed: flushed, Event: e})
		return
	}

	symbol, ok := c.deps.Registry.Lookup(e.ReqID)
	if !ok {
		c.discard("unknown_request")
		c.logger.Warn("historical bar for unknown request", "req_id", e.ReqID)
		return
	}

	ts, formatted, err := c.barTime(e.Date)
	if err != nil {
		c.parseError("bar date", err, "req_id", e.ReqID, "date", e.Date)
		return
	}

	bar := model.Bar{
		Datetime:     formatted,
		Time:         ts,
		Open:         e.Open,
		High:         e.High,
		Low:          e.Low,
		Close:        e.Close,
		Volume:       e.Volume,
		OpenInterest: e.Count,
	}
	c.deps.Stores.History.Append(symbol, bar)
	c.deps.Hub.Publish(notify.History{Symbol: symbol, Bar: bar, Event: e})
}

func isFinished(date string) bool {
	if len(date) < finishedMarkerWidth {
		return false
	}
	return strings.EqualFold(date[:finishedMarkerWidth], event.FinishedMarker)
}

// barTime parses a daily (YYYYMMDD) or intraday (epoch seconds) bar date.
func (c *Classifier) barTime(date string) (time.Time, string, error) {
	if len(date) <= dailyDateMaxLength {
		ts, err := time.ParseInLocation(DailyInputLayout, date, c.cfg.Location)
		if err != nil {
			return time.Time{}, "", err
		}
		return ts, ts.Format(DailyLayout), nil
	}

	sec, err := strconv.ParseInt(date, 10, 64)
	if err != nil {
		return time.Time{}, "", err
	}
	ts := time.Unix(sec, 0).In(c.cfg.Location)
	return ts, ts.Format(IntradayLayout), nil
}

func (c *Classifier) onAccountUpdate(e event.AccountUpdate) {
	v, ok, err := c.deps.Stores.Account.Apply(e.Key, e.Value)
	if err != nil {
		c.parseError("account value", err, "key", e.Key)
		return
	}
	if !ok {
		return
	}
	c.deps.Hub.Publish(notify.Account{Key: e.Key, Value: v, Event: e})
}

func (c *Classifier) onPortfolioUpdate(e event.PortfolioUpdate) {
	entry := model.PortfolioEntry{
		Symbol:        c.deps.Keys.Key(e.Contract),
		Position:      e.Position,
		MarketPrice:   e.MarketPrice,
		MarketValue:   e.MarketValue,
		AverageCost:   e.AverageCost,
		UnrealizedPNL: e.UnrealizedPNL,
		RealizedPNL:   e.RealizedPNL,
		Account:       e.AccountName,
	}
	c.deps.Stores.Portfolio.Apply(entry)
	c.deps.Hub.Publish(notify.Portfolio{Entry: entry, Event: e})
}

func (c *Classifier) onPosition(e event.Position) {
	p := model.Position{
		Symbol:   c.deps.Keys.Key(e.Contract),
		Position: e.Pos,
		AvgCost:  e.AvgCost,
		Account:  e.Account,
	}
	if !c.deps.Stores.Positions.Apply(p) {
		c.discard("untracked_flat_position")
		return
	}
	c.logger.Info("position", "symbol", p.Symbol, "position", p.Position, "avg_cost", p.AvgCost)
	c.deps.Hub.Publish(notify.Position{Position: p, Event: e})
}

func (c *Classifier) onError(e event.Error) {
	if e.Code == -1 {
		return
	}
	c.deps.Metrics.GatewayError(strconv.Itoa(e.Code))
	c.logger.Error("gateway error", "id", e.ID, "code", e.Code, "message", e.Message)
	c.deps.Hub.Publish(notify.GatewayError{ID: e.ID, Code: e.Code, Message: e.Message, Event: e})
}

func (c *Classifier) requestTime() {
	if c.deps.Clock == nil {
		return
	}
	if err := c.deps.Clock.RequestCurrentTime(); err != nil {
		c.logger.Warn("failed to request gateway time", "error", err)
	}
}

// scheduleRestamp stamps the order with gateway time once the requested
// current-time event has had a chance to arrive.
func (c *Classifier) scheduleRestamp(orderID int) {
	c.timersMu.Lock()
	defer c.timersMu.Unlock()

	if c.stopped {
		return
	}

	var t *time.Timer
	t = time.AfterFunc(c.cfg.RestampDelay, func() {
		c.timersMu.Lock()
		delete(c.timers, t)
		c.timersMu.Unlock()

		if now := c.deps.Stores.Session.Time(); !now.IsZero() {
			c.deps.Stores.Orders.Restamp(orderID, now)
		}
	})
	c.timers[t] = struct{}{}
}

// pendingRestamps returns the number of scheduled restamps.
func (c *Classifier) pendingRestamps() int {
	c.timersMu.Lock()
	defer c.timersMu.Unlock()
	return len(c.timers)
}

func (c *Classifier) duplicate(ev event.Event) {
	c.count(func(s *Stats) { s.Duplicates++ })
	c.deps.Metrics.Duplicate(ev.Kind().String())
}

func (c *Classifier) discard(reason string) {
	c.count(func(s *Stats) { s.Discarded++ })
	c.deps.Metrics.Discarded(reason)
}

func (c *Classifier) parseError(what string, err error, attrs ...any) {
	c.count(func(s *Stats) { s.ParseErrors++ })
	c.deps.Metrics.Discarded("parse_error")
	c.logger.Warn("failed to parse "+what, append(attrs, "error", err)...)
}

func (c *Classifier) count(f func(*Stats)) {
	c.mu.Lock()
	f(&c.stats)
	c.mu.Unlock()
}
