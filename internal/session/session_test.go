package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/ibmirror/internal/connection"
	"github.com/rickgao/ibmirror/internal/event"
	"github.com/rickgao/ibmirror/internal/model"
	"github.com/rickgao/ibmirror/internal/notify"
	"github.com/rickgao/ibmirror/internal/order"
)

type fakeGateway struct {
	events chan event.Event

	mu    sync.Mutex
	calls []string
	fail  error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{events: make(chan event.Event, 64)}
}

func (g *fakeGateway) record(format string, args ...any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, fmt.Sprintf(format, args...))
	return g.fail
}

func (g *fakeGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func (g *fakeGateway) PlaceOrder(id int, inst model.Instrument, o model.Order) error {
	return g.record("placeOrder %d %s %s %d", id, inst.Key, o.Action, o.TotalQuantity)
}
func (g *fakeGateway) CancelOrder(id int) error  { return g.record("cancelOrder %d", id) }
func (g *fakeGateway) RequestIDs(n int) error    { return g.record("reqIds %d", n) }
func (g *fakeGateway) RequestCurrentTime() error { return g.record("reqCurrentTime") }
func (g *fakeGateway) RequestMarketData(id int, inst model.Instrument, ticks string) error {
	return g.record("reqMktData %d %s %s", id, inst.Key, ticks)
}
func (g *fakeGateway) CancelMarketData(id int) error { return g.record("cancelMktData %d", id) }
func (g *fakeGateway) RequestHistoricalData(id int, inst model.Instrument, req connection.HistoryRequest) error {
	return g.record("reqHistoricalData %d %s %s %s %s %v %d", id, inst.Key, req.Resolution, req.Lookback, req.WhatToShow, req.UseRTH, req.FormatDate)
}
func (g *fakeGateway) CancelHistoricalData(id int) error { return g.record("cancelHistoricalData %d", id) }
func (g *fakeGateway) RequestPositions() error           { return g.record("reqPositions") }
func (g *fakeGateway) CancelPositions() error            { return g.record("cancelPositions") }
func (g *fakeGateway) RequestAccountUpdates(subscribe bool, account string) error {
	return g.record("reqAccountUpdates %v %s", subscribe, account)
}
func (g *fakeGateway) Events() <-chan event.Event { return g.events }

type collector struct {
	mu    sync.Mutex
	items []notify.Notification
}

func (c *collector) Handle(n notify.Notification) {
	c.mu.Lock()
	c.items = append(c.items, n)
	c.mu.Unlock()
}

func (c *collector) snapshot() []notify.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notify.Notification(nil), c.items...)
}

type seriesSink struct {
	mu     sync.Mutex
	series []model.Series
}

func (s *seriesSink) Submit(series []model.Series) {
	s.mu.Lock()
	s.series = append(s.series, series...)
	s.mu.Unlock()
}

func (s *seriesSink) snapshot() []model.Series {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Series(nil), s.series...)
}

func startSession(t *testing.T, sink *seriesSink) (*Session, *fakeGateway, *collector) {
	t.Helper()
	gw := newFakeGateway()
	cfg := DefaultConfig()
	cfg.ClientID = 5
	cfg.Router.Location = time.UTC

	var s *Session
	if sink != nil {
		s = New(cfg, gw, sink, nil, nil)
	} else {
		s = New(cfg, gw, nil, nil, nil)
	}
	c := &collector{}
	s.SetHandler(c)

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	})
	return s, gw, c
}

func TestSession_StartRequestsServerTime(t *testing.T) {
	s, gw, _ := startSession(t, nil)

	assert.Equal(t, []string{"reqCurrentTime"}, gw.Calls())
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", s.ID().String())
}

func TestSession_ContractShortcutsShareRegistry(t *testing.T) {
	s, _, _ := startSession(t, nil)

	aapl, first := s.Stock("AAPL")
	_, second := s.Stock("MSFT")
	_, again := s.Stock("AAPL")
	es, esID := s.Future("ES", "20240315")

	assert.Equal(t, []int{1, 2, 1}, []int{first, second, again})
	assert.Equal(t, "AAPL", aapl.Key)
	assert.Equal(t, "ESH2024", es.Key)
	assert.Equal(t, 3, esID)
	assert.Equal(t, esID, s.TickerID("ESH2024"))
	assert.Equal(t, "ESH2024", s.TickerSymbol(esID))
	assert.Equal(t, "", s.TickerSymbol(99))
	assert.Zero(t, s.TickerID("unknown"))
	assert.Len(t, s.Contracts(), 3)
}

func TestSession_RequestMarketDataAllContracts(t *testing.T) {
	s, gw, _ := startSession(t, nil)
	s.Stock("AAPL")
	s.Cash("EUR")

	require.NoError(t, s.RequestMarketData())
	require.NoError(t, s.CancelMarketData())

	assert.Equal(t, []string{
		"reqCurrentTime",
		"reqMktData 1 AAPL 233",
		"reqMktData 2 EURUSD 233",
		"cancelMktData 1",
		"cancelMktData 2",
	}, gw.Calls())
}

func TestSession_RequestMarketDataBindsNewContract(t *testing.T) {
	s, gw, _ := startSession(t, nil)

	inst := model.Instrument{Symbol: "SPX", SecType: "IND", Exchange: "CBOE", Currency: "USD"}
	require.NoError(t, s.RequestMarketData(inst))

	assert.Equal(t, 1, s.TickerID("SPX_IND"))
	assert.Contains(t, gw.Calls(), "reqMktData 1 SPX_IND 233")
}

func TestSession_RequestErrorsAreJoined(t *testing.T) {
	s, gw, _ := startSession(t, nil)
	s.Stock("AAPL")
	s.Stock("MSFT")
	gw.fail = connection.ErrNotConnected

	err := s.RequestMarketData()
	require.Error(t, err)
	assert.ErrorIs(t, err, connection.ErrNotConnected)
	assert.Contains(t, err.Error(), "AAPL")
	assert.Contains(t, err.Error(), "MSFT")
}

func TestSession_HistoricalDataFlow(t *testing.T) {
	sink := &seriesSink{}
	s, gw, c := startSession(t, sink)
	es, id := s.Future("ES", "20240315")

	require.NoError(t, s.RequestHistoricalData(HistoryParams{}, es))
	assert.Contains(t, gw.Calls(), fmt.Sprintf("reqHistoricalData %d ESH2024 1 min 1 D TRADES false 2", id))

	gw.events <- event.HistoricalData{ReqID: id, Date: "1705328200", Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100, Count: 7}
	gw.events <- event.HistoricalData{ReqID: id, Date: "finished-20240115"}

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	got := sink.snapshot()[0]
	assert.Equal(t, "ESH2024", got.Symbol)
	require.Len(t, got.Bars, 1)
	assert.Equal(t, "2024-01-15 14:16:40", got.Bars[0].Datetime)

	series, ok := s.Series("ESH2024")
	require.True(t, ok)
	assert.Len(t, series.Bars, 1)

	require.Eventually(t, func() bool { return len(c.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	done, ok := c.snapshot()[1].(notify.History)
	require.True(t, ok)
	assert.True(t, done.Completed)
	assert.Equal(t, []string{"ESH2024"}, done.Flushed)
}

func TestSession_MarketDataMirror(t *testing.T) {
	s, gw, c := startSession(t, nil)
	_, id := s.Stock("AAPL")

	gw.events <- event.TickPrice{TickerID: id, Field: event.FieldBidPrice, Price: 189.5, CanAutoExecute: 1}
	gw.events <- event.TickSize{TickerID: id, Field: event.FieldBidSize, Size: 300}

	require.Eventually(t, func() bool { return len(c.snapshot()) == 2 }, time.Second, 5*time.Millisecond)

	row, ok := s.MarketData("AAPL")
	require.True(t, ok)
	assert.Equal(t, 189.5, row.Bid)
	assert.Equal(t, 300, row.BidSize)

	md, ok := c.snapshot()[1].(notify.MarketData)
	require.True(t, ok)
	assert.Equal(t, "AAPL", md.Symbol)

	_, ok = s.MarketData("MSFT")
	assert.False(t, ok)
}

func TestSession_OrderLifecycle(t *testing.T) {
	s, gw, c := startSession(t, nil)
	gw.events <- event.NextValidID{OrderID: 100}
	gw.events <- event.ManagedAccounts{AccountsList: "DU123,DU456"}
	gw.events <- event.CurrentTime{Time: 1705328200}

	require.Eventually(t, func() bool { return s.NextOrderID() == 100 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return s.AccountCode() == "DU123" }, time.Second, 5*time.Millisecond)

	aapl, _ := s.Stock("AAPL")
	id, err := s.PlaceOrder(aapl, s.CreateOrder(10, order.WithLimit(189)), 0)
	require.NoError(t, err)
	assert.Equal(t, 100, id)
	assert.Equal(t, 101, s.NextOrderID())

	gw.events <- event.OpenOrder{OrderID: 100, Contract: aapl}
	gw.events <- event.OrderStatus{OrderID: 100, Status: "Submitted"}
	gw.events <- event.OrderStatus{OrderID: 100, Status: "SUBMITTED"}

	require.Eventually(t, func() bool {
		rec, ok := s.Order(100)
		return ok && rec.Status == "SUBMITTED"
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool { return s.Stats().Classifier.Duplicates == 1 }, time.Second, 5*time.Millisecond)
	var orders int
	for _, n := range c.snapshot() {
		if n.Kind() == notify.KindOrder {
			orders++
		}
	}
	assert.Equal(t, 2, orders)

	require.NoError(t, s.RequestAccountUpdates(true))
	assert.Contains(t, gw.Calls(), "placeOrder 100 AAPL BUY 10")
	assert.Contains(t, gw.Calls(), "reqAccountUpdates true DU123")
}

func TestSession_TrailingStopUnknownParent(t *testing.T) {
	s, gw, _ := startSession(t, nil)
	aapl, _ := s.Stock("AAPL")

	_, err := s.CreateTrailingStopOrder(aapl, -10, 42, 1.5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, order.ErrUnknownOrder))
	for _, call := range gw.Calls() {
		assert.NotContains(t, call, "placeOrder")
	}
}

func TestSession_BracketOrder(t *testing.T) {
	s, gw, _ := startSession(t, nil)
	gw.events <- event.NextValidID{OrderID: 10}
	require.Eventually(t, func() bool { return s.NextOrderID() == 10 }, time.Second, 5*time.Millisecond)

	es, _ := s.Future("ES", "20240315")
	br, err := s.CreateBracketOrder(es, 1, order.BracketParams{Entry: 4800, Target: 4850, Stop: 4750, Label: "test"})
	require.NoError(t, err)

	assert.Equal(t, model.Bracket{Label: "test", EntryOrderID: 10, TargetOrderID: 11, StopOrderID: 12}, br)
	assert.Equal(t, 13, s.NextOrderID())
	assert.Contains(t, gw.Calls(), "placeOrder 12 ESH2024 SELL 1")
}

func TestSession_SimpleRequests(t *testing.T) {
	s, gw, _ := startSession(t, nil)

	require.NoError(t, s.RequestPositionUpdates(true))
	require.NoError(t, s.RequestPositionUpdates(false))
	require.NoError(t, s.RequestOrderIDs(0))
	require.NoError(t, s.RequestOrderIDs(3))
	_, err := s.CancelOrder(7)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"reqCurrentTime",
		"reqPositions",
		"cancelPositions",
		"reqIds 1",
		"reqIds 3",
		"cancelOrder 7",
		"reqIds 1",
	}, gw.Calls())
}

func TestSession_AccountAndPositions(t *testing.T) {
	s, gw, _ := startSession(t, nil)
	aapl, _ := s.Stock("AAPL")

	gw.events <- event.AccountUpdate{Key: "NetLiquidation", Value: "100000.50"}
	gw.events <- event.AccountUpdate{Key: "Leverage", Value: "1.2"}
	gw.events <- event.Position{Account: "DU123", Contract: aapl, Pos: 10, AvgCost: 180}
	gw.events <- event.PortfolioUpdate{Contract: aapl, Position: 10, MarketPrice: 190, AccountName: "DU123"}

	require.Eventually(t, func() bool {
		_, ok := s.PortfolioEntry("AAPL")
		return ok
	}, time.Second, 5*time.Millisecond)

	v, ok := s.AccountValue("NetLiquidation")
	require.True(t, ok)
	assert.Equal(t, 100000.50, v)
	_, ok = s.AccountValue("Leverage")
	assert.False(t, ok)

	pos, ok := s.Position("AAPL")
	require.True(t, ok)
	assert.Equal(t, 10, pos.Position)
}

func TestSession_StopDrainsHub(t *testing.T) {
	gw := newFakeGateway()
	s := New(DefaultConfig(), gw, nil, nil, nil)
	c := &collector{}
	s.SetHandler(c)
	require.NoError(t, s.Start(context.Background()))

	_, id := s.Stock("AAPL")
	for i := 0; i < 20; i++ {
		gw.events <- event.TickPrice{TickerID: id, Field: event.FieldLast, Price: float64(i)}
	}
	require.Eventually(t, func() bool { return s.Stats().Classifier.Received == 20 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.Len(t, c.snapshot(), 20)
}
