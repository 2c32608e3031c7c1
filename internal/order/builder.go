package order

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/ibmirror/internal/model"
)

// ErrUnknownOrder is returned when a parent order is not in the order store.
var ErrUnknownOrder = errors.New("unknown order")

// Submitter sends order commands to the gateway.
type Submitter interface {
	PlaceOrder(orderID int, inst model.Instrument, order model.Order) error
	CancelOrder(orderID int) error
	RequestIDs(count int) error
}

// Orders reports whether an order id is known.
type Orders interface {
	Has(id int) bool
}

// IDs hands out order ids. store.Session implements it.
type IDs interface {
	NextOrderID() int
	TakeOrderID() int
	ReserveOrderIDs(n int) int
	ObserveOrderID(id int)
}

// BracketParams describes a bracket order. Zero Target or Stop omits the
// leg.
type BracketParams struct {
	Entry           float64 // Entry limit; 0 = market
	Target          float64 // Take-profit limit
	Stop            float64 // Stop price, or trailing percent for TRAIL stops
	TargetOrderType string  // Default LMT
	StopOrderType   string  // Default STP; TRAIL makes Stop a trailing percent
	Label           string  // Default bracket_<unix seconds>
	TIF             string
	AllOrNone       bool
	Hidden          bool
}

// Builder places orders and order graphs through a Submitter.
type Builder struct {
	gateway  Submitter
	orders   Orders
	ids      IDs
	clientID int
	logger   *slog.Logger
	now      func() time.Time
}

// NewBuilder creates an order builder.
func NewBuilder(gateway Submitter, orders Orders, ids IDs, clientID int, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		gateway:  gateway,
		orders:   orders,
		ids:      ids,
		clientID: clientID,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateOrder builds an order stamped with the session client id.
func (b *Builder) CreateOrder(quantity int, opts ...Option) model.Order {
	o := CreateOrder(quantity, opts...)
	o.ClientID = b.clientID
	return o
}

// PlaceOrder submits order under orderID, or under the next tracked id when
// orderID is 0. It returns the id used.
func (b *Builder) PlaceOrder(inst model.Instrument, order model.Order, orderID int) (int, error) {
	if orderID == 0 {
		orderID = b.ids.TakeOrderID()
	} else {
		b.ids.ObserveOrderID(orderID)
	}
	return orderID, b.submit(orderID, inst, order)
}

// CancelOrder cancels orderID, or the next tracked id when orderID is 0.
func (b *Builder) CancelOrder(orderID int) (int, error) {
	if orderID == 0 {
		orderID = b.ids.NextOrderID()
	}
	if err := b.gateway.CancelOrder(orderID); err != nil {
		return orderID, fmt.Errorf("cancel order %d: %w", orderID, err)
	}
	b.requestID()
	return orderID, nil
}

// CreateBracketOrder submits an entry order with optional target and stop
// children. The target uses entry+1 and the stop entry+2. Only the last
// leg transmits, which releases the whole graph at once.
func (b *Builder) CreateBracketOrder(inst model.Instrument, quantity int, p BracketParams) (model.Bracket, error) {
	label := p.Label
	if label == "" {
		label = fmt.Sprintf("bracket_%d", b.now().Unix())
	}

	legs := 1
	if p.Target > 0 {
		legs = 2
	}
	if p.Stop > 0 {
		legs = 3
	}
	entryID := b.ids.ReserveOrderIDs(legs)
	bracket := model.Bracket{Label: label, EntryOrderID: entryID}

	tif := p.TIF
	if tif == "" {
		tif = DefaultTIF
	}
	entry := b.CreateOrder(quantity,
		WithLimit(p.Entry),
		WithTIF(tif),
		WithAllOrNone(p.AllOrNone),
		WithHidden(p.Hidden),
		WithTransmit(legs == 1),
	)
	if err := b.submit(entryID, inst, entry); err != nil {
		return bracket, err
	}

	if p.Target > 0 {
		targetType := p.TargetOrderType
		if targetType == "" {
			targetType = model.OrderTypeLimit
		}
		target := b.CreateOrder(-quantity,
			WithLimit(p.Target),
			WithOrderType(targetType),
			WithTransmit(p.Stop <= 0),
			WithParentID(entryID),
		)
		if err := b.submit(entryID+1, inst, target); err != nil {
			return bracket, err
		}
		bracket.TargetOrderID = entryID + 1
	}

	if p.Stop > 0 {
		var stop model.Order
		if p.StopOrderType == model.OrderTypeTrail {
			stop = b.CreateOrder(-quantity,
				WithTrailingPercent(p.Stop),
				WithOrderType(model.OrderTypeTrail),
				WithTransmit(true),
				WithParentID(entryID),
			)
		} else {
			stopType := p.StopOrderType
			if stopType == "" {
				stopType = model.OrderTypeStop
			}
			stop = b.CreateOrder(-quantity,
				WithStop(p.Stop),
				WithOrderType(stopType),
				WithTransmit(true),
				WithParentID(entryID),
			)
		}
		if err := b.submit(entryID+2, inst, stop); err != nil {
			return bracket, err
		}
		bracket.StopOrderID = entryID + 2
	}

	b.logger.Info("bracket order submitted",
		"label", label,
		"symbol", inst.Key,
		"entry", bracket.EntryOrderID,
		"target", bracket.TargetOrderID,
		"stop", bracket.StopOrderID,
	)
	return bracket, nil
}

// CreateTrailingStopOrder attaches a TRAIL order to an existing parent
// under id next+1. Both ids are reserved in one step so a concurrent
// PlaceOrder cannot take the same id. It fails with ErrUnknownOrder,
// submitting nothing, when the parent is not in the order store.
func (b *Builder) CreateTrailingStopOrder(inst model.Instrument, quantity, parentID int, trailPercent float64) (int, error) {
	if !b.orders.Has(parentID) {
		return 0, fmt.Errorf("%w: parent %d", ErrUnknownOrder, parentID)
	}

	o := b.CreateOrder(quantity,
		WithTrailingPercent(trailPercent),
		WithOrderType(model.OrderTypeTrail),
		WithParentID(parentID),
		WithTransmit(true),
	)
	orderID := b.ids.ReserveOrderIDs(2) + 1
	return orderID, b.submit(orderID, inst, o)
}

// submit places one order and asks the gateway for a fresh id.
func (b *Builder) submit(orderID int, inst model.Instrument, o model.Order) error {
	if err := b.gateway.PlaceOrder(orderID, inst, o); err != nil {
		return fmt.Errorf("place order %d: %w", orderID, err)
	}
	b.requestID()
	return nil
}

func (b *Builder) requestID() {
	if err := b.gateway.RequestIDs(1); err != nil {
		b.logger.Warn("failed to request order id", "error", err)
	}
}
