package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/rickgao/ibmirror/internal/connection"
	"github.com/rickgao/ibmirror/internal/model"
)

// History request defaults.
const (
	DefaultHistoryResolution = "1 min"
	DefaultHistoryLookback   = "1 D"
	DefaultHistoryWhatToShow = "TRADES"
	historyFormatEpoch       = 2
)

// HistoryParams describes a historical data request. Zero fields take the
// defaults.
type HistoryParams struct {
	Resolution string
	Lookback   string
	WhatToShow string
	EndTime    time.Time // Zero = now
	UseRTH     bool
}

// RequestMarketData subscribes to streaming market data, including RT
// volume, for insts or for every bound contract when none are given.
func (s *Session) RequestMarketData(insts ...model.Instrument) error {
	var errs []error
	for _, inst := range s.targets(insts) {
		inst, id := s.Contract(inst)
		if err := s.gateway.RequestMarketData(id, inst, s.cfg.GenericTicks); err != nil {
			errs = append(errs, fmt.Errorf("request market data %s: %w", inst.Key, err))
		}
	}
	return errors.Join(errs...)
}

// CancelMarketData cancels market data for insts or for every bound
// contract.
func (s *Session) CancelMarketData(insts ...model.Instrument) error {
	var errs []error
	for _, inst := range s.targets(insts) {
		inst, id := s.Contract(inst)
		if err := s.gateway.CancelMarketData(id); err != nil {
			errs = append(errs, fmt.Errorf("cancel market data %s: %w", inst.Key, err))
		}
	}
	return errors.Join(errs...)
}

// RequestHistoricalData requests bars for insts or for every bound
// contract. Each request starts a fresh series for its key.
func (s *Session) RequestHistoricalData(p HistoryParams, insts ...model.Instrument) error {
	req := connection.HistoryRequest{
		EndTime:    p.EndTime,
		Lookback:   p.Lookback,
		Resolution: p.Resolution,
		WhatToShow: p.WhatToShow,
		UseRTH:     p.UseRTH,
		FormatDate: historyFormatEpoch,
	}
	if req.Lookback == "" {
		req.Lookback = DefaultHistoryLookback
	}
	if req.Resolution == "" {
		req.Resolution = DefaultHistoryResolution
	}
	if req.WhatToShow == "" {
		req.WhatToShow = DefaultHistoryWhatToShow
	}
	if req.EndTime.IsZero() {
		req.EndTime = time.Now()
	}

	var errs []error
	for _, inst := range s.targets(insts) {
		inst, id := s.Contract(inst)
		s.stores.History.Begin(inst.Key)
		if err := s.gateway.RequestHistoricalData(id, inst, req); err != nil {
			errs = append(errs, fmt.Errorf("request historical data %s: %w", inst.Key, err))
		}
	}
	return errors.Join(errs...)
}

// CancelHistoricalData cancels historical requests for insts or for every
// bound contract.
func (s *Session) CancelHistoricalData(insts ...model.Instrument) error {
	var errs []error
	for _, inst := range s.targets(insts) {
		inst, id := s.Contract(inst)
		if err := s.gateway.CancelHistoricalData(id); err != nil {
			errs = append(errs, fmt.Errorf("cancel historical data %s: %w", inst.Key, err))
		}
	}
	return errors.Join(errs...)
}

// RequestPositionUpdates subscribes to, or cancels, the position stream.
func (s *Session) RequestPositionUpdates(subscribe bool) error {
	if subscribe {
		return s.gateway.RequestPositions()
	}
	return s.gateway.CancelPositions()
}

// RequestAccountUpdates subscribes to, or cancels, account and portfolio
// updates for the managed account.
func (s *Session) RequestAccountUpdates(subscribe bool) error {
	return s.gateway.RequestAccountUpdates(subscribe, s.AccountCode())
}

// RequestOrderIDs asks the gateway for n fresh order ids.
func (s *Session) RequestOrderIDs(n int) error {
	if n < 1 {
		n = 1
	}
	return s.gateway.RequestIDs(n)
}

// RequestServerTime asks the gateway for its clock.
func (s *Session) RequestServerTime() error {
	return s.gateway.RequestCurrentTime()
}

func (s *Session) targets(insts []model.Instrument) []model.Instrument {
	if len(insts) > 0 {
		return insts
	}
	return s.registry.Contracts()
}
