package store

import (
	"testing"

	"github.com/rickgao/ibmirror/internal/model"
)

func TestPositions_ZeroForUntrackedDiscarded(t *testing.T) {
	s := NewPositions()

	if s.Apply(model.Position{Symbol: "AAPL", Position: 0}) {
		t.Error("zero position for untracked key accepted")
	}
	if _, ok := s.Get("AAPL"); ok {
		t.Error("untracked zero position stored")
	}
}

func TestPositions_ZeroForTrackedReplaces(t *testing.T) {
	s := NewPositions()

	s.Apply(model.Position{Symbol: "AAPL", Position: 100, AvgCost: 150, Account: "DU1"})
	if !s.Apply(model.Position{Symbol: "AAPL", Position: 0, AvgCost: 0, Account: "DU1"}) {
		t.Fatal("closing update rejected")
	}

	p, ok := s.Get("AAPL")
	if !ok || p.Position != 0 || p.AvgCost != 0 {
		t.Errorf("Get(AAPL) = %+v, %v", p, ok)
	}
}

func TestPortfolio_Replace(t *testing.T) {
	s := NewPortfolio()

	s.Apply(model.PortfolioEntry{Symbol: "ESH2024", Position: 1, MarketPrice: 4800})
	s.Apply(model.PortfolioEntry{Symbol: "ESH2024", Position: 2, UnrealizedPNL: 125})

	e, ok := s.Get("ESH2024")
	if !ok {
		t.Fatal("entry missing")
	}
	if e.Position != 2 || e.MarketPrice != 0 || e.UnrealizedPNL != 125 {
		t.Errorf("entry not replaced wholesale: %+v", e)
	}
	if len(s.All()) != 1 {
		t.Errorf("len(All()) = %d, want 1", len(s.All()))
	}
}
