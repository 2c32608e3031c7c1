package store

import (
	"sync"
	"testing"
)

func TestSession_ObserveTimeKeepsMax(t *testing.T) {
	s := NewSession()

	if !s.Time().IsZero() {
		t.Error("Time() not zero before any observation")
	}

	s.ObserveTime(200)
	if got := s.ObserveTime(100); got != 200 {
		t.Errorf("ObserveTime(100) = %d, want 200", got)
	}
	if s.Time().Unix() != 200 {
		t.Errorf("Time() = %v, want unix 200", s.Time())
	}
}

func TestSession_Accounts(t *testing.T) {
	s := NewSession()
	s.SetAccounts("DU111, DU222,")

	if s.AccountCode() != "DU111" {
		t.Errorf("AccountCode() = %q, want DU111", s.AccountCode())
	}
	if got := s.Accounts(); len(got) != 2 || got[1] != "DU222" {
		t.Errorf("Accounts() = %v", got)
	}
}

func TestSession_OrderIDs(t *testing.T) {
	s := NewSession()
	s.SetNextOrderID(10)

	if got := s.TakeOrderID(); got != 10 {
		t.Errorf("TakeOrderID() = %d, want 10", got)
	}
	if got := s.ReserveOrderIDs(3); got != 11 {
		t.Errorf("ReserveOrderIDs(3) = %d, want 11", got)
	}
	if s.NextOrderID() != 14 {
		t.Errorf("NextOrderID() = %d, want 14", s.NextOrderID())
	}

	s.ObserveOrderID(20)
	if s.NextOrderID() != 21 {
		t.Errorf("NextOrderID() = %d after explicit 20, want 21", s.NextOrderID())
	}
	s.ObserveOrderID(5)
	if s.NextOrderID() != 21 {
		t.Errorf("lower explicit id moved counter to %d", s.NextOrderID())
	}
}

func TestSession_TakeOrderIDConcurrent(t *testing.T) {
	s := NewSession()
	s.SetNextOrderID(1)

	const n = 200
	ids := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- s.TakeOrderID()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("id %d handed out twice", id)
		}
		seen[id] = true
	}
	if s.NextOrderID() != n+1 {
		t.Errorf("NextOrderID() = %d, want %d", s.NextOrderID(), n+1)
	}
}

func TestSession_Commission(t *testing.T) {
	s := NewSession()
	s.SetCommission(1.25)
	if s.Commission() != 1.25 {
		t.Errorf("Commission() = %v, want 1.25", s.Commission())
	}
}
