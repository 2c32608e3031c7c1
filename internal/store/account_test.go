package store

import "testing"

func TestAccount_Apply(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantOK  bool
		wantErr bool
		wantVal float64
	}{
		{"tracked key", "NetLiquidation", "100250.75", true, false, 100250.75},
		{"segment key", "AvailableFunds-S", "12.5", true, false, 12.5},
		{"untracked key", "Leverage-S", "1.2", false, false, 0},
		{"bad number", "CashBalance", "n/a", false, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewAccount()
			v, ok, err := s.Apply(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if ok != tt.wantOK || v != tt.wantVal {
				t.Errorf("Apply = %v, %v; want %v, %v", v, ok, tt.wantVal, tt.wantOK)
			}
			if _, stored := s.Value(tt.key); stored != tt.wantOK {
				t.Errorf("stored = %v, want %v", stored, tt.wantOK)
			}
		})
	}
}

func TestAccount_CustomKeys(t *testing.T) {
	s := NewAccount("Leverage-S")

	if !s.Tracks("Leverage-S") || s.Tracks("NetLiquidation") {
		t.Error("custom allow-list not honoured")
	}
	s.Apply("Leverage-S", "2")
	if vals := s.Values(); len(vals) != 1 || vals["Leverage-S"] != 2 {
		t.Errorf("Values() = %v", vals)
	}
}
