package instrument

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/ibmirror/internal/market"
	"github.com/rickgao/ibmirror/internal/model"
)

func TestCanonicalKey(t *testing.T) {
	tests := []struct {
		name string
		inst model.Instrument
		want string
	}{
		{
			name: "stock",
			inst: model.Instrument{Symbol: "AAPL", SecType: "STK", Exchange: "SMART", Currency: "USD"},
			want: "AAPL",
		},
		{
			name: "future from full expiry",
			inst: model.Instrument{Symbol: "ES", SecType: "FUT", Exchange: "GLOBEX", Currency: "USD", Expiry: "20240315"},
			want: "ESH2024",
		},
		{
			name: "future from month expiry",
			inst: model.Instrument{Symbol: "CL", SecType: "FUT", Expiry: "202412"},
			want: "CLZ2024",
		},
		{
			name: "cash",
			inst: model.Instrument{Symbol: "EUR", SecType: "CASH", Currency: "USD"},
			want: "EURUSD",
		},
		{
			name: "option with whole strike",
			inst: model.Instrument{Symbol: "AAPL", SecType: "OPT", Expiry: "20240119", Strike: 150, Right: "CALL"},
			want: "AAPL20240119CALL_15000",
		},
		{
			name: "option with cent strike",
			inst: model.Instrument{Symbol: "SPY", SecType: "OPT", Expiry: "20240119", Strike: 472.5, Right: "PUT"},
			want: "SPY20240119PUT_47250",
		},
		{
			name: "option with sub-cent strike keeps raw value",
			inst: model.Instrument{Symbol: "XYZ", SecType: "OPT", Expiry: "20240119", Strike: 12.345, Right: "CALL"},
			want: "XYZ20240119CALL_12345",
		},
		{
			name: "option with dime strike gets two decimals",
			inst: model.Instrument{Symbol: "AAPL", SecType: "OPT", Expiry: "20240119", Strike: 150.1, Right: "CALL"},
			want: "AAPL20240119CALL_15010",
		},
		{
			name: "option with sub-dollar strike keeps leading zero",
			inst: model.Instrument{Symbol: "XYZ", SecType: "OPT", Expiry: "20240119", Strike: 0.3, Right: "PUT"},
			want: "XYZ20240119PUT_030",
		},
		{
			name: "future option",
			inst: model.Instrument{Symbol: "ES", SecType: "FOP", Expiry: "20240315", Strike: 5000, Right: "PUT"},
			want: "ES20240315PUT_500000",
		},
		{
			name: "missing security type is bare symbol",
			inst: model.Instrument{Symbol: "AAPL"},
			want: "AAPL",
		},
		{
			name: "other security type keeps suffix",
			inst: model.Instrument{Symbol: "SPX", SecType: "IND"},
			want: "SPX_IND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalKey(tt.inst)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalKey_Malformed(t *testing.T) {
	tests := []struct {
		name string
		inst model.Instrument
	}{
		{"future without expiry", model.Instrument{Symbol: "ES", SecType: "FUT"}},
		{"future with short expiry", model.Instrument{Symbol: "ES", SecType: "FUT", Expiry: "2024"}},
		{"future with bad month", model.Instrument{Symbol: "ES", SecType: "FUT", Expiry: "20241315"}},
		{"future with letters", model.Instrument{Symbol: "ES", SecType: "FUT", Expiry: "2024AB"}},
		{"option with NaN strike", model.Instrument{Symbol: "AAPL", SecType: "OPT", Strike: math.NaN()}},
		{"option with infinite strike", model.Instrument{Symbol: "AAPL", SecType: "OPT", Strike: math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CanonicalKey(tt.inst)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedInstrument))
		})
	}
}

func TestCanonicalKey_Deterministic(t *testing.T) {
	a := model.Instrument{Symbol: "ES", SecType: "FUT", Exchange: "GLOBEX", Currency: "USD", Expiry: "20240315"}
	// Same economic identity, different routing venue.
	b := a
	b.Exchange = "CME"

	first, err := CanonicalKey(a)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := CanonicalKey(b)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBuilder_KeyFallsBackToSymbol(t *testing.T) {
	b := NewBuilder(market.NewRegistry(), nil)

	key := b.Key(model.Instrument{Symbol: "ES", SecType: "FUT", Expiry: "bad"})
	assert.Equal(t, "ES", key)
}

func TestBuilder_BuildBindsContract(t *testing.T) {
	reg := market.NewRegistry()
	b := NewBuilder(reg, nil)

	inst, id := b.Future("ES", "20240315")
	assert.Equal(t, "ESH2024", inst.Key)
	assert.Equal(t, 1, id)
	assert.Equal(t, "GLOBEX", inst.Exchange)

	bound, ok := reg.Contract(id)
	require.True(t, ok)
	assert.Equal(t, inst, bound)
	assert.Equal(t, "ESH2024", reg.SymbolOf(id))
}

func TestBuilder_ReusesID(t *testing.T) {
	reg := market.NewRegistry()
	b := NewBuilder(reg, nil)

	_, first := b.Stock("AAPL")
	_, second := b.Stock("MSFT")
	_, again := b.Stock("AAPL", WithExchange("ISLAND"))

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
	assert.Equal(t, first, again)

	// Latest build wins for the bound instrument.
	bound, ok := reg.Contract(first)
	require.True(t, ok)
	assert.Equal(t, "ISLAND", bound.Exchange)
}

func TestBuilder_Shortcuts(t *testing.T) {
	b := NewBuilder(market.NewRegistry(), nil)

	cash, _ := b.Cash("EUR", WithCurrency("USD"))
	assert.Equal(t, "EURUSD", cash.Key)
	assert.Equal(t, model.SecTypeCash, cash.SecType)

	opt, _ := b.Option("AAPL", "20240119", 150, "")
	assert.Equal(t, model.RightCall, opt.Right)
	assert.Equal(t, "AAPL20240119CALL_15000", opt.Key)

	fop, _ := b.FutureOption("ES", "20240315", 5000, model.RightPut, WithExchange("GLOBEX"))
	assert.Equal(t, model.SecTypeFutureOption, fop.SecType)
	assert.Equal(t, "GLOBEX", fop.Exchange)
}
