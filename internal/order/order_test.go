package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/ibmirror/internal/model"
)

func TestCreateOrder_Defaults(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		opts     []Option
		wantAct  string
		wantQty  int
		wantType string
	}{
		{"market buy", 10, nil, model.ActionBuy, 10, model.OrderTypeMarket},
		{"market sell", -3, nil, model.ActionSell, 3, model.OrderTypeMarket},
		{"limit buy", 1, []Option{WithLimit(4800)}, model.ActionBuy, 1, model.OrderTypeLimit},
		{"type override wins", 1, []Option{WithLimit(4800), WithOrderType(model.OrderTypeStopLimit)}, model.ActionBuy, 1, model.OrderTypeStopLimit},
		{"stop without limit stays market", -1, []Option{WithStop(4700)}, model.ActionSell, 1, model.OrderTypeMarket},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := CreateOrder(tt.quantity, tt.opts...)
			assert.Equal(t, tt.wantAct, o.Action)
			assert.Equal(t, tt.wantQty, o.TotalQuantity)
			assert.Equal(t, tt.wantType, o.OrderType)
			assert.Equal(t, DefaultTIF, o.TIF)
			assert.True(t, o.Transmit)
		})
	}
}

func TestCreateOrder_OptionalFieldsOnlyWhenSet(t *testing.T) {
	plain := CreateOrder(1)
	assert.Nil(t, plain.PercentOffset)
	assert.Nil(t, plain.ParentID)
	assert.Nil(t, plain.OCAGroup)
	assert.Nil(t, plain.TrailingPercent)
	assert.Nil(t, plain.TrailStopPrice)

	full := CreateOrder(1,
		WithPercentOffset(0.5),
		WithParentID(7),
		WithOCAGroup("grp"),
		WithTrailingPercent(2),
		WithTrailStopPrice(99.5),
		WithTIF("GTC"),
		WithAllOrNone(true),
		WithHidden(true),
		WithTransmit(false),
	)
	require.NotNil(t, full.ParentID)
	assert.Equal(t, 7, *full.ParentID)
	assert.Equal(t, "grp", *full.OCAGroup)
	assert.Equal(t, 0.5, *full.PercentOffset)
	assert.Equal(t, 2.0, *full.TrailingPercent)
	assert.Equal(t, 99.5, *full.TrailStopPrice)
	assert.Equal(t, "GTC", full.TIF)
	assert.True(t, full.AllOrNone)
	assert.True(t, full.Hidden)
	assert.False(t, full.Transmit)
}
