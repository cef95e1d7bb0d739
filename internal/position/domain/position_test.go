package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTrade(side Side, qty, price string) *TradeEvent {
	return &TradeEvent{
		TradeID:       "T-1001",
		CorrelationID: "corr-1",
		Side:          side,
		Quantity:      decimal.RequireFromString(qty),
		Price:         decimal.RequireFromString(price),
		TradeDate:     time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		Currency:      "USD",
		AccountID:     7,
		AccountCode:   "ACC-007",
		InstrumentID:  42,
		Symbol:        "AAPL",
	}
}

func TestApplyTrade_WeightedAverageCostOnBuys(t *testing.T) {
	p := NewPosition(newTestTrade(SideBuy, "10", "100"))

	delta := p.ApplyTrade(newTestTrade(SideBuy, "10", "100"))
	assert.True(t, delta.IsZero())

	delta = p.ApplyTrade(newTestTrade(SideBuy, "10", "200"))
	assert.True(t, delta.IsZero())

	assert.True(t, p.Quantity.Equal(decimal.NewFromInt(20)), "quantity = %s", p.Quantity)
	assert.True(t, p.AvgCost.Equal(decimal.RequireFromString("150")), "avgCost = %s", p.AvgCost)
	assert.True(t, p.CostBasis.Equal(decimal.NewFromInt(3000)), "costBasis = %s", p.CostBasis)
	assert.True(t, p.RealizedPnL.IsZero())
}

func TestApplyTrade_AvgCostRoundedHalfUp(t *testing.T) {
	p := NewPosition(newTestTrade(SideBuy, "3", "10"))

	p.ApplyTrade(newTestTrade(SideBuy, "3", "10"))
	p.ApplyTrade(newTestTrade(SideBuy, "3", "10.00000001"))

	// (30 + 30.00000003) / 6 = 10.000000005 → 10.00000001
	assert.Equal(t, "10.00000001", p.AvgCost.String())
}

func TestApplyTrade_SellAgainstLongRealizesPnl(t *testing.T) {
	p := NewPosition(newTestTrade(SideBuy, "10", "100"))
	p.ApplyTrade(newTestTrade(SideBuy, "10", "100"))

	delta := p.ApplyTrade(newTestTrade(SideSell, "4", "150"))

	assert.True(t, delta.Equal(decimal.NewFromInt(200)), "realizedPnlDelta = %s", delta)
	assert.True(t, p.Quantity.Equal(decimal.NewFromInt(6)))
	assert.True(t, p.AvgCost.Equal(decimal.NewFromInt(100)), "avg cost unchanged on sells")
	assert.True(t, p.RealizedPnL.Equal(decimal.NewFromInt(200)))
	assert.True(t, p.CostBasis.Equal(decimal.NewFromInt(600)))
}

func TestApplyTrade_SellAgainstShortNeverRealizes(t *testing.T) {
	p := NewPosition(newTestTrade(SideSell, "5", "100"))
	p.ApplyTrade(newTestTrade(SideSell, "5", "100"))
	require.True(t, p.Quantity.IsNegative())

	delta := p.ApplyTrade(newTestTrade(SideSell, "3", "120"))

	assert.True(t, delta.IsZero())
	assert.True(t, p.RealizedPnL.IsZero())
	assert.True(t, p.Quantity.Equal(decimal.NewFromInt(-8)))
}

func TestApplyTrade_BuyFlippingShortResetsAvgCost(t *testing.T) {
	p := NewPosition(newTestTrade(SideSell, "5", "90"))
	p.ApplyTrade(newTestTrade(SideSell, "5", "90"))
	require.True(t, p.Quantity.Equal(decimal.NewFromInt(-5)))

	// -5 买 8 → +3，成本重置为成交价，不做跨方向摊平
	delta := p.ApplyTrade(newTestTrade(SideBuy, "8", "110"))

	assert.True(t, delta.IsZero(), "buy-side covers do not realize pnl")
	assert.True(t, p.Quantity.Equal(decimal.NewFromInt(3)))
	assert.True(t, p.AvgCost.Equal(decimal.NewFromInt(110)))
	assert.True(t, p.CostBasis.Equal(decimal.NewFromInt(330)))
	assert.True(t, p.RealizedPnL.IsZero())
}

func TestApplyTrade_BuyPartiallyCoveringShortKeepsTradePriceAsCost(t *testing.T) {
	p := NewPosition(newTestTrade(SideSell, "10", "90"))
	p.ApplyTrade(newTestTrade(SideSell, "10", "90"))

	delta := p.ApplyTrade(newTestTrade(SideBuy, "4", "80"))

	assert.True(t, delta.IsZero())
	assert.True(t, p.Quantity.Equal(decimal.NewFromInt(-6)))
	assert.True(t, p.AvgCost.Equal(decimal.NewFromInt(80)))
}

func TestApplyTrade_SellToZeroKeepsLastAvgCost(t *testing.T) {
	p := NewPosition(newTestTrade(SideBuy, "10", "100"))
	p.ApplyTrade(newTestTrade(SideBuy, "10", "100"))

	delta := p.ApplyTrade(newTestTrade(SideSell, "10", "110"))

	assert.True(t, delta.Equal(decimal.NewFromInt(100)))
	assert.True(t, p.Quantity.IsZero())
	// 数量归零后平均成本保留最后一次计算值
	assert.True(t, p.AvgCost.Equal(decimal.NewFromInt(100)))
	assert.True(t, p.CostBasis.IsZero())
}

func TestApplyTrade_RealizedPnlAccumulates(t *testing.T) {
	p := NewPosition(newTestTrade(SideBuy, "10", "100"))
	p.ApplyTrade(newTestTrade(SideBuy, "10", "100"))

	p.ApplyTrade(newTestTrade(SideSell, "2", "150"))
	p.ApplyTrade(newTestTrade(SideSell, "2", "50"))

	// +100 − 100 = 0，累计值允许增量为负但只按减仓累加
	assert.True(t, p.RealizedPnL.IsZero())
	assert.True(t, p.Quantity.Equal(decimal.NewFromInt(6)))
}

func TestTradeEventValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TradeEvent)
		field  string
	}{
		{"missing trade id", func(t *TradeEvent) { t.TradeID = "" }, "tradeId"},
		{"bad side", func(t *TradeEvent) { t.Side = "HOLD" }, "side"},
		{"zero quantity", func(t *TradeEvent) { t.Quantity = decimal.Zero }, "quantity"},
		{"negative quantity", func(t *TradeEvent) { t.Quantity = decimal.NewFromInt(-1) }, "quantity"},
		{"zero price", func(t *TradeEvent) { t.Price = decimal.Zero }, "price"},
		{"zero trade date", func(t *TradeEvent) { t.TradeDate = time.Time{} }, "tradeDate"},
		{"missing account", func(t *TradeEvent) { t.AccountCode = "" }, "account"},
		{"missing instrument", func(t *TradeEvent) { t.Symbol = "" }, "instrument"},
		{"missing currency", func(t *TradeEvent) { t.Currency = "" }, "currency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trade := newTestTrade(SideBuy, "1", "10")
			tt.mutate(trade)

			err := trade.Validate()
			require.Error(t, err)
			assert.True(t, IsValidationError(err))

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	assert.NoError(t, newTestTrade(SideSell, "1", "10").Validate())
}
