package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side 买卖方向
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TradeEvent 上游成交事件，只读输入
// 数量恒为正数，方向由 Side 表达
type TradeEvent struct {
	TradeID       string
	CorrelationID string
	Side          Side
	Quantity      decimal.Decimal
	Price         decimal.Decimal
	TradeDate     time.Time
	Currency      string
	AccountID     int64
	AccountCode   string
	InstrumentID  int64
	Symbol        string
}

// Validate 校验必填字段与取值约束
func (t *TradeEvent) Validate() error {
	if t.TradeID == "" {
		return &ValidationError{Field: "tradeId", Reason: "is required"}
	}
	if t.Side != SideBuy && t.Side != SideSell {
		return &ValidationError{Field: "side", Reason: "must be BUY or SELL"}
	}
	if !t.Quantity.IsPositive() {
		return &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if !t.Price.IsPositive() {
		return &ValidationError{Field: "price", Reason: "must be positive"}
	}
	if t.TradeDate.IsZero() {
		return &ValidationError{Field: "tradeDate", Reason: "is required"}
	}
	if t.AccountID == 0 || t.AccountCode == "" {
		return &ValidationError{Field: "account", Reason: "is required"}
	}
	if t.InstrumentID == 0 || t.Symbol == "" {
		return &ValidationError{Field: "instrument", Reason: "is required"}
	}
	if t.Currency == "" {
		return &ValidationError{Field: "currency", Reason: "is required"}
	}
	return nil
}
