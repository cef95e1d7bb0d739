package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// PositionUpdatedEventType 持仓变更事件类型
	PositionUpdatedEventType = "PositionUpdated"
	// EventSource 事件来源标识
	EventSource = "position-service"
)

// PositionChanged 持仓变更事实，描述一次由成交触发的状态迁移
type PositionChanged struct {
	EventID       string `json:"eventId"`
	EventType     string `json:"eventType"`
	EventTime     int64  `json:"eventTime"`
	CorrelationID string `json:"correlationId"`
	Source        string `json:"source"`

	PositionID        uint64          `json:"positionId,string"`
	AccountID         int64           `json:"accountId,string"`
	AccountCode       string          `json:"accountCode"`
	InstrumentID      int64           `json:"instrumentId,string"`
	Symbol            string          `json:"symbol"`
	PreviousQuantity  decimal.Decimal `json:"previousQuantity"`
	NewQuantity       decimal.Decimal `json:"newQuantity"`
	QuantityChange    decimal.Decimal `json:"quantityChange"`
	AvgCost           decimal.Decimal `json:"avgCost"`
	CostBasis         decimal.Decimal `json:"costBasis"`
	RealizedPnL       decimal.Decimal `json:"realizedPnl"`
	Currency          string          `json:"currency"`
	TriggeringTradeID string          `json:"triggeringTradeId"`
	AsOfDate          string          `json:"asOfDate"`
	UpdateType        string          `json:"updateType"`
}

// NewPositionChanged 根据保存后的持仓和触发成交构建事件
// realizedPnlDelta 是本笔的增量，不是累计值
func NewPositionChanged(position *Position, trade *TradeEvent, previousQuantity, quantityChange, realizedPnlDelta decimal.Decimal) *PositionChanged {
	return &PositionChanged{
		EventID:       uuid.NewString(),
		EventType:     PositionUpdatedEventType,
		EventTime:     time.Now().UnixMilli(),
		CorrelationID: trade.CorrelationID,
		Source:        EventSource,

		PositionID:        position.ID,
		AccountID:         position.AccountID,
		AccountCode:       position.AccountCode,
		InstrumentID:      position.InstrumentID,
		Symbol:            position.Symbol,
		PreviousQuantity:  previousQuantity,
		NewQuantity:       position.Quantity,
		QuantityChange:    quantityChange,
		AvgCost:           position.AvgCost,
		CostBasis:         position.CostBasis,
		RealizedPnL:       realizedPnlDelta,
		Currency:          position.Currency,
		TriggeringTradeID: trade.TradeID,
		AsOfDate:          position.AsOfDate.Format(time.DateOnly),
		UpdateType:        "TRADE",
	}
}

// PartitionKey 出站分区键，保证同一账户同一标的的事件按更新顺序投递
func (e *PositionChanged) PartitionKey() string {
	return fmt.Sprintf("%s:%s", e.AccountCode, e.Symbol)
}
