package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// avgCostScale 平均成本保留的小数位数
const avgCostScale = 8

// Position 表示一个账户在某标的、某业务日期下的净持仓
// 唯一键为 (AccountID, InstrumentID, AsOfDate)
type Position struct {
	ID           uint64
	AccountID    int64
	AccountCode  string
	InstrumentID int64
	Symbol       string
	// Quantity 净持仓数量，正数为多头，负数为空头
	Quantity decimal.Decimal
	// AvgCost 当前持仓的单位成本；数量为零时保留最后一次计算值
	AvgCost decimal.Decimal
	// CostBasis 持仓成本 |Quantity| × AvgCost，派生字段
	CostBasis decimal.Decimal
	// MarketValue 市值，由外部定价服务回填，本服务不计算
	MarketValue decimal.Decimal
	// RealizedPnL 累计已实现盈亏，只增不减（按减仓方向累加）
	RealizedPnL decimal.Decimal
	Currency    string
	AsOfDate    time.Time
	// Version 乐观锁版本号，每次成功保存递增
	Version   uint
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPosition 为首笔成交惰性创建空持仓
func NewPosition(trade *TradeEvent) *Position {
	return &Position{
		AccountID:    trade.AccountID,
		AccountCode:  trade.AccountCode,
		InstrumentID: trade.InstrumentID,
		Symbol:       trade.Symbol,
		Quantity:     decimal.Zero,
		AvgCost:      decimal.Zero,
		CostBasis:    decimal.Zero,
		RealizedPnL:  decimal.Zero,
		Currency:     trade.Currency,
		AsOfDate:     trade.TradeDate,
	}
}

// ApplyTrade 将一笔成交应用到持仓上，返回本笔的已实现盈亏增量
// 纯计算，无 I/O，可在冲突重试中安全重放
//
// 规则：
//   - 买入且结果仍为多头：加权平均成本，HALF_UP 保留 8 位小数
//   - 买入穿越零点或仍为空头：成本从本笔成交价重新起算，不做跨方向摊平
//   - 卖出：平均成本不变；仅在减多头时实现盈亏 qty × (price − avgCost)
//
// 注意：买入平空头不产生已实现盈亏。业务上平空头是实现事件，
// 但上游口径只在卖出侧计算，这里保持一致，不做纠正。
func (p *Position) ApplyTrade(trade *TradeEvent) decimal.Decimal {
	signedQty := trade.Quantity
	if trade.Side == SideSell {
		signedQty = signedQty.Neg()
	}

	newQuantity := p.Quantity.Add(signedQty)
	realizedPnlDelta := decimal.Zero

	if trade.Side == SideBuy {
		if newQuantity.IsPositive() {
			existingValue := p.Quantity.Mul(p.AvgCost)
			addedValue := trade.Quantity.Mul(trade.Price)
			p.AvgCost = existingValue.Add(addedValue).DivRound(newQuantity, avgCostScale)
		} else {
			p.AvgCost = trade.Price
		}
	} else {
		if p.Quantity.IsPositive() {
			realizedPnlDelta = trade.Quantity.Mul(trade.Price.Sub(p.AvgCost))
		}
	}

	p.Quantity = newQuantity
	p.CostBasis = newQuantity.Abs().Mul(p.AvgCost)
	p.RealizedPnL = p.RealizedPnL.Add(realizedPnlDelta)

	return realizedPnlDelta
}
