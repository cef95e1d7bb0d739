package application

import (
	"time"

	"github.com/wyfcoding/positionkeeping/internal/position/domain"
)

// PositionDTO 持仓 DTO
// 用于在应用层和接口层之间传输持仓数据，数值字段序列化为字符串
type PositionDTO struct {
	PositionID   uint64 `json:"positionId"`
	AccountID    int64  `json:"accountId"`
	AccountCode  string `json:"accountCode"`
	InstrumentID int64  `json:"instrumentId"`
	Symbol       string `json:"symbol"`
	Quantity     string `json:"quantity"`
	AvgCost      string `json:"avgCost"`
	CostBasis    string `json:"costBasis"`
	MarketValue  string `json:"marketValue"`
	RealizedPnL  string `json:"realizedPnl"`
	Currency     string `json:"currency"`
	AsOfDate     string `json:"asOfDate"`
	UpdatedAt    int64  `json:"updatedAt"`
}

// AccountSummaryDTO 账户持仓汇总
type AccountSummaryDTO struct {
	AccountCode      string `json:"accountCode"`
	AsOfDate         string `json:"asOfDate"`
	PositionCount    int    `json:"positionCount"`
	TotalCostBasis   string `json:"totalCostBasis"`
	TotalRealizedPnL string `json:"totalRealizedPnl"`
}

func toPositionDTO(p *domain.Position) *PositionDTO {
	return &PositionDTO{
		PositionID:   p.ID,
		AccountID:    p.AccountID,
		AccountCode:  p.AccountCode,
		InstrumentID: p.InstrumentID,
		Symbol:       p.Symbol,
		Quantity:     p.Quantity.String(),
		AvgCost:      p.AvgCost.String(),
		CostBasis:    p.CostBasis.String(),
		MarketValue:  p.MarketValue.String(),
		RealizedPnL:  p.RealizedPnL.String(),
		Currency:     p.Currency,
		AsOfDate:     p.AsOfDate.Format(time.DateOnly),
		UpdatedAt:    p.UpdatedAt.Unix(),
	}
}
