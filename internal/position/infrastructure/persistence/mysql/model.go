package mysql

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/positionkeeping/internal/position/domain"
)

// PositionModel 持仓数据库模型
type PositionModel struct {
	ID           uint64          `gorm:"column:position_id;primaryKey;autoIncrement"`
	AccountID    int64           `gorm:"column:account_id;not null;uniqueIndex:uk_account_instrument_date,priority:1"`
	AccountCode  string          `gorm:"column:account_code;type:varchar(50);index;not null"`
	InstrumentID int64           `gorm:"column:instrument_id;not null;uniqueIndex:uk_account_instrument_date,priority:2"`
	Symbol       string          `gorm:"column:symbol;type:varchar(20);index;not null"`
	Quantity     decimal.Decimal `gorm:"column:quantity;type:decimal(18,8);not null"`
	AvgCost      decimal.Decimal `gorm:"column:avg_cost;type:decimal(18,8);not null"`
	CostBasis    decimal.Decimal `gorm:"column:cost_basis;type:decimal(18,4);not null"`
	MarketValue  decimal.Decimal `gorm:"column:market_value;type:decimal(18,4)"`
	RealizedPnL  decimal.Decimal `gorm:"column:realized_pnl;type:decimal(18,4);not null"`
	Currency     string          `gorm:"column:currency;type:varchar(3);not null"`
	AsOfDate     time.Time       `gorm:"column:as_of_date;type:date;not null;uniqueIndex:uk_account_instrument_date,priority:3"`
	Version      uint            `gorm:"column:version;not null;default:1"`
	CreatedAt    time.Time       `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (PositionModel) TableName() string {
	return "positions"
}

func toDomain(m *PositionModel) *domain.Position {
	return &domain.Position{
		ID:           m.ID,
		AccountID:    m.AccountID,
		AccountCode:  m.AccountCode,
		InstrumentID: m.InstrumentID,
		Symbol:       m.Symbol,
		Quantity:     m.Quantity,
		AvgCost:      m.AvgCost,
		CostBasis:    m.CostBasis,
		MarketValue:  m.MarketValue,
		RealizedPnL:  m.RealizedPnL,
		Currency:     m.Currency,
		AsOfDate:     m.AsOfDate,
		Version:      m.Version,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func fromDomain(p *domain.Position) *PositionModel {
	return &PositionModel{
		ID:           p.ID,
		AccountID:    p.AccountID,
		AccountCode:  p.AccountCode,
		InstrumentID: p.InstrumentID,
		Symbol:       p.Symbol,
		Quantity:     p.Quantity,
		AvgCost:      p.AvgCost,
		CostBasis:    p.CostBasis,
		MarketValue:  p.MarketValue,
		RealizedPnL:  p.RealizedPnL,
		Currency:     p.Currency,
		AsOfDate:     p.AsOfDate,
		Version:      p.Version,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
