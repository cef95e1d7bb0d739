package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/positionkeeping/internal/position/domain"
	"github.com/wyfcoding/positionkeeping/pkg/logger"
)

// PositionQueryService 持仓读用例
// 只读，不触发任何副作用
type PositionQueryService struct {
	repo domain.PositionRepository
}

// NewPositionQueryService 创建持仓查询服务
func NewPositionQueryService(repo domain.PositionRepository) *PositionQueryService {
	return &PositionQueryService{repo: repo}
}

// GetPosition 按 ID 获取持仓详情，不存在时返回 domain.ErrNotFound
func (qs *PositionQueryService) GetPosition(ctx context.Context, positionID uint64) (*PositionDTO, error) {
	position, err := qs.repo.FindByID(ctx, positionID)
	if err != nil {
		return nil, err
	}
	return toPositionDTO(position), nil
}

// GetPositionsByAccount 获取账户在某业务日期下的持仓列表，按 symbol 排序
// 无匹配时返回空列表而非错误
func (qs *PositionQueryService) GetPositionsByAccount(ctx context.Context, accountCode string, asOfDate time.Time) ([]*PositionDTO, error) {
	if accountCode == "" {
		return nil, fmt.Errorf("account_code is required")
	}

	positions, err := qs.repo.FindByAccount(ctx, accountCode, asOfDate)
	if err != nil {
		logger.Error(ctx, "Failed to get positions by account",
			"account_code", accountCode,
			"error", err,
		)
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}

	dtos := make([]*PositionDTO, 0, len(positions))
	for _, p := range positions {
		dtos = append(dtos, toPositionDTO(p))
	}
	return dtos, nil
}

// GetAccountSummary 汇总账户持仓：数量、总成本、累计已实现盈亏
func (qs *PositionQueryService) GetAccountSummary(ctx context.Context, accountCode string, asOfDate time.Time) (*AccountSummaryDTO, error) {
	positions, err := qs.repo.FindByAccount(ctx, accountCode, asOfDate)
	if err != nil {
		logger.Error(ctx, "Failed to build account summary",
			"account_code", accountCode,
			"error", err,
		)
		return nil, fmt.Errorf("failed to build account summary: %w", err)
	}

	totalCostBasis := decimal.Zero
	totalRealizedPnL := decimal.Zero
	for _, p := range positions {
		totalCostBasis = totalCostBasis.Add(p.CostBasis)
		totalRealizedPnL = totalRealizedPnL.Add(p.RealizedPnL)
	}

	return &AccountSummaryDTO{
		AccountCode:      accountCode,
		AsOfDate:         asOfDate.Format(time.DateOnly),
		PositionCount:    len(positions),
		TotalCostBasis:   totalCostBasis.String(),
		TotalRealizedPnL: totalRealizedPnL.String(),
	}, nil
}
