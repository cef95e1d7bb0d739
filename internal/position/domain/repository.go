package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PositionRepository 持仓仓储接口
type PositionRepository interface {
	// Find 按唯一键查询持仓，不存在时返回 ErrNotFound
	Find(ctx context.Context, accountID, instrumentID int64, asOfDate time.Time) (*Position, error)
	// Save 保存持仓。ID 为零时插入；否则按版本号做比较交换更新，
	// 版本不匹配返回 ErrConflict 且不写入
	Save(ctx context.Context, position *Position) error
	// FindByAccount 查询账户在某业务日期下的全部持仓，按 symbol 排序
	FindByAccount(ctx context.Context, accountCode string, asOfDate time.Time) ([]*Position, error)
	// FindByID 按持仓 ID 查询，不存在时返回 ErrNotFound
	FindByID(ctx context.Context, positionID uint64) (*Position, error)
	// TotalMarketValue 汇总账户市值；market_value 由外部定价服务回填
	TotalMarketValue(ctx context.Context, accountCode string, asOfDate time.Time) (decimal.Decimal, error)
}

// PositionCache 持仓快照缓存（写时刷新，非权威数据）
type PositionCache interface {
	Refresh(ctx context.Context, position *Position) error
}

// EventPublisher 持仓变更事件发布者
type EventPublisher interface {
	PublishPositionChanged(ctx context.Context, event *PositionChanged) error
}
