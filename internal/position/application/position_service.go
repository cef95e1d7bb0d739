// 包 持仓服务的用例逻辑
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/positionkeeping/internal/position/domain"
	"github.com/wyfcoding/positionkeeping/pkg/logger"
	"github.com/wyfcoding/positionkeeping/pkg/metrics"
)

// maxSaveAttempts 乐观锁冲突时的最大保存尝试次数
// 争用窗口在亚毫秒级，不需要退避
const maxSaveAttempts = 3

// PositionService 持仓更新编排服务
// 负责：加载或创建持仓 → 应用成交 → 带冲突重试的持久化 → 提交后刷新缓存并发布事件
type PositionService struct {
	repo      domain.PositionRepository // 持仓仓储接口
	cache     domain.PositionCache      // 快照缓存（尽力而为）
	publisher domain.EventPublisher     // 事件发布者（尽力而为）
	metrics   *metrics.Metrics          // 业务指标，可为 nil
}

// NewPositionService 创建持仓更新服务
func NewPositionService(repo domain.PositionRepository, cache domain.PositionCache, publisher domain.EventPublisher, m *metrics.Metrics) *PositionService {
	return &PositionService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		metrics:   m,
	}
}

// HandleTrade 处理一笔成交事件，返回更新后的持仓
//
// 持久化是唯一的真相源：只有保存成功才算处理成功。
// 缓存刷新与事件发布在提交之后按序执行，失败只记日志，
// 不回滚已提交的写入，也不影响调用方的确认决策。
func (s *PositionService) HandleTrade(ctx context.Context, trade *domain.TradeEvent) (*domain.Position, error) {
	if err := trade.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	var (
		position         *domain.Position
		previousQuantity decimal.Decimal
		quantityChange   decimal.Decimal
		realizedPnlDelta decimal.Decimal
	)

	// 加载-计算-保存循环：冲突时重新加载最新版本并重算，
	// 计算本身无副作用，重放是安全的
	for attempt := 1; ; attempt++ {
		loaded, err := s.repo.Find(ctx, trade.AccountID, trade.InstrumentID, trade.TradeDate)
		switch {
		case err == nil:
			position = loaded
		case errors.Is(err, domain.ErrNotFound):
			position = domain.NewPosition(trade)
		default:
			return nil, fmt.Errorf("failed to load position: %w", err)
		}

		previousQuantity = position.Quantity
		realizedPnlDelta = position.ApplyTrade(trade)
		quantityChange = position.Quantity.Sub(previousQuantity)

		err = s.repo.Save(ctx, position)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("failed to save position: %w", err)
		}

		if s.metrics != nil {
			s.metrics.SaveConflictsTotal.Inc()
		}
		logger.Warn(ctx, "Position save conflict, retrying",
			"trade_id", trade.TradeID,
			"account_id", trade.AccountID,
			"instrument_id", trade.InstrumentID,
			"attempt", attempt,
		)
		if attempt >= maxSaveAttempts {
			return nil, fmt.Errorf("save conflict after %d attempts: %w", attempt, domain.ErrConflict)
		}
	}

	logger.Info(ctx, "Position updated",
		"position_id", position.ID,
		"trade_id", trade.TradeID,
		"symbol", position.Symbol,
		"quantity", position.Quantity.String(),
	)

	// 提交后的副作用，先缓存后发布，顺序固定
	if err := s.cache.Refresh(ctx, position); err != nil {
		if s.metrics != nil {
			s.metrics.CacheRefreshFailuresTotal.Inc()
		}
		logger.Warn(ctx, "Failed to refresh position cache",
			"position_id", position.ID,
			"error", err,
		)
	}

	event := domain.NewPositionChanged(position, trade, previousQuantity, quantityChange, realizedPnlDelta)
	if err := s.publisher.PublishPositionChanged(ctx, event); err != nil {
		if s.metrics != nil {
			s.metrics.PublishFailuresTotal.Inc()
		}
		logger.Error(ctx, "Failed to publish PositionChanged event",
			"position_id", position.ID,
			"trade_id", trade.TradeID,
			"error", err,
		)
	}

	if s.metrics != nil {
		s.metrics.PositionsUpdatedTotal.Inc()
		s.metrics.PositionCalcDuration.Observe(time.Since(start).Seconds())
	}

	return position, nil
}
