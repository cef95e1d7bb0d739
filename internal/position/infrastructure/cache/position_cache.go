// Package cache 提供持仓快照的 Redis 写时刷新实现
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/positionkeeping/internal/position/domain"
	pkgcache "github.com/wyfcoding/positionkeeping/pkg/cache"
)

const (
	positionKeyPrefix = "position:"
	// snapshotTTL 快照过期时间；缓存只是投影，权威数据在数据库
	snapshotTTL = 24 * time.Hour
)

// PositionCache 是 domain.PositionCache 的 Redis 实现
type PositionCache struct {
	redis *pkgcache.RedisCache
}

// NewPositionCache 创建持仓缓存
func NewPositionCache(redis *pkgcache.RedisCache) *PositionCache {
	return &PositionCache{redis: redis}
}

// Refresh 写入最新持仓快照，键为 position:<accountCode>:<symbol>
func (c *PositionCache) Refresh(ctx context.Context, position *domain.Position) error {
	key := fmt.Sprintf("%s%s:%s", positionKeyPrefix, position.AccountCode, position.Symbol)

	snapshot := map[string]string{
		"positionId":  fmt.Sprintf("%d", position.ID),
		"accountCode": position.AccountCode,
		"symbol":      position.Symbol,
		"quantity":    position.Quantity.String(),
		"avgCost":     position.AvgCost.String(),
		"costBasis":   position.CostBasis.String(),
		"currency":    position.Currency,
		"updatedAt":   position.UpdatedAt.Format(time.RFC3339),
	}

	return c.redis.SetJSON(ctx, key, snapshot, snapshotTTL)
}
