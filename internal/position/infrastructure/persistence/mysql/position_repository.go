// Package mysql 提供了持仓仓储接口的 MySQL GORM 实现。
package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	driver "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/positionkeeping/internal/position/domain"
	"github.com/wyfcoding/positionkeeping/pkg/logger"
	"gorm.io/gorm"
)

// positionRepositoryImpl 是 domain.PositionRepository 接口的 GORM 实现。
type positionRepositoryImpl struct {
	db *gorm.DB
}

// NewPositionRepository 创建持仓仓储实例
func NewPositionRepository(db *gorm.DB) domain.PositionRepository {
	return &positionRepositoryImpl{
		db: db,
	}
}

// Find 实现 domain.PositionRepository.Find
func (r *positionRepositoryImpl) Find(ctx context.Context, accountID, instrumentID int64, asOfDate time.Time) (*domain.Position, error) {
	var model PositionModel
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND instrument_id = ? AND as_of_date = ?", accountID, instrumentID, asOfDate.Format(time.DateOnly)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		logger.Error(ctx, "position_repository.Find failed",
			"account_id", accountID,
			"instrument_id", instrumentID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to find position: %w", err)
	}

	return toDomain(&model), nil
}

// Save 实现 domain.PositionRepository.Save
// ID 为零时插入；否则以 (position_id, version) 做单语句比较交换，
// 零行命中说明有并发写者抢先提交，返回 ErrConflict 且不落库
func (r *positionRepositoryImpl) Save(ctx context.Context, position *domain.Position) error {
	now := time.Now()

	if position.ID == 0 {
		model := fromDomain(position)
		model.Version = 1
		model.CreatedAt = now
		model.UpdatedAt = now

		if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
			// 并发首建同一键时，唯一约束冲突等价于版本冲突：重试方会加载到已插入的行
			var mysqlErr *driver.MySQLError
			if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
				return domain.ErrConflict
			}
			logger.Error(ctx, "position_repository.Save insert failed",
				"account_id", position.AccountID,
				"instrument_id", position.InstrumentID,
				"error", err,
			)
			return fmt.Errorf("failed to insert position: %w", err)
		}

		position.ID = model.ID
		position.Version = model.Version
		position.CreatedAt = model.CreatedAt
		position.UpdatedAt = model.UpdatedAt
		return nil
	}

	result := r.db.WithContext(ctx).Model(&PositionModel{}).
		Where("position_id = ? AND version = ?", position.ID, position.Version).
		Updates(map[string]interface{}{
			"quantity":     position.Quantity,
			"avg_cost":     position.AvgCost,
			"cost_basis":   position.CostBasis,
			"realized_pnl": position.RealizedPnL,
			"version":      gorm.Expr("version + 1"),
			"updated_at":   now,
		})
	if result.Error != nil {
		logger.Error(ctx, "position_repository.Save update failed",
			"position_id", position.ID,
			"error", result.Error,
		)
		return fmt.Errorf("failed to update position: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}

	position.Version++
	position.UpdatedAt = now
	return nil
}

// FindByAccount 实现 domain.PositionRepository.FindByAccount
func (r *positionRepositoryImpl) FindByAccount(ctx context.Context, accountCode string, asOfDate time.Time) ([]*domain.Position, error) {
	var models []PositionModel
	err := r.db.WithContext(ctx).
		Where("account_code = ? AND as_of_date = ?", accountCode, asOfDate.Format(time.DateOnly)).
		Order("symbol").
		Find(&models).Error
	if err != nil {
		logger.Error(ctx, "position_repository.FindByAccount failed",
			"account_code", accountCode,
			"error", err,
		)
		return nil, fmt.Errorf("failed to find positions by account: %w", err)
	}

	positions := make([]*domain.Position, len(models))
	for i, m := range models {
		positions[i] = toDomain(&m)
	}
	return positions, nil
}

// FindByID 实现 domain.PositionRepository.FindByID
func (r *positionRepositoryImpl) FindByID(ctx context.Context, positionID uint64) (*domain.Position, error) {
	var model PositionModel
	err := r.db.WithContext(ctx).
		Where("position_id = ?", positionID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		logger.Error(ctx, "position_repository.FindByID failed", "position_id", positionID, "error", err)
		return nil, fmt.Errorf("failed to find position: %w", err)
	}

	return toDomain(&model), nil
}

// TotalMarketValue 实现 domain.PositionRepository.TotalMarketValue
func (r *positionRepositoryImpl) TotalMarketValue(ctx context.Context, accountCode string, asOfDate time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	row := r.db.WithContext(ctx).Model(&PositionModel{}).
		Select("SUM(market_value)").
		Where("account_code = ? AND as_of_date = ?", accountCode, asOfDate.Format(time.DateOnly)).
		Row()
	if err := row.Scan(&total); err != nil {
		logger.Error(ctx, "position_repository.TotalMarketValue failed",
			"account_code", accountCode,
			"error", err,
		)
		return decimal.Zero, fmt.Errorf("failed to sum market value: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
