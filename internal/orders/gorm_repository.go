package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/arbio/commerce-platform/pkg/models"
)

const orderCacheTTL = 30 * time.Second

var orderSortColumns = map[string]string{
	"created_at":   "created_at",
	"total_amount": "total_amount",
	"status":       "status",
}

// GormRepository implements Repository using GORM with an optional Redis
// read-through cache on single order lookups. Aggregate queries always hit
// the database.
type GormRepository struct {
	db     *gorm.DB
	logger *zap.Logger
	cache  *redis.Client
}

// NewGormRepository creates a GORM-backed order repository. cache may be nil;
// lookups then go straight to the database.
func NewGormRepository(db *gorm.DB, logger *zap.Logger, cache *redis.Client) *GormRepository {
	return &GormRepository{db: db, logger: logger, cache: cache}
}

func orderCacheKey(id uuid.UUID) string {
	return "order:" + id.String()
}

func (r *GormRepository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		r.logger.Error("failed to create order", zap.Error(err), zap.String("order_id", order.ID.String()))
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *GormRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if r.cache != nil {
		if raw, err := r.cache.Get(ctx, orderCacheKey(id)).Bytes(); err == nil {
			var cached models.Order
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	var order models.Order
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if r.cache != nil {
		if raw, err := json.Marshal(&order); err == nil {
			if err := r.cache.Set(ctx, orderCacheKey(id), raw, orderCacheTTL).Err(); err != nil {
				r.logger.Debug("order cache write failed", zap.Error(err))
			}
		}
	}
	return &order, nil
}

func (r *GormRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Order, error) {
	var userOrders []*models.Order
	err := r.db.WithContext(ctx).Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&userOrders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user orders: %w", err)
	}
	return userOrders, nil
}

func (r *GormRepository) List(ctx context.Context, filters Filters) ([]*models.Order, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Preload("User")

	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.StartDate != nil {
		query = query.Where("created_at >= ?", *filters.StartDate)
	}
	if filters.EndDate != nil {
		query = query.Where("created_at <= ?", *filters.EndDate)
	}

	sortBy, ok := orderSortColumns[filters.SortBy]
	if !ok {
		sortBy = "created_at"
	}
	sortOrder := "DESC"
	if filters.SortOrder == "ASC" {
		sortOrder = "ASC"
	}
	query = query.Order(sortBy + " " + sortOrder)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var result []*models.Order
	if err := query.Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return result, nil
}

func (r *GormRepository) Update(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Save(order).Error; err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	r.invalidate(ctx, order.ID)
	return nil
}

func (r *GormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Order{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *GormRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *GormRepository) SumAmountByStatuses(ctx context.Context, statuses []string) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0) as total").
		Where("status IN ?", statuses).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum order amounts: %w", err)
	}
	return row.Total, nil
}

func (r *GormRepository) AverageAmount(ctx context.Context) (decimal.Decimal, error) {
	var row struct {
		Average decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("COALESCE(AVG(total_amount), 0) as average").
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to average order amounts: %w", err)
	}
	return row.Average, nil
}

func (r *GormRepository) invalidate(ctx context.Context, id uuid.UUID) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Del(ctx, orderCacheKey(id)).Err(); err != nil {
		r.logger.Debug("order cache invalidation failed", zap.Error(err))
	}
}
