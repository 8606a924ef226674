package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/joyrent/game-rental-backend/internal/common/database"
	"github.com/joyrent/game-rental-backend/internal/models"
)

// OrderRepository 订单仓储
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create 创建订单头，明细通过 CreateItems 单独写入
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return database.Conn(ctx, r.db).Omit(clause.Associations).Create(order).Error
}

// CreateItems 批量写入订单明细
func (r *OrderRepository) CreateItems(ctx context.Context, items []*models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return database.Conn(ctx, r.db).Omit(clause.Associations).Create(&items).Error
}

// GetByID 根据 ID 获取订单
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := database.Conn(ctx, r.db).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByIDForUpdate 加行锁读取订单，需在事务中调用
func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := database.Conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetWithItems 获取订单及明细
func (r *OrderRepository) GetWithItems(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := database.Conn(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetDetail 获取订单详情，包含地址与明细对应的游戏
func (r *OrderRepository) GetDetail(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := database.Conn(ctx, r.db).
		Preload("Address").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Game").
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser 分页获取用户订单，最新的在前
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64, page, pageSize int, status *models.OrderStatus) ([]*models.Order, int64, error) {
	var orders []*models.Order
	var total int64

	query := database.Conn(ctx, r.db).Model(&models.Order{}).Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return orders, 0, nil
	}

	err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Game").
		Scopes(database.OrderByCreatedDesc, database.Paginate(page, pageSize)).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListReceivedByUser 获取用户已收货的订单及明细，最新的在前，最多 limit 条
func (r *OrderRepository) ListReceivedByUser(ctx context.Context, userID int64, limit int) ([]*models.Order, error) {
	var orders []*models.Order
	err := database.Conn(ctx, r.db).
		Where("user_id = ? AND status IN ?", userID, models.ReceivedOrderStatuses).
		Preload("Items").
		Scopes(database.OrderByCreatedDesc).
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// ListExpiredPending 获取创建时间早于 before 的待支付订单 ID，最早的在前
func (r *OrderRepository) ListExpiredPending(ctx context.Context, before time.Time, limit int) ([]int64, error) {
	var ids []int64
	err := database.Conn(ctx, r.db).Model(&models.Order{}).
		Where("status = ? AND created_at < ?", models.OrderStatusPendingPayment, before).
		Order("created_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// TransitionStatus 按状态表迁移订单状态
// 以 from 作为比较条件更新，状态已被他人修改时返回 ErrStatusConflict
func (r *OrderRepository) TransitionStatus(ctx context.Context, id int64, from, to models.OrderStatus, extra map[string]interface{}) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrStatusConflict, from, to)
	}

	fields := make(map[string]interface{}, len(extra)+1)
	for k, v := range extra {
		fields[k] = v
	}
	fields["status"] = to

	result := database.Conn(ctx, r.db).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: order %d is no longer %s", ErrStatusConflict, id, from)
	}
	return nil
}

// CountByStatus 统计用户各状态订单数量
func (r *OrderRepository) CountByStatus(ctx context.Context, userID int64) (map[models.OrderStatus]int64, error) {
	var rows []struct {
		Status models.OrderStatus
		Count  int64
	}
	err := database.Conn(ctx, r.db).Model(&models.Order{}).
		Select("status, COUNT(*) as count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
