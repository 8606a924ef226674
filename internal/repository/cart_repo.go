package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/joyrent/game-rental-backend/internal/common/database"
	"github.com/joyrent/game-rental-backend/internal/models"
)

// CartRepository 购物车仓储
type CartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓储
func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

// Create 创建购物车条目，重复的 (user, game) 返回 gorm.ErrDuplicatedKey
func (r *CartRepository) Create(ctx context.Context, item *models.CartItem) error {
	return database.Conn(ctx, r.db).Create(item).Error
}

// GetByID 根据 ID 获取购物车条目
func (r *CartRepository) GetByID(ctx context.Context, id int64) (*models.CartItem, error) {
	var item models.CartItem
	if err := database.Conn(ctx, r.db).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByUser 获取用户购物车，附带游戏信息
func (r *CartRepository) ListByUser(ctx context.Context, userID int64) ([]*models.CartItem, error) {
	var items []*models.CartItem
	err := database.Conn(ctx, r.db).
		Preload("Game").
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&items).Error
	return items, err
}

// ListByIDs 按 ID 批量获取，不校验归属
func (r *CartRepository) ListByIDs(ctx context.Context, ids []int64) ([]*models.CartItem, error) {
	var items []*models.CartItem
	if len(ids) == 0 {
		return items, nil
	}
	err := database.Conn(ctx, r.db).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// UpdateRentDays 修改租期，返回受影响行数
func (r *CartRepository) UpdateRentDays(ctx context.Context, id, userID int64, rentDays int) (int64, error) {
	result := database.Conn(ctx, r.db).Model(&models.CartItem{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("rent_days", rentDays)
	return result.RowsAffected, result.Error
}

// DeleteByIDs 删除用户自己的若干条目，返回实际删除行数
func (r *CartRepository) DeleteByIDs(ctx context.Context, userID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := database.Conn(ctx, r.db).
		Where("id IN ? AND user_id = ?", ids, userID).
		Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}

// ClearByUser 清空用户购物车
func (r *CartRepository) ClearByUser(ctx context.Context, userID int64) (int64, error) {
	result := database.Conn(ctx, r.db).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}

// CountByUser 统计用户购物车条目数
func (r *CartRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&models.CartItem{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
