package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/joyrent/game-rental-backend/internal/common/database"
	"github.com/joyrent/game-rental-backend/internal/models"
)

// AddressRepository 地址仓储，只读
type AddressRepository struct {
	db *gorm.DB
}

// NewAddressRepository 创建地址仓储
func NewAddressRepository(db *gorm.DB) *AddressRepository {
	return &AddressRepository{db: db}
}

// GetByID 根据 ID 获取地址
func (r *AddressRepository) GetByID(ctx context.Context, id int64) (*models.Address, error) {
	var address models.Address
	if err := database.Conn(ctx, r.db).First(&address, id).Error; err != nil {
		return nil, err
	}
	return &address, nil
}
