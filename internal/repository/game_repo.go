package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/joyrent/game-rental-backend/internal/common/database"
	"github.com/joyrent/game-rental-backend/internal/models"
)

// GameRepository 游戏仓储，只读
type GameRepository struct {
	db *gorm.DB
}

// NewGameRepository 创建游戏仓储
func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{db: db}
}

// GetByID 根据 ID 获取游戏
func (r *GameRepository) GetByID(ctx context.Context, id int64) (*models.Game, error) {
	var game models.Game
	if err := database.Conn(ctx, r.db).First(&game, id).Error; err != nil {
		return nil, err
	}
	return &game, nil
}

// GetPriceSnapshot 获取下单用的价格快照，游戏不存在返回 ErrNotFound
func (r *GameRepository) GetPriceSnapshot(ctx context.Context, gameID int64) (*models.PriceSnapshot, error) {
	game, err := r.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return game.Snapshot(), nil
}
