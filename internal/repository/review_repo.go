package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/joyrent/game-rental-backend/internal/common/database"
	"github.com/joyrent/game-rental-backend/internal/models"
)

// ReviewRepository 评价仓储
type ReviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository 创建评价仓储
func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create 写入评价，(order_id, game_id) 重复时返回 gorm.ErrDuplicatedKey
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	return database.Conn(ctx, r.db).Create(review).Error
}

// ExistsByOrderAndGame 订单中的该游戏是否已评价
func (r *ReviewRepository) ExistsByOrderAndGame(ctx context.Context, orderID, gameID int64) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&models.Review{}).
		Where("order_id = ? AND game_id = ?", orderID, gameID).
		Count(&count).Error
	return count > 0, err
}

// ReviewedOrderIDs 返回 orderIDs 中已评价过该游戏的订单集合
func (r *ReviewRepository) ReviewedOrderIDs(ctx context.Context, orderIDs []int64, gameID int64) (map[int64]bool, error) {
	reviewed := make(map[int64]bool)
	if len(orderIDs) == 0 {
		return reviewed, nil
	}

	var ids []int64
	err := database.Conn(ctx, r.db).Model(&models.Review{}).
		Where("order_id IN ? AND game_id = ?", orderIDs, gameID).
		Pluck("order_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		reviewed[id] = true
	}
	return reviewed, nil
}

// ListVisibleByGame 分页获取游戏的可见评价，最新的在前
func (r *ReviewRepository) ListVisibleByGame(ctx context.Context, gameID int64, page, pageSize int) ([]*models.Review, int64, error) {
	var reviews []*models.Review
	var total int64

	query := database.Conn(ctx, r.db).Model(&models.Review{}).
		Where("game_id = ? AND is_hidden = ?", gameID, false)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return reviews, 0, nil
	}

	err := query.
		Scopes(database.OrderByCreatedDesc, database.Paginate(page, pageSize)).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// Stats 统计游戏的可见评价：星级分布与各维度好评差评数
func (r *ReviewRepository) Stats(ctx context.Context, gameID int64) (*models.ReviewStats, error) {
	stats := &models.ReviewStats{
		GameID:        gameID,
		AverageRating: decimal.Zero,
		Distribution:  make(map[int]int64, 5),
		Positive:      make(map[string]int64, len(models.Dimensions)),
		Negative:      make(map[string]int64, len(models.Dimensions)),
	}

	var ratings []struct {
		Rating int
		Count  int64
	}
	err := database.Conn(ctx, r.db).Model(&models.Review{}).
		Select("rating, COUNT(*) as count").
		Where("game_id = ? AND is_hidden = ?", gameID, false).
		Group("rating").
		Scan(&ratings).Error
	if err != nil {
		return nil, err
	}

	var sum int64
	for _, row := range ratings {
		stats.Distribution[row.Rating] = row.Count
		stats.Total += row.Count
		sum += int64(row.Rating) * row.Count
	}
	if stats.Total == 0 {
		return stats, nil
	}
	stats.AverageRating = decimal.NewFromInt(sum).Div(decimal.NewFromInt(stats.Total)).Round(2)

	cols := make([]string, 0, len(models.Dimensions)*2)
	for _, dim := range models.Dimensions {
		cols = append(cols,
			fmt.Sprintf("COALESCE(SUM(CASE WHEN dim_%s = %d THEN 1 ELSE 0 END), 0) AS pos_%s", dim, models.DimPositive, dim),
			fmt.Sprintf("COALESCE(SUM(CASE WHEN dim_%s = %d THEN 1 ELSE 0 END), 0) AS neg_%s", dim, models.DimNegative, dim),
		)
	}

	row := make(map[string]interface{})
	err = database.Conn(ctx, r.db).Model(&models.Review{}).
		Select(strings.Join(cols, ", ")).
		Where("game_id = ? AND is_hidden = ?", gameID, false).
		Take(&row).Error
	if err != nil {
		return nil, err
	}

	for _, dim := range models.Dimensions {
		stats.Positive[dim] = toInt64(row["pos_"+dim])
		stats.Negative[dim] = toInt64(row["neg_"+dim])
	}
	return stats, nil
}

// toInt64 聚合结果在不同驱动下类型不同
func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case []byte:
		d, _ := decimal.NewFromString(string(n))
		return d.IntPart()
	case string:
		d, _ := decimal.NewFromString(n)
		return d.IntPart()
	}
	return 0
}
