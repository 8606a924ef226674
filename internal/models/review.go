package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// 评价维度取值
const (
	DimNegative int8 = 0 // 差
	DimNeutral  int8 = 1 // 中
	DimPositive int8 = 2 // 好
	DimAbsent   int8 = 3 // 未提及
)

// 情感分析维度
const (
	DimensionLogistics = "logistics"
	DimensionCondition = "condition"
	DimensionService   = "service"
	DimensionPrice     = "price"
	DimensionGameplay  = "gameplay"
	DimensionVisuals   = "visuals"
	DimensionStory     = "story"
	DimensionAudio     = "audio"
)

// Dimensions 全部维度，顺序与表字段一致
var Dimensions = []string{
	DimensionLogistics,
	DimensionCondition,
	DimensionService,
	DimensionPrice,
	DimensionGameplay,
	DimensionVisuals,
	DimensionStory,
	DimensionAudio,
}

// AI 审核结果
const (
	AIJudgeNormal = 0 // 正常
	AIJudgeSpam   = 1 // 垃圾/广告
)

// Review 游戏评价，同一订单同一游戏只能评价一次
type Review struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64           `gorm:"not null;uniqueIndex:uk_review_order_game,priority:1" json:"order_id"`
	GameID    int64           `gorm:"not null;uniqueIndex:uk_review_order_game,priority:2;index:idx_reviews_game_created,priority:1" json:"game_id"`
	UserID    int64           `gorm:"index;not null" json:"user_id"`
	Rating    int             `gorm:"type:smallint;not null" json:"rating"`
	Content   string          `gorm:"type:text;not null" json:"content"`
	AIJudge   int8            `gorm:"column:ai_judge;type:smallint;not null;default:0" json:"ai_judge"`
	AIEmotion JSON            `gorm:"column:ai_emotion;type:jsonb" json:"ai_emotion,omitempty"`
	AIScore   decimal.Decimal `gorm:"column:ai_score;type:decimal(5,4);not null;default:0" json:"ai_score"`
	IsHidden  bool            `gorm:"not null;default:false" json:"is_hidden"`

	DimLogistics int8 `gorm:"type:smallint;not null" json:"dim_logistics"`
	DimCondition int8 `gorm:"type:smallint;not null" json:"dim_condition"`
	DimService   int8 `gorm:"type:smallint;not null" json:"dim_service"`
	DimPrice     int8 `gorm:"type:smallint;not null" json:"dim_price"`
	DimGameplay  int8 `gorm:"type:smallint;not null" json:"dim_gameplay"`
	DimVisuals   int8 `gorm:"type:smallint;not null" json:"dim_visuals"`
	DimStory     int8 `gorm:"type:smallint;not null" json:"dim_story"`
	DimAudio     int8 `gorm:"type:smallint;not null" json:"dim_audio"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_reviews_game_created,priority:2" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Review) TableName() string {
	return "game_reviews"
}

// SetDimension 按维度名写入取值，未知维度忽略
func (r *Review) SetDimension(name string, value int8) {
	switch name {
	case DimensionLogistics:
		r.DimLogistics = value
	case DimensionCondition:
		r.DimCondition = value
	case DimensionService:
		r.DimService = value
	case DimensionPrice:
		r.DimPrice = value
	case DimensionGameplay:
		r.DimGameplay = value
	case DimensionVisuals:
		r.DimVisuals = value
	case DimensionStory:
		r.DimStory = value
	case DimensionAudio:
		r.DimAudio = value
	}
}

// Dimension 按维度名读取取值
func (r *Review) Dimension(name string) int8 {
	switch name {
	case DimensionLogistics:
		return r.DimLogistics
	case DimensionCondition:
		return r.DimCondition
	case DimensionService:
		return r.DimService
	case DimensionPrice:
		return r.DimPrice
	case DimensionGameplay:
		return r.DimGameplay
	case DimensionVisuals:
		return r.DimVisuals
	case DimensionStory:
		return r.DimStory
	case DimensionAudio:
		return r.DimAudio
	}
	return DimAbsent
}

// ResetDimensions 所有维度置为未提及
func (r *Review) ResetDimensions() {
	for _, name := range Dimensions {
		r.SetDimension(name, DimAbsent)
	}
}

// ReviewStats 游戏评价统计
type ReviewStats struct {
	GameID        int64            `json:"game_id"`
	Total         int64            `json:"total"`
	AverageRating decimal.Decimal  `json:"average_rating"`
	Distribution  map[int]int64    `json:"distribution"` // 星级 -> 数量
	Positive      map[string]int64 `json:"positive"`     // 维度 -> 好评数
	Negative      map[string]int64 `json:"negative"`     // 维度 -> 差评数
}
