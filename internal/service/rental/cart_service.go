package rental

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/joyrent/game-rental-backend/internal/common/errors"
	"github.com/joyrent/game-rental-backend/internal/common/utils"
	"github.com/joyrent/game-rental-backend/internal/models"
	"github.com/joyrent/game-rental-backend/internal/repository"
)

// DefaultMaxRentDays 单条购物车租期上限
const DefaultMaxRentDays = 365

// CartService 购物车服务
type CartService struct {
	cartRepo    *repository.CartRepository
	catalog     CatalogLookup
	maxRentDays int
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo *repository.CartRepository, catalog CatalogLookup, maxRentDays int) *CartService {
	if maxRentDays <= 0 {
		maxRentDays = DefaultMaxRentDays
	}
	return &CartService{
		cartRepo:    cartRepo,
		catalog:     catalog,
		maxRentDays: maxRentDays,
	}
}

// AddCartItemRequest 加入购物车请求
type AddCartItemRequest struct {
	GameID   int64 `json:"game_id" binding:"required"`
	RentDays int   `json:"rent_days" binding:"required,min=1"`
}

// UpdateCartItemRequest 修改租期请求
type UpdateCartItemRequest struct {
	RentDays int `json:"rent_days" binding:"required,min=1"`
}

// CartItemInfo 购物车条目信息
type CartItemInfo struct {
	ID             int64           `json:"id"`
	GameID         int64           `json:"game_id"`
	Title          string          `json:"title"`
	Platform       string          `json:"platform,omitempty"`
	CoverURL       string          `json:"cover_url,omitempty"`
	DailyRentPrice decimal.Decimal `json:"daily_rent_price"`
	DepositPrice   decimal.Decimal `json:"deposit_price"`
	RentDays       int             `json:"rent_days"`
	SubTotal       decimal.Decimal `json:"sub_total"`
	Available      bool            `json:"available"`
}

// CartInfo 购物车信息，合计只统计可租的条目
type CartInfo struct {
	Items        []*CartItemInfo `json:"items"`
	TotalCount   int             `json:"total_count"`
	TotalRentFee decimal.Decimal `json:"total_rent_fee"`
	TotalDeposit decimal.Decimal `json:"total_deposit"`
}

// AddItem 加入购物车，同一游戏只能加入一次
func (s *CartService) AddItem(ctx context.Context, userID int64, req *AddCartItemRequest) (*CartItemInfo, error) {
	if err := s.checkRentDays(req.RentDays); err != nil {
		return nil, err
	}

	snapshot, err := s.catalog.GetPriceSnapshot(ctx, req.GameID)
	if err != nil && !repository.IsNotFound(err) {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if err != nil || !snapshot.Available {
		return nil, errors.ErrGameUnavailable
	}

	item := &models.CartItem{
		UserID:   userID,
		GameID:   req.GameID,
		RentDays: req.RentDays,
	}
	if err := s.cartRepo.Create(ctx, item); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, errors.ErrCartItemExists
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	return &CartItemInfo{
		ID:             item.ID,
		GameID:         item.GameID,
		Title:          snapshot.Title,
		DailyRentPrice: snapshot.DailyRentPrice,
		DepositPrice:   snapshot.DepositPrice,
		RentDays:       item.RentDays,
		SubTotal:       snapshot.DailyRentPrice.Mul(decimal.NewFromInt(int64(item.RentDays))),
		Available:      true,
	}, nil
}

// GetCart 获取购物车
func (s *CartService) GetCart(ctx context.Context, userID int64) (*CartInfo, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	cart := &CartInfo{
		Items:        make([]*CartItemInfo, 0, len(items)),
		TotalRentFee: decimal.Zero,
		TotalDeposit: decimal.Zero,
	}
	for _, item := range items {
		info := toCartItemInfo(item)
		cart.Items = append(cart.Items, info)
		if info.Available {
			cart.TotalCount++
			cart.TotalRentFee = cart.TotalRentFee.Add(info.SubTotal)
			cart.TotalDeposit = cart.TotalDeposit.Add(info.DepositPrice)
		}
	}
	return cart, nil
}

// UpdateRentDays 修改租期
func (s *CartService) UpdateRentDays(ctx context.Context, userID, itemID int64, rentDays int) error {
	if err := s.checkRentDays(rentDays); err != nil {
		return err
	}

	affected, err := s.cartRepo.UpdateRentDays(ctx, itemID, userID, rentDays)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if affected == 0 {
		return s.explainMiss(ctx, itemID)
	}
	return nil
}

// RemoveItem 删除购物车条目
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID int64) error {
	affected, err := s.cartRepo.DeleteByIDs(ctx, userID, []int64{itemID})
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if affected == 0 {
		return s.explainMiss(ctx, itemID)
	}
	return nil
}

// Clear 清空购物车，返回删除条数
func (s *CartService) Clear(ctx context.Context, userID int64) (int64, error) {
	n, err := s.cartRepo.ClearByUser(ctx, userID)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	return n, nil
}

func (s *CartService) checkRentDays(days int) error {
	if days < 1 || days > s.maxRentDays {
		return errors.ErrInvalidParams.WithMessagef("租期需在 1-%d 天之间", s.maxRentDays)
	}
	return nil
}

// explainMiss 按用户条件更新/删除未命中时，区分条目不存在与不属于当前用户
func (s *CartService) explainMiss(ctx context.Context, itemID int64) error {
	_, err := s.cartRepo.GetByID(ctx, itemID)
	if err == nil {
		return errors.ErrOwnershipViolation
	}
	if repository.IsNotFound(err) {
		return errors.ErrCartItemNotFound
	}
	return errors.ErrDatabaseError.WithError(err)
}

func toCartItemInfo(item *models.CartItem) *CartItemInfo {
	info := &CartItemInfo{
		ID:       item.ID,
		GameID:   item.GameID,
		RentDays: item.RentDays,
	}
	if item.Game == nil {
		return info
	}
	info.Title = item.Game.Title
	info.Platform = item.Game.Platform
	info.CoverURL = utils.SafeString(item.Game.CoverURL)
	info.DailyRentPrice = item.Game.DailyRentPrice
	info.DepositPrice = item.Game.DepositPrice
	info.SubTotal = item.Game.DailyRentPrice.Mul(decimal.NewFromInt(int64(item.RentDays)))
	info.Available = item.Game.IsAvailable()
	return info
}
