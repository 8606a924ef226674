package rental

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/joyrent/game-rental-backend/internal/common/database"
	"github.com/joyrent/game-rental-backend/internal/common/errors"
	"github.com/joyrent/game-rental-backend/internal/common/logger"
	"github.com/joyrent/game-rental-backend/internal/common/metrics"
	"github.com/joyrent/game-rental-backend/internal/common/tracing"
	"github.com/joyrent/game-rental-backend/internal/common/utils"
	"github.com/joyrent/game-rental-backend/internal/models"
	"github.com/joyrent/game-rental-backend/internal/repository"
)

// OrderService 租赁订单服务
type OrderService struct {
	db        *gorm.DB
	orderRepo *repository.OrderRepository
	cartRepo  *repository.CartRepository
	catalog   CatalogLookup
	addresses AddressBook
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewOrderService 创建订单服务，m 为 nil 时不记录指标
func NewOrderService(
	db *gorm.DB,
	orderRepo *repository.OrderRepository,
	cartRepo *repository.CartRepository,
	catalog CatalogLookup,
	addresses AddressBook,
	m *metrics.Metrics,
) *OrderService {
	return &OrderService{
		db:        db,
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		catalog:   catalog,
		addresses: addresses,
		metrics:   m,
		now:       time.Now,
	}
}

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	AddressID   int64   `json:"address_id" binding:"required"`
	CartItemIDs []int64 `json:"cart_item_ids"`
}

// CreateOrderResult 下单结果
type CreateOrderResult struct {
	OrderID      int64              `json:"order_id"`
	Status       models.OrderStatus `json:"status"`
	StatusName   string             `json:"status_name"`
	TotalRentFee decimal.Decimal    `json:"total_rent_fee"`
	TotalDeposit decimal.Decimal    `json:"total_deposit"`
	PayAmount    decimal.Decimal    `json:"pay_amount"`
	ItemCount    int                `json:"item_count"`
}

// PayOrderResult 支付结果
type PayOrderResult struct {
	OrderID    int64              `json:"order_id"`
	Status     models.OrderStatus `json:"status"`
	StatusName string             `json:"status_name"`
	PayAmount  decimal.Decimal    `json:"pay_amount"`
	PayTime    time.Time          `json:"pay_time"`
}

// OrderInfo 订单信息
type OrderInfo struct {
	ID                   int64              `json:"id"`
	Status               models.OrderStatus `json:"status"`
	StatusName           string             `json:"status_name"`
	TotalRentFee         decimal.Decimal    `json:"total_rent_fee"`
	TotalDeposit         decimal.Decimal    `json:"total_deposit"`
	PayAmount            decimal.Decimal    `json:"pay_amount"`
	TrackingNumberSend   string             `json:"tracking_number_send,omitempty"`
	TrackingNumberReturn string             `json:"tracking_number_return,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
	PayTime              *time.Time         `json:"pay_time,omitempty"`
	FinishedTime         *time.Time         `json:"finished_time,omitempty"`
	Address              *AddressInfo       `json:"address,omitempty"`
	Items                []*OrderItemInfo   `json:"items"`
}

// AddressInfo 订单收货地址
type AddressInfo struct {
	ReceiverName  string `json:"receiver_name"`
	ReceiverPhone string `json:"receiver_phone"`
	FullAddress   string `json:"full_address"`
}

// OrderItemInfo 订单明细
type OrderItemInfo struct {
	ID             int64           `json:"id"`
	GameID         int64           `json:"game_id"`
	GameTitle      string          `json:"game_title"`
	CoverURL       string          `json:"cover_url,omitempty"`
	DailyRentPrice decimal.Decimal `json:"daily_rent_price"`
	RentDays       int             `json:"rent_days"`
	SubTotal       decimal.Decimal `json:"sub_total"`
	StartDate      time.Time       `json:"start_date"`
	PlanEndDate    time.Time       `json:"plan_end_date"`
	ActualEndDate  *time.Time      `json:"actual_end_date,omitempty"`
}

// CreateOrder 将选中的购物车条目转换为订单
// 订单头、明细写入与购物车条目删除在同一事务内完成
func (s *OrderService) CreateOrder(ctx context.Context, userID int64, req *CreateOrderRequest) (result *CreateOrderResult, err error) {
	cartIDs := utils.Unique(req.CartItemIDs)

	ctx, span := tracing.StartSpan(ctx, "rental.CreateOrder",
		tracing.WithUserID(userID),
		tracing.WithCartSize(len(cartIDs)),
	)
	defer func() {
		tracing.EndSpan(span, err)
		s.recordOrder(result, err)
	}()

	if err := s.checkAddress(ctx, userID, req.AddressID); err != nil {
		return nil, err
	}
	if len(cartIDs) == 0 {
		return nil, errors.ErrEmptySelection
	}

	order := &models.Order{
		UserID:    userID,
		AddressID: req.AddressID,
		Status:    models.OrderStatusPendingPayment,
	}

	err = database.Transaction(ctx, s.db, func(ctx context.Context) error {
		lines, err := s.cartRepo.ListByIDs(ctx, cartIDs)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if len(lines) == 0 {
			return errors.ErrEmptySelection
		}
		if len(lines) < len(cartIDs) {
			return errors.ErrCartItemNotFound
		}
		for _, line := range lines {
			if line.UserID != userID {
				return errors.ErrOwnershipViolation
			}
		}

		items, deposit, err := s.priceLines(ctx, lines)
		if err != nil {
			return err
		}
		for _, item := range items {
			order.TotalRentFee = order.TotalRentFee.Add(item.SubTotal)
		}
		order.TotalDeposit = deposit
		order.PayAmount = order.TotalRentFee

		if err := s.orderRepo.Create(ctx, order); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		for _, item := range items {
			item.OrderID = order.ID
		}
		if err := s.orderRepo.CreateItems(ctx, items); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		// 删除行数少于读取行数说明并发请求已消费了这些条目
		deleted, err := s.cartRepo.DeleteByIDs(ctx, userID, cartIDs)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if deleted != int64(len(lines)) {
			return errors.ErrEmptySelection.WithMessage("购物车商品已被提交，请刷新后重试")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tracing.AddEvent(ctx, "order.created", tracing.WithOrderID(order.ID))
	return &CreateOrderResult{
		OrderID:      order.ID,
		Status:       order.Status,
		StatusName:   order.Status.String(),
		TotalRentFee: order.TotalRentFee,
		TotalDeposit: order.TotalDeposit,
		PayAmount:    order.PayAmount,
		ItemCount:    len(cartIDs),
	}, nil
}

// checkAddress 地址不存在与不属于当前用户统一视为无效地址
func (s *OrderService) checkAddress(ctx context.Context, userID, addressID int64) error {
	if addressID <= 0 {
		return errors.ErrAddressInvalid
	}
	address, err := s.addresses.GetByID(ctx, addressID)
	if err != nil {
		if repository.IsNotFound(err) {
			return errors.ErrAddressInvalid
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if !address.IsOwnedBy(userID) {
		return errors.ErrAddressInvalid
	}
	return nil
}

// priceLines 按当前价格快照计算每条明细，同时返回押金合计
func (s *OrderService) priceLines(ctx context.Context, lines []*models.CartItem) ([]*models.OrderItem, decimal.Decimal, error) {
	now := s.now()
	items := make([]*models.OrderItem, 0, len(lines))
	deposit := decimal.Zero

	for _, line := range lines {
		if line.RentDays <= 0 {
			return nil, deposit, errors.ErrInvalidParams.WithMessagef("购物车商品 %d 租期无效", line.ID)
		}
		snapshot, err := s.catalog.GetPriceSnapshot(ctx, line.GameID)
		if err != nil && !repository.IsNotFound(err) {
			return nil, deposit, errors.ErrDatabaseError.WithError(err)
		}
		if err != nil || !snapshot.Available {
			return nil, deposit, errors.ErrGameUnavailable.WithMessagef("游戏 %d 不存在或已下架", line.GameID)
		}

		items = append(items, &models.OrderItem{
			GameID:         line.GameID,
			DailyRentPrice: snapshot.DailyRentPrice,
			SubTotal:       snapshot.DailyRentPrice.Mul(decimal.NewFromInt(int64(line.RentDays))),
			RentDays:       line.RentDays,
			StartDate:      now,
			PlanEndDate:    now.AddDate(0, 0, line.RentDays),
		})
		deposit = deposit.Add(snapshot.DepositPrice)
	}
	return items, deposit, nil
}

func (s *OrderService) recordOrder(result *CreateOrderResult, err error) {
	if s.metrics == nil {
		return
	}
	var fee float64
	if result != nil {
		fee = result.TotalRentFee.InexactFloat64()
	}
	s.metrics.RecordOrder(metrics.ResultLabel(err), fee)
}

// PayOrder 模拟支付：待支付 -> 待发货
// 行锁读取与状态比较更新在同一事务内，并发支付只有一个成功
func (s *OrderService) PayOrder(ctx context.Context, userID, orderID int64) (result *PayOrderResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "rental.PayOrder",
		tracing.WithUserID(userID),
		tracing.WithOrderID(orderID),
	)
	defer func() {
		tracing.EndSpan(span, err)
		if s.metrics != nil {
			var amount float64
			if result != nil {
				amount = result.PayAmount.InexactFloat64()
			}
			s.metrics.RecordPayment(metrics.ResultLabel(err), amount)
		}
	}()

	payTime := s.now()
	order, err := s.leavePending(ctx, userID, orderID, models.OrderStatusAwaitingShipment, "支付",
		map[string]interface{}{"pay_time": payTime},
	)
	if err != nil {
		return nil, err
	}

	return &PayOrderResult{
		OrderID:    order.ID,
		Status:     models.OrderStatusAwaitingShipment,
		StatusName: models.OrderStatusAwaitingShipment.String(),
		PayAmount:  order.PayAmount,
		PayTime:    payTime,
	}, nil
}

// CancelOrderResult 取消结果
type CancelOrderResult struct {
	OrderID      int64              `json:"order_id"`
	Status       models.OrderStatus `json:"status"`
	StatusName   string             `json:"status_name"`
	FinishedTime time.Time          `json:"finished_time"`
}

// CancelOrder 用户取消待支付订单
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID int64) (result *CancelOrderResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "rental.CancelOrder",
		tracing.WithUserID(userID),
		tracing.WithOrderID(orderID),
	)
	defer func() { tracing.EndSpan(span, err) }()

	finished := s.now()
	order, err := s.leavePending(ctx, userID, orderID, models.OrderStatusCancelled, "取消",
		map[string]interface{}{"finished_time": finished},
	)
	if err != nil {
		return nil, err
	}

	return &CancelOrderResult{
		OrderID:      order.ID,
		Status:       models.OrderStatusCancelled,
		StatusName:   models.OrderStatusCancelled.String(),
		FinishedTime: finished,
	}, nil
}

// leavePending 在一个事务内锁定订单，校验归属与待支付状态后迁移到 to
func (s *OrderService) leavePending(
	ctx context.Context,
	userID, orderID int64,
	to models.OrderStatus,
	action string,
	extra map[string]interface{},
) (*models.Order, error) {
	var order *models.Order
	err := database.Transaction(ctx, s.db, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			if repository.IsNotFound(err) {
				return errors.ErrOrderNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		if !order.IsOwnedBy(userID) {
			return errors.ErrNotOwner
		}
		if order.Status != models.OrderStatusPendingPayment {
			return errors.ErrOrderStatusInvalid.WithMessagef("订单当前状态为%s，无法%s", order.Status, action)
		}

		err = s.orderRepo.TransitionStatus(ctx, order.ID, models.OrderStatusPendingPayment, to, extra)
		if err != nil {
			if stderrors.Is(err, repository.ErrStatusConflict) {
				return errors.ErrOrderStatusInvalid
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CloseExpiredOrders 关闭创建时间早于 before 的待支付订单，返回关闭数量
// 期间被支付的订单比较更新失败，直接跳过
func (s *OrderService) CloseExpiredOrders(ctx context.Context, before time.Time, limit int) (int, error) {
	ids, err := s.orderRepo.ListExpiredPending(ctx, before, limit)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}

	closed := 0
	for _, id := range ids {
		err := s.orderRepo.TransitionStatus(ctx, id,
			models.OrderStatusPendingPayment, models.OrderStatusCancelled,
			map[string]interface{}{"finished_time": s.now()},
		)
		switch {
		case err == nil:
			closed++
		case stderrors.Is(err, repository.ErrStatusConflict):
		default:
			logger.Warn("关闭超时订单失败", logger.OrderID(id), logger.Err(err))
		}
	}
	return closed, nil
}

// ListMyOrders 分页获取当前用户的订单，最新的在前
func (s *OrderService) ListMyOrders(ctx context.Context, userID int64, page, pageSize int, status *models.OrderStatus) ([]*OrderInfo, int64, error) {
	if status != nil && !status.Valid() {
		return nil, 0, errors.ErrInvalidParams.WithMessage("无效的订单状态")
	}

	orders, total, err := s.orderRepo.ListByUser(ctx, userID, page, pageSize, status)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}

	list := make([]*OrderInfo, 0, len(orders))
	for _, order := range orders {
		list = append(list, toOrderInfo(order))
	}
	return list, total, nil
}

// CountMyOrders 统计当前用户各状态订单数量，没有订单的状态计 0
func (s *OrderService) CountMyOrders(ctx context.Context, userID int64) (map[models.OrderStatus]int64, error) {
	counts, err := s.orderRepo.CountByStatus(ctx, userID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	for _, st := range models.AllOrderStatuses {
		if _, ok := counts[st]; !ok {
			counts[st] = 0
		}
	}
	return counts, nil
}

// GetOrderDetail 获取订单详情
func (s *OrderService) GetOrderDetail(ctx context.Context, userID, orderID int64) (*OrderInfo, error) {
	order, err := s.orderRepo.GetDetail(ctx, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrOrderNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !order.IsOwnedBy(userID) {
		return nil, errors.ErrNotOwner
	}
	return toOrderInfo(order), nil
}

func toOrderInfo(order *models.Order) *OrderInfo {
	info := &OrderInfo{
		ID:                   order.ID,
		Status:               order.Status,
		StatusName:           order.Status.String(),
		TotalRentFee:         order.TotalRentFee,
		TotalDeposit:         order.TotalDeposit,
		PayAmount:            order.PayAmount,
		TrackingNumberSend:   utils.SafeString(order.TrackingNumberSend),
		TrackingNumberReturn: utils.SafeString(order.TrackingNumberReturn),
		CreatedAt:            order.CreatedAt,
		PayTime:              order.PayTime,
		FinishedTime:         order.FinishedTime,
		Items:                make([]*OrderItemInfo, 0, len(order.Items)),
	}

	if order.Address != nil {
		info.Address = &AddressInfo{
			ReceiverName:  order.Address.ReceiverName,
			ReceiverPhone: order.Address.ReceiverPhone,
			FullAddress:   order.Address.FullAddress(),
		}
	}

	for i := range order.Items {
		item := &order.Items[i]
		itemInfo := &OrderItemInfo{
			ID:             item.ID,
			GameID:         item.GameID,
			DailyRentPrice: item.DailyRentPrice,
			RentDays:       item.RentDays,
			SubTotal:       item.SubTotal,
			StartDate:      item.StartDate,
			PlanEndDate:    item.PlanEndDate,
			ActualEndDate:  item.ActualEndDate,
		}
		if item.Game != nil {
			itemInfo.GameTitle = item.Game.Title
			itemInfo.CoverURL = utils.SafeString(item.Game.CoverURL)
		}
		info.Items = append(info.Items, itemInfo)
	}
	return info
}
