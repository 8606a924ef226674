// Package rental 提供游戏租赁相关的 HTTP Handler
package rental

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/joyrent/game-rental-backend/internal/common/handler"
	"github.com/joyrent/game-rental-backend/internal/common/response"
	"github.com/joyrent/game-rental-backend/internal/models"
	rentalService "github.com/joyrent/game-rental-backend/internal/service/rental"
)

// OrderHandler 订单处理器
type OrderHandler struct {
	orderService *rentalService.OrderService
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(orderSvc *rentalService.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderSvc}
}

// RegisterRoutes 注册订单路由，writeLimit 作用于下单、支付与取消
func (h *OrderHandler) RegisterRoutes(r *gin.RouterGroup, writeLimit ...gin.HandlerFunc) {
	orders := r.Group("/orders")
	{
		orders.GET("", h.ListMyOrders)
		orders.GET("/count", h.CountMyOrders)
		orders.GET("/:id", h.GetOrderDetail)

		limited := orders.Group("", writeLimit...)
		limited.POST("", h.CreateOrder)
		limited.POST("/:id/pay", h.PayOrder)
		limited.POST("/:id/cancel", h.CancelOrder)
	}
}

// CreateOrder 购物车下单
// @Summary 购物车下单
// @Tags 订单
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body rentalService.CreateOrderRequest true "请求参数"
// @Success 200 {object} response.Response{data=rentalService.CreateOrderResult}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req rentalService.CreateOrderRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.orderService.CreateOrder(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, result)
}

// PayOrder 支付订单
// @Summary 支付订单
// @Tags 订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response{data=rentalService.PayOrderResult}
// @Failure 409 {object} response.Response
// @Router /api/v1/orders/{id}/pay [post]
func (h *OrderHandler) PayOrder(c *gin.Context) {
	userID, orderID, ok := handler.RequireUserAndParseID(c, "订单")
	if !ok {
		return
	}

	result, err := h.orderService.PayOrder(c.Request.Context(), userID, orderID)
	handler.MustSucceed(c, err, result)
}

// CancelOrder 取消订单
// @Summary 取消待支付订单
// @Tags 订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response{data=rentalService.CancelOrderResult}
// @Failure 409 {object} response.Response
// @Router /api/v1/orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, orderID, ok := handler.RequireUserAndParseID(c, "订单")
	if !ok {
		return
	}

	result, err := h.orderService.CancelOrder(c.Request.Context(), userID, orderID)
	handler.MustSucceed(c, err, result)
}

// ListMyOrders 我的订单
// @Summary 我的订单
// @Tags 订单
// @Produce json
// @Security Bearer
// @Param status query int false "订单状态"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData{list=[]rentalService.OrderInfo}}
// @Router /api/v1/orders [get]
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var status *models.OrderStatus
	if raw := c.Query("status"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "无效的订单状态")
			return
		}
		s := models.OrderStatus(v)
		status = &s
	}

	p := handler.BindPagination(c)
	list, total, err := h.orderService.ListMyOrders(c.Request.Context(), userID, p.Page, p.PageSize, status)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// CountMyOrders 各状态订单数量
// @Summary 各状态订单数量
// @Tags 订单
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=map[int]int64}
// @Router /api/v1/orders/count [get]
func (h *OrderHandler) CountMyOrders(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	counts, err := h.orderService.CountMyOrders(c.Request.Context(), userID)
	handler.MustSucceed(c, err, counts)
}

// GetOrderDetail 订单详情
// @Summary 订单详情
// @Tags 订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response{data=rentalService.OrderInfo}
// @Failure 404 {object} response.Response
// @Router /api/v1/orders/{id} [get]
func (h *OrderHandler) GetOrderDetail(c *gin.Context) {
	userID, orderID, ok := handler.RequireUserAndParseID(c, "订单")
	if !ok {
		return
	}

	detail, err := h.orderService.GetOrderDetail(c.Request.Context(), userID, orderID)
	handler.MustSucceed(c, err, detail)
}
