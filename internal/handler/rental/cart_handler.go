package rental

import (
	"github.com/gin-gonic/gin"

	"github.com/joyrent/game-rental-backend/internal/common/handler"
	"github.com/joyrent/game-rental-backend/internal/common/response"
	rentalService "github.com/joyrent/game-rental-backend/internal/service/rental"
)

// CartHandler 购物车处理器
type CartHandler struct {
	cartService *rentalService.CartService
}

// NewCartHandler 创建购物车处理器
func NewCartHandler(cartSvc *rentalService.CartService) *CartHandler {
	return &CartHandler{cartService: cartSvc}
}

// RegisterRoutes 注册购物车路由
func (h *CartHandler) RegisterRoutes(r *gin.RouterGroup) {
	cart := r.Group("/cart")
	{
		cart.GET("", h.GetCart)
		cart.POST("", h.AddItem)
		cart.PUT("/:id", h.UpdateRentDays)
		cart.DELETE("/:id", h.RemoveItem)
		cart.DELETE("", h.Clear)
	}
}

// GetCart 获取购物车
// @Summary 获取购物车
// @Tags 购物车
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=rentalService.CartInfo}
// @Router /api/v1/cart [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	cart, err := h.cartService.GetCart(c.Request.Context(), userID)
	handler.MustSucceed(c, err, cart)
}

// AddItem 加入购物车
// @Summary 加入购物车
// @Tags 购物车
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body rentalService.AddCartItemRequest true "请求参数"
// @Success 200 {object} response.Response{data=rentalService.CartItemInfo}
// @Failure 409 {object} response.Response
// @Router /api/v1/cart [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req rentalService.AddCartItemRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	item, err := h.cartService.AddItem(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, item)
}

// UpdateRentDays 修改租期
// @Summary 修改租期
// @Tags 购物车
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "购物车条目ID"
// @Param request body rentalService.UpdateCartItemRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /api/v1/cart/{id} [put]
func (h *CartHandler) UpdateRentDays(c *gin.Context) {
	userID, itemID, ok := handler.RequireUserAndParseID(c, "购物车条目")
	if !ok {
		return
	}

	var req rentalService.UpdateCartItemRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	err := h.cartService.UpdateRentDays(c.Request.Context(), userID, itemID, req.RentDays)
	handler.MustSucceed(c, err, nil)
}

// RemoveItem 删除购物车条目
// @Summary 删除购物车条目
// @Tags 购物车
// @Produce json
// @Security Bearer
// @Param id path int true "购物车条目ID"
// @Success 200 {object} response.Response
// @Router /api/v1/cart/{id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, itemID, ok := handler.RequireUserAndParseID(c, "购物车条目")
	if !ok {
		return
	}

	err := h.cartService.RemoveItem(c.Request.Context(), userID, itemID)
	handler.MustSucceed(c, err, nil)
}

// Clear 清空购物车
// @Summary 清空购物车
// @Tags 购物车
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response
// @Router /api/v1/cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	n, err := h.cartService.Clear(c.Request.Context(), userID)
	if handler.HandleError(c, err) {
		return
	}
	response.Success(c, gin.H{"removed": n})
}
