package rental

import (
	"github.com/gin-gonic/gin"

	"github.com/joyrent/game-rental-backend/internal/common/handler"
	"github.com/joyrent/game-rental-backend/internal/middleware"
	rentalService "github.com/joyrent/game-rental-backend/internal/service/rental"
)

// ReviewHandler 评价处理器
type ReviewHandler struct {
	reviewService *rentalService.ReviewService
}

// NewReviewHandler 创建评价处理器
func NewReviewHandler(reviewSvc *rentalService.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewSvc}
}

// RegisterPublicRoutes 注册无需登录的评价查询路由，auth 为可选认证中间件
func (h *ReviewHandler) RegisterPublicRoutes(r *gin.RouterGroup, auth ...gin.HandlerFunc) {
	games := r.Group("/games/:id/reviews", auth...)
	games.GET("", h.ListByGame)
	games.GET("/stats", h.GetStats)
}

// RegisterRoutes 注册评价提交路由
func (h *ReviewHandler) RegisterRoutes(r *gin.RouterGroup, writeLimit ...gin.HandlerFunc) {
	r.Group("/reviews", writeLimit...).POST("", h.SubmitReview)
}

// SubmitReview 提交评价
// @Summary 提交评价
// @Description 不传 order_id 时自动匹配最近一笔已收货且未评价该游戏的订单
// @Tags 评价
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body rentalService.SubmitReviewRequest true "请求参数"
// @Success 200 {object} response.Response{data=rentalService.SubmitReviewResult}
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/reviews [post]
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req rentalService.SubmitReviewRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.reviewService.SubmitReview(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, result)
}

// ListByGame 游戏评价列表
// @Summary 游戏评价列表
// @Tags 评价
// @Produce json
// @Param id path int true "游戏ID"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Description 携带有效令牌时，本人的评价 mine 为 true
// @Success 200 {object} response.Response{data=response.PageData{list=[]rentalService.ReviewInfo}}
// @Router /api/v1/games/{id}/reviews [get]
func (h *ReviewHandler) ListByGame(c *gin.Context) {
	gameID, ok := handler.ParseID(c, "游戏")
	if !ok {
		return
	}

	p := handler.BindPagination(c)
	viewerID := middleware.GetUserID(c)
	list, total, err := h.reviewService.ListByGame(c.Request.Context(), viewerID, gameID, p.Page, p.PageSize)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// GetStats 游戏评价统计
// @Summary 游戏评价统计
// @Tags 评价
// @Produce json
// @Param id path int true "游戏ID"
// @Success 200 {object} response.Response{data=models.ReviewStats}
// @Router /api/v1/games/{id}/reviews/stats [get]
func (h *ReviewHandler) GetStats(c *gin.Context) {
	gameID, ok := handler.ParseID(c, "游戏")
	if !ok {
		return
	}

	stats, err := h.reviewService.GetStats(c.Request.Context(), gameID)
	handler.MustSucceed(c, err, stats)
}
