// Package handler 提供 API Handler 的通用辅助函数
// 统一错误处理、认证检查、参数解析等操作
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/joyrent/game-rental-backend/internal/common/errors"
	"github.com/joyrent/game-rental-backend/internal/common/logger"
	"github.com/joyrent/game-rental-backend/internal/common/response"
	"github.com/joyrent/game-rental-backend/internal/common/utils"
	"github.com/joyrent/game-rental-backend/internal/middleware"
)

// HandleError 处理错误并发送适当的响应
// 如果 err 为 nil，返回 false（表示无错误需要处理）
// 如果 err 不为 nil，按错误分类发送响应并返回 true（调用方应该 return）
//
// 使用示例:
//
//	result, err := service.DoSomething()
//	if handler.HandleError(c, err) {
//	    return
//	}
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if !errors.IsAppError(err) {
		logger.Error("未处理的内部错误",
			logger.RequestID(middleware.GetRequestID(c)),
			logger.Err(err),
		)
		response.InternalError(c, "服务器内部错误")
		return true
	}

	appErr := errors.GetAppError(err)
	if appErr.Kind == errors.KindInternal {
		// 内部错误不向调用方暴露底层原因
		logger.Error(appErr.Message,
			logger.RequestID(middleware.GetRequestID(c)),
			logger.Err(appErr),
		)
	}
	response.Error(c, appErr.Kind.HTTPStatus(), appErr.Code, appErr.Message)
	return true
}

// MustSucceed 如果有错误则返回错误响应，否则返回成功响应
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Success(c, data)
}

// MustSucceedPage 分页响应版本
func MustSucceedPage(c *gin.Context, err error, list interface{}, total int64, page, pageSize int) {
	if HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// RequireUserID 获取当前用户ID，如果未登录则返回401响应
//
//	userID, ok := handler.RequireUserID(c)
//	if !ok {
//	    return
//	}
func RequireUserID(c *gin.Context) (int64, bool) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		response.Unauthorized(c, "请先登录")
		return 0, false
	}
	return userID, true
}

// ParseID 解析路径参数 "id" 为 int64
func ParseID(c *gin.Context, resourceName string) (int64, bool) {
	return ParseParamID(c, "id", resourceName)
}

// ParseParamID 解析指定路径参数为正整数 ID
func ParseParamID(c *gin.Context, paramName, resourceName string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "无效的"+resourceName+"ID")
		return 0, false
	}
	return id, true
}

// BindJSON 绑定请求体，失败时返回 400
func BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return false
	}
	return true
}

// BindPagination 从查询参数绑定并规范化分页参数
// 默认 page=1, page_size=10, 最大 page_size=100
func BindPagination(c *gin.Context) utils.Pagination {
	var p utils.Pagination
	p.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	p.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))
	p.Normalize()
	return p
}

// RequireUserAndParseID 组合：检查用户登录 + 解析ID参数
func RequireUserAndParseID(c *gin.Context, resourceName string) (userID, resourceID int64, ok bool) {
	userID, ok = RequireUserID(c)
	if !ok {
		return 0, 0, false
	}
	resourceID, ok = ParseID(c, resourceName)
	if !ok {
		return 0, 0, false
	}
	return userID, resourceID, true
}
