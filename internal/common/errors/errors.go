// Package errors 定义业务错误码和错误处理
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind 错误分类，表现层据此映射响应状态
type Kind int

const (
	KindInternal        Kind = iota // 内部错误
	KindValidation                  // 参数不合法
	KindNotFound                    // 资源不存在
	KindAuthorization               // 资源不属于调用方
	KindStateConflict               // 状态前置条件不满足 / 重复提交
	KindContentRejected             // 内容审核拦截
	KindUnauthenticated             // 未登录
)

// String 分类名称
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuthorization:
		return "authorization"
	case KindStateConflict:
		return "state_conflict"
	case KindContentRejected:
		return "content_rejected"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "internal"
	}
}

// HTTPStatus 分类对应的 HTTP 状态码
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthorization:
		return http.StatusForbidden
	case KindStateConflict:
		return http.StatusConflict
	case KindContentRejected:
		return http.StatusUnprocessableEntity
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Kind    Kind   `json:"-"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，使 errors.Is(err, ErrXxx) 对 WithMessage/WithError 派生出的错误同样成立
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewKind 创建带分类的应用错误
func NewKind(kind Kind, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Kind:    kind,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Kind:    e.Kind,
		Err:     e.Err,
	}
}

// WithMessagef 格式化修改错误消息
func (e *AppError) WithMessagef(format string, args ...interface{}) *AppError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Kind:    e.Kind,
		Err:     err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown         = NewKind(KindInternal, 1000, "未知错误")
	ErrInvalidParams   = NewKind(KindValidation, 1001, "参数错误")
	ErrNotFound        = NewKind(KindNotFound, 1002, "资源不存在")
	ErrDatabaseError   = NewKind(KindInternal, 1004, "数据库错误")
	ErrInternalError   = NewKind(KindInternal, 1006, "内部错误")
	ErrRateLimitExceed = NewKind(KindStateConflict, 1008, "请求过于频繁")
)

// 认证错误码 (2000-2999)
var (
	ErrUnauthorized     = NewKind(KindUnauthenticated, 2000, "未登录")
	ErrTokenExpired     = NewKind(KindUnauthenticated, 2001, "登录已过期")
	ErrTokenInvalid     = NewKind(KindUnauthenticated, 2002, "无效的令牌")
	ErrPermissionDenied = NewKind(KindAuthorization, 2004, "权限不足")
)

// 购物车错误码 (3000-3999)
var (
	ErrAddressInvalid     = NewKind(KindValidation, 3001, "收货地址无效")
	ErrEmptySelection     = NewKind(KindValidation, 3002, "请选择租赁商品")
	ErrCartItemNotFound   = NewKind(KindNotFound, 3003, "购物车商品不存在")
	ErrOwnershipViolation = NewKind(KindAuthorization, 3004, "非法操作购物车商品")
	ErrCartItemExists     = NewKind(KindStateConflict, 3005, "该商品已在购物车中")
	ErrGameUnavailable    = NewKind(KindNotFound, 3006, "商品不存在或已下架")
)

// 订单错误码 (5000-5999)
var (
	ErrOrderNotFound      = NewKind(KindNotFound, 5001, "订单不存在")
	ErrNotOwner           = NewKind(KindAuthorization, 5002, "无权操作此订单")
	ErrOrderStatusInvalid = NewKind(KindStateConflict, 5003, "订单状态不正确")
)

// 评价错误码 (6000-6999)
var (
	ErrNoEligibleOrder  = NewKind(KindNotFound, 6001, "您还没有租赁过这款游戏，或已全部评价")
	ErrOrderNotReceived = NewKind(KindStateConflict, 6002, "尚未收到游戏，暂不能评价")
	ErrGameNotInOrder   = NewKind(KindValidation, 6003, "该订单未包含此游戏")
	ErrDuplicateReview  = NewKind(KindStateConflict, 6004, "您已评价过该订单中的这款游戏")
	ErrReviewSubmitting = NewKind(KindStateConflict, 6005, "评价正在提交中，请勿重复提交")
	ErrContentRejected  = NewKind(KindContentRejected, 6006, "评价内容未通过审核")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrUnknown.WithError(err)
}

// KindOf 返回错误分类，非应用错误一律视为内部错误
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
