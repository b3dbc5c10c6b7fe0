// Package errors 定义业务错误码和错误处理
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"` // HTTP 状态码
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

// Is 按错误码比较，使 WithMessage/WithError 派生的错误仍能匹配原始定义
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// HTTPStatus 返回对应的 HTTP 状态码
func (e *AppError) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusBadRequest
	}
	return e.Status
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// NewWithStatus 创建带 HTTP 状态码的应用错误
func NewWithStatus(code, status int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Status:  e.Status,
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
		Status:  e.Status,
		Err:     err,
	}
}

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetAppError 获取应用错误，非应用错误统一包装为内部错误
func GetAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrUnknown.WithError(err)
}

// Is 透传标准库 errors.Is
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As 透传标准库 errors.As
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown            = NewWithStatus(1000, http.StatusInternalServerError, "未知错误")
	ErrInvalidParams      = NewWithStatus(1001, http.StatusBadRequest, "参数错误")
	ErrNotFound           = NewWithStatus(1002, http.StatusNotFound, "资源不存在")
	ErrAlreadyExists      = NewWithStatus(1003, http.StatusConflict, "资源已存在")
	ErrDatabaseError      = NewWithStatus(1004, http.StatusInternalServerError, "数据库错误")
	ErrCacheError         = NewWithStatus(1005, http.StatusInternalServerError, "缓存错误")
	ErrInternalError      = NewWithStatus(1006, http.StatusInternalServerError, "内部错误")
	ErrExternalService    = NewWithStatus(1007, http.StatusBadGateway, "外部服务错误")
	ErrRateLimitExceed    = NewWithStatus(1008, http.StatusTooManyRequests, "请求过于频繁")
	ErrOperationFailed    = NewWithStatus(1009, http.StatusInternalServerError, "操作失败")
	ErrResourceNotFound   = NewWithStatus(1010, http.StatusNotFound, "资源不存在")
	ErrValidationFailed   = NewWithStatus(1011, http.StatusUnprocessableEntity, "数据校验失败")
	ErrConflict           = NewWithStatus(1012, http.StatusConflict, "资源冲突")
	ErrPreconditionFailed = NewWithStatus(1013, http.StatusConflict, "前置条件不满足")
	ErrPayloadTooLarge    = NewWithStatus(1014, http.StatusRequestEntityTooLarge, "请求体过大")
)

// 认证错误码 (2000-2999)
var (
	ErrUnauthorized     = NewWithStatus(2000, http.StatusUnauthorized, "未登录")
	ErrTokenExpired     = NewWithStatus(2001, http.StatusUnauthorized, "登录已过期")
	ErrTokenInvalid     = NewWithStatus(2002, http.StatusUnauthorized, "无效的令牌")
	ErrPermissionDenied = NewWithStatus(2004, http.StatusForbidden, "权限不足")
	ErrPasswordError    = NewWithStatus(2007, http.StatusUnauthorized, "密码错误")
)

// 商品目录错误码 (3000-3999)
var (
	ErrCategoryNotFound = NewWithStatus(3000, http.StatusNotFound, "分类不存在")
	ErrProductNotFound  = NewWithStatus(3001, http.StatusNotFound, "商品不存在")
	ErrInvalidPrice     = NewWithStatus(3002, http.StatusBadRequest, "商品价格必须大于 0")
	ErrCategoryInUse    = NewWithStatus(3003, http.StatusConflict, "分类下仍有商品")
	ErrInvalidImage     = NewWithStatus(3004, http.StatusBadRequest, "无效的图片文件")
	ErrUploadFailed     = NewWithStatus(3005, http.StatusBadGateway, "图片上传失败")
)

// 购物车错误码 (4000-4999)
var (
	ErrCartEmpty        = NewWithStatus(4000, http.StatusBadRequest, "购物车为空")
	ErrCartItemNotFound = NewWithStatus(4001, http.StatusNotFound, "购物车中没有该商品")
	ErrInvalidQuantity  = NewWithStatus(4002, http.StatusBadRequest, "商品数量必须大于 0")
)

// 订单错误码 (5000-5999)
var (
	ErrOrderNotFound      = NewWithStatus(5000, http.StatusNotFound, "订单不存在")
	ErrStockInsufficient  = NewWithStatus(5001, http.StatusConflict, "库存不足")
	ErrOrderInProgress    = NewWithStatus(5002, http.StatusConflict, "订单正在处理中，请勿重复提交")
	ErrOrderStatusInvalid = NewWithStatus(5003, http.StatusBadRequest, "无效的订单状态")
	ErrOrderProductGone   = NewWithStatus(5004, http.StatusConflict, "购物车中的商品已下架")
)

// 评价错误码 (6000-6999)
var (
	ErrReviewNotFound      = NewWithStatus(6000, http.StatusNotFound, "评价不存在")
	ErrReviewExists        = NewWithStatus(6001, http.StatusConflict, "您已评价过该商品")
	ErrReviewUnavailable   = NewWithStatus(6002, http.StatusNotFound, "评价不可用")
	ErrPurchaseRequired    = NewWithStatus(6003, http.StatusForbidden, "购买后才能评价")
	ErrInvalidRating       = NewWithStatus(6004, http.StatusUnprocessableEntity, "评分必须在 1 到 5 之间且以 0.5 为步长")
	ErrInvalidVote         = NewWithStatus(6005, http.StatusBadRequest, "无效的投票")
	ErrInvalidReportReason = NewWithStatus(6006, http.StatusBadRequest, "无效的举报原因")
	ErrCommentTooLong      = NewWithStatus(6007, http.StatusUnprocessableEntity, "评论内容过长")
	ErrVoteConflict        = NewWithStatus(6008, http.StatusConflict, "投票冲突，请重试")
	ErrReportNotFound      = NewWithStatus(6009, http.StatusNotFound, "举报不存在")
)

// 店主绑定错误码 (7000-7999)
var (
	ErrStoreOwnerNotFound = NewWithStatus(7000, http.StatusNotFound, "店主不存在")
	ErrStoreOwnerExists   = NewWithStatus(7001, http.StatusConflict, "店铺 ID 已存在")
	ErrBotNotConfigured   = NewWithStatus(7002, http.StatusServiceUnavailable, "机器人未配置")
	ErrWebhookForbidden   = NewWithStatus(7003, http.StatusForbidden, "无效的回调签名")
)
