// Package handler 汇集各业务 Handler 共用的错误写出、参数解析与请求绑定
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dumeirei/grocy-backend/internal/common/errors"
	"github.com/dumeirei/grocy-backend/internal/common/logger"
	tracemw "github.com/dumeirei/grocy-backend/internal/common/middleware"
	"github.com/dumeirei/grocy-backend/internal/common/response"
	"github.com/dumeirei/grocy-backend/internal/middleware"
)

// HandleError err 非 nil 时写出错误响应并返回 true，调用方随即 return
//
//	order, err := h.svc.Get(ctx, id)
//	if handler.HandleError(c, err) {
//	    return
//	}
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	appErr := errors.GetAppError(err)
	if appErr.HTTPStatus() >= http.StatusInternalServerError {
		logger.Error("request failed",
			logger.RequestID(middleware.GetRequestID(c)),
			logger.Method(c.Request.Method),
			logger.Path(c.FullPath()),
			zap.String("trace_id", tracemw.GetTraceID(c)),
			logger.Err(err),
		)
	}
	_ = c.Error(err)
	response.Fail(c, appErr)
	return true
}

// MustSucceed 有错误写出错误，否则 200
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if !HandleError(c, err) {
		response.OK(c, data)
	}
}

// MustCreate 有错误写出错误，否则 201
func MustCreate(c *gin.Context, err error, data interface{}) {
	if !HandleError(c, err) {
		response.Created(c, data)
	}
}

// MustSucceedWithMessage 同 MustSucceed，成功时带提示文案
func MustSucceedWithMessage(c *gin.Context, err error, message string, data interface{}) {
	if !HandleError(c, err) {
		response.OKWithMessage(c, message, data)
	}
}

// MustSucceedPage 同 MustSucceed，成功时写出分页数据
func MustSucceedPage(c *gin.Context, err error, list interface{}, total int64, page, pageSize int) {
	if !HandleError(c, err) {
		response.Page(c, list, total, page, pageSize)
	}
}

// BadRequest 以参数错误码写出自定义提示
func BadRequest(c *gin.Context, message string) {
	response.Fail(c, errors.ErrInvalidParams.WithMessage(message))
}

// BindJSON 绑定并校验 JSON 请求体，失败时已写出响应
func BindJSON(c *gin.Context, req interface{}) bool {
	return bindWith(c, c.ShouldBindJSON(req))
}

// BindQuery 绑定并校验查询参数
func BindQuery(c *gin.Context, req interface{}) bool {
	return bindWith(c, c.ShouldBindQuery(req))
}

// Bind 按 Content-Type 绑定 JSON 或 multipart 表单
func Bind(c *gin.Context, req interface{}) bool {
	return bindWith(c, c.ShouldBind(req))
}

func bindWith(c *gin.Context, err error) bool {
	if err != nil {
		HandleError(c, TranslateBindError(err))
		return false
	}
	return true
}

// RequireUserID 取当前登录用户，缺失时写出 401
func RequireUserID(c *gin.Context) (int64, bool) {
	return requireID(c, middleware.GetUserID(c))
}

// RequireAdminID 取当前管理员，非管理员令牌写出 401
func RequireAdminID(c *gin.Context) (int64, bool) {
	return requireID(c, middleware.GetAdminID(c))
}

func requireID(c *gin.Context, id int64) (int64, bool) {
	if id == 0 {
		response.Fail(c, errors.ErrUnauthorized)
		return 0, false
	}
	return id, true
}
