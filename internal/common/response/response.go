// Package response 定义接口返回体，业务错误统一经由 AppError 写出
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/grocy-backend/internal/common/errors"
	"github.com/dumeirei/grocy-backend/internal/common/utils"
)

// CodeOK 成功响应的业务码
const CodeOK = 0

const messageOK = "success"

// Response 统一返回体
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageData 分页数据
type PageData struct {
	List       interface{} `json:"list"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// NewPageData 构建分页数据
func NewPageData(list interface{}, total int64, page, pageSize int) PageData {
	p := utils.Pagination{Page: page, PageSize: pageSize, Total: total}
	return PageData{
		List:       list,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: p.GetTotalPages(),
	}
}

// OK 200
func OK(c *gin.Context, data interface{}) {
	OKWithMessage(c, messageOK, data)
}

// OKWithMessage 200，附带自定义提示
func OKWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: CodeOK, Message: message, Data: data})
}

// Created 201
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: CodeOK, Message: messageOK, Data: data})
}

// Page 200，data 为 PageData
func Page(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	OK(c, NewPageData(list, total, page, pageSize))
}

// Fail 按 AppError 的状态码与业务码写出错误
func Fail(c *gin.Context, err *errors.AppError) {
	c.JSON(err.HTTPStatus(), body(err))
}

// Abort 写出错误并终止后续处理器，供中间件使用
func Abort(c *gin.Context, err *errors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus(), body(err))
}

func body(err *errors.AppError) Response {
	return Response{Code: err.Code, Message: err.Message}
}
