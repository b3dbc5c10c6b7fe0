// Package order 提供订单相关的 HTTP Handler
package order

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dumeirei/grocy-backend/internal/common/handler"
	"github.com/dumeirei/grocy-backend/internal/common/logger"
	"github.com/dumeirei/grocy-backend/internal/common/response"
	"github.com/dumeirei/grocy-backend/internal/middleware"
	"github.com/dumeirei/grocy-backend/internal/service/notify"
	orderService "github.com/dumeirei/grocy-backend/internal/service/order"
)

// IdempotencyKeyHeader 下单幂等键请求头
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLen = 64

// Handler 订单处理器
type Handler struct {
	orderService *orderService.OrderService
	hub          *notify.Hub
	logger       *zap.Logger
}

// NewHandler 创建订单处理器，hub 为 nil 时不提供实时订单推送
func NewHandler(orderSvc *orderService.OrderService, hub *notify.Hub, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		orderService: orderSvc,
		hub:          hub,
		logger:       log,
	}
}

// CreateOrder 创建订单
// @Summary 从购物车创建订单
// @Description 携带相同 Idempotency-Key 重复提交时返回已创建的订单（200）
// @Tags 订单
// @Accept json
// @Produce json
// @Security Bearer
// @Param Idempotency-Key header string false "幂等键"
// @Param request body orderService.CreateOrderRequest true "请求参数"
// @Success 201 {object} response.Response{data=models.Order}
// @Success 200 {object} response.Response{data=models.Order}
// @Failure 409 {object} response.Response
// @Router /api/v1/orders [post]
func (h *Handler) CreateOrder(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	var req orderService.CreateOrderRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLen {
		handler.BadRequest(c, "Idempotency-Key 过长")
		return
	}

	order, replayed, err := h.orderService.CreateOrder(c.Request.Context(), userID, &req, key)
	if handler.HandleError(c, err) {
		return
	}
	if replayed {
		response.OK(c, order)
		return
	}
	response.Created(c, order)
}

// ListMyOrders 获取当前用户的订单
// @Summary 获取我的订单
// @Tags 订单
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=[]models.Order}
// @Router /api/v1/orders [get]
func (h *Handler) ListMyOrders(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	orders, err := h.orderService.ListByUser(c.Request.Context(), userID)
	handler.MustSucceed(c, err, orders)
}

// GetOrder 获取订单详情
// @Summary 获取订单详情
// @Tags 订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/orders/{id} [get]
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}
	order, err := h.orderService.Get(c.Request.Context(), id, middleware.GetUserID(c), middleware.IsAdmin(c))
	handler.MustSucceed(c, err, order)
}

// ListOrders 管理端订单列表
// @Summary 订单列表
// @Tags 订单管理
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param status query string false "订单状态" Enums(pending, confirmed, shipped, delivered, cancelled)
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.Order}}
// @Router /api/admin/orders [get]
func (h *Handler) ListOrders(c *gin.Context) {
	var req orderService.ListRequest
	if !handler.BindQuery(c, &req) {
		return
	}
	p := handler.BindPagination(c)
	req.Page, req.PageSize = p.Page, p.PageSize

	orders, total, err := h.orderService.List(c.Request.Context(), &req)
	handler.MustSucceedPage(c, err, orders, total, p.Page, p.PageSize)
}

// UpdateStatus 修改订单状态
// @Summary 修改订单状态
// @Tags 订单管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Param request body orderService.UpdateStatusRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/admin/orders/{id}/status [put]
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}
	var req orderService.UpdateStatusRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	order, err := h.orderService.UpdateStatus(c.Request.Context(), id, req.Status)
	handler.MustSucceed(c, err, order)
}

// DeleteOrder 删除订单
// @Summary 删除订单
// @Tags 订单管理
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response
// @Router /api/admin/orders/{id} [delete]
func (h *Handler) DeleteOrder(c *gin.Context) {
	id, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}
	err := h.orderService.Delete(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "订单已删除", nil)
}

// Live 实时订单推送
// @Summary 实时订单推送（WebSocket）
// @Description 浏览器无法设置请求头时可通过 token 查询参数传递令牌
// @Tags 订单管理
// @Security Bearer
// @Param token query string false "访问令牌"
// @Success 101
// @Router /api/admin/orders/live [get]
func (h *Handler) Live(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	// 升级失败时 upgrader 已写入响应
	if err := h.hub.ServeWS(c.Writer, c.Request, adminID); err != nil {
		h.logger.Warn("Live feed upgrade failed", logger.AdminID(adminID), zap.Error(err))
	}
}

// RegisterRoutes 注册用户端路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	orders := r.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListMyOrders)
		orders.GET("/:id", h.GetOrder)
	}
}

// RegisterAdminRoutes 注册管理后台路由
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	orders := r.Group("/orders")
	{
		orders.GET("", h.ListOrders)
		if h.hub != nil {
			orders.GET("/live", h.Live)
		}
		orders.GET("/:id", h.GetOrder)
		orders.PUT("/:id/status", h.UpdateStatus)
		orders.DELETE("/:id", h.DeleteOrder)
	}
}
