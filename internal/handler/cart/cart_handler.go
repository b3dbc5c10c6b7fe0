// Package cart 提供购物车相关的 HTTP Handler
package cart

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/grocy-backend/internal/common/handler"
	cartService "github.com/dumeirei/grocy-backend/internal/service/cart"
)

// Handler 购物车处理器
type Handler struct {
	cartService *cartService.CartService
}

// NewHandler 创建购物车处理器
func NewHandler(cartSvc *cartService.CartService) *Handler {
	return &Handler{cartService: cartSvc}
}

// GetCart 获取购物车
// @Summary 获取购物车
// @Tags 购物车
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=cartService.CartView}
// @Router /api/v1/cart [get]
func (h *Handler) GetCart(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	cart, err := h.cartService.Get(c.Request.Context(), userID)
	handler.MustSucceed(c, err, cart)
}

// AddItem 添加商品到购物车
// @Summary 添加商品到购物车
// @Description 购物车中已有该商品时累加数量
// @Tags 购物车
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body cartService.AddItemRequest true "请求参数"
// @Success 200 {object} response.Response{data=cartService.CartView}
// @Router /api/v1/cart/items [post]
func (h *Handler) AddItem(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	var req cartService.AddItemRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	cart, err := h.cartService.AddItem(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, cart)
}

// UpdateItem 修改商品数量
// @Summary 修改购物车商品数量
// @Description 数量小于等于 0 时移除该商品
// @Tags 购物车
// @Accept json
// @Produce json
// @Security Bearer
// @Param productId path int true "商品ID"
// @Param request body cartService.UpdateItemRequest true "请求参数"
// @Success 200 {object} response.Response{data=cartService.CartView}
// @Router /api/v1/cart/items/{productId} [put]
func (h *Handler) UpdateItem(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	productID, ok := handler.ParseParamID(c, "productId", "商品")
	if !ok {
		return
	}
	var req cartService.UpdateItemRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	cart, err := h.cartService.UpdateItem(c.Request.Context(), userID, productID, *req.Qty)
	handler.MustSucceed(c, err, cart)
}

// RemoveItem 移除购物车商品
// @Summary 移除购物车商品
// @Tags 购物车
// @Produce json
// @Security Bearer
// @Param productId path int true "商品ID"
// @Success 200 {object} response.Response{data=cartService.CartView}
// @Router /api/v1/cart/items/{productId} [delete]
func (h *Handler) RemoveItem(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	productID, ok := handler.ParseParamID(c, "productId", "商品")
	if !ok {
		return
	}
	cart, err := h.cartService.RemoveItem(c.Request.Context(), userID, productID)
	handler.MustSucceed(c, err, cart)
}

// RegisterRoutes 注册路由（需要用户认证）
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	cart := r.Group("/cart")
	{
		cart.GET("", h.GetCart)
		cart.POST("/items", h.AddItem)
		cart.PUT("/items/:productId", h.UpdateItem)
		cart.DELETE("/items/:productId", h.RemoveItem)
	}
}
