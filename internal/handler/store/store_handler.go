// Package store 提供店主管理与 Telegram 机器人回调的 HTTP Handler
package store

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dumeirei/grocy-backend/internal/common/crypto"
	"github.com/dumeirei/grocy-backend/internal/common/errors"
	"github.com/dumeirei/grocy-backend/internal/common/handler"
	"github.com/dumeirei/grocy-backend/internal/common/response"
	storeService "github.com/dumeirei/grocy-backend/internal/service/store"
	"github.com/dumeirei/grocy-backend/pkg/telegram"
)

// SecretTokenHeader Telegram 回调携带的密钥请求头
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// Handler 店主处理器
type Handler struct {
	storeService  *storeService.StoreService
	webhookSecret string
	logger        *zap.Logger
}

// NewHandler 创建店主处理器，webhookSecret 为空时不校验回调密钥
func NewHandler(storeSvc *storeService.StoreService, webhookSecret string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		storeService:  storeSvc,
		webhookSecret: webhookSecret,
		logger:        log,
	}
}

// Create 创建店主
// @Summary 创建店主
// @Description 未指定店铺 ID 时自动生成
// @Tags 店主管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body storeService.CreateOwnerRequest true "请求参数"
// @Success 201 {object} response.Response{data=models.StoreOwner}
// @Router /api/admin/store-owners [post]
func (h *Handler) Create(c *gin.Context) {
	var req storeService.CreateOwnerRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	owner, err := h.storeService.Create(c.Request.Context(), &req)
	handler.MustCreate(c, err, owner)
}

// List 店主列表
// @Summary 店主列表
// @Tags 店主管理
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=[]models.StoreOwner}
// @Router /api/admin/store-owners [get]
func (h *Handler) List(c *gin.Context) {
	owners, err := h.storeService.List(c.Request.Context())
	handler.MustSucceed(c, err, owners)
}

// Delete 删除店主
// @Summary 删除店主
// @Tags 店主管理
// @Produce json
// @Security Bearer
// @Param id path int true "店主ID"
// @Success 200 {object} response.Response
// @Router /api/admin/store-owners/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, ok := handler.ParseID(c, "店主")
	if !ok {
		return
	}
	err := h.storeService.Delete(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "店主已删除", nil)
}

// DeleteAll 删除全部店主
// @Summary 删除全部店主
// @Tags 店主管理
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=map[string]int64}
// @Router /api/admin/store-owners [delete]
func (h *Handler) DeleteAll(c *gin.Context) {
	deleted, err := h.storeService.DeleteAll(c.Request.Context())
	handler.MustSucceed(c, err, gin.H{"deleted": deleted})
}

// LinkQRCode 获取机器人绑定二维码
// @Summary 获取机器人绑定二维码
// @Description 返回 t.me 深度链接及其 PNG data URL
// @Tags 店主管理
// @Produce json
// @Security Bearer
// @Param id path int true "店主ID"
// @Success 200 {object} response.Response{data=storeService.LinkQR}
// @Router /api/admin/store-owners/{id}/qrcode [get]
func (h *Handler) LinkQRCode(c *gin.Context) {
	id, ok := handler.ParseID(c, "店主")
	if !ok {
		return
	}
	qr, err := h.storeService.LinkQRCode(c.Request.Context(), id)
	handler.MustSucceed(c, err, qr)
}

// Webhook Telegram 机器人回调
// @Summary Telegram 机器人回调
// @Description 处理店主绑定对话；处理失败同样返回 200，避免 Telegram 重复投递
// @Tags Telegram
// @Accept json
// @Produce json
// @Param X-Telegram-Bot-Api-Secret-Token header string false "回调密钥"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/telegram/webhook [post]
func (h *Handler) Webhook(c *gin.Context) {
	if h.webhookSecret != "" {
		if !crypto.SecureCompare(c.GetHeader(SecretTokenHeader), h.webhookSecret) {
			handler.HandleError(c, errors.ErrWebhookForbidden)
			return
		}
	}

	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		handler.BadRequest(c, "无效的回调内容")
		return
	}

	if err := h.storeService.HandleUpdate(c.Request.Context(), &update); err != nil {
		h.logger.Warn("Telegram update failed", zap.Int64("update_id", update.UpdateID), zap.Error(err))
	}
	response.OK(c, nil)
}

// RegisterRoutes 注册公开路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/telegram/webhook", h.Webhook)
}

// RegisterAdminRoutes 注册管理后台路由
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	owners := r.Group("/store-owners")
	{
		owners.POST("", h.Create)
		owners.GET("", h.List)
		owners.DELETE("", h.DeleteAll)
		owners.DELETE("/:id", h.Delete)
		owners.GET("/:id/qrcode", h.LinkQRCode)
	}
}
