// Package settings 提供站点设置相关的 HTTP Handler
package settings

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/grocy-backend/internal/common/handler"
	settingsService "github.com/dumeirei/grocy-backend/internal/service/settings"
)

// Handler 站点设置处理器
type Handler struct {
	settingsService *settingsService.SettingsService
}

// NewHandler 创建站点设置处理器
func NewHandler(settingsSvc *settingsService.SettingsService) *Handler {
	return &Handler{settingsService: settingsSvc}
}

// Get 获取站点设置
// @Summary 获取站点设置
// @Description 首次读取时按默认值创建
// @Tags 站点设置
// @Produce json
// @Success 200 {object} response.Response{data=models.SiteSettings}
// @Router /api/v1/settings [get]
func (h *Handler) Get(c *gin.Context) {
	settings, err := h.settingsService.Get(c.Request.Context())
	handler.MustSucceed(c, err, settings)
}

// Update 更新站点设置
// @Summary 更新站点设置
// @Description 空字符串不会覆盖已有值，举报原因传空数组时恢复默认
// @Tags 站点设置
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body settingsService.UpdateSettingsRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.SiteSettings}
// @Router /api/admin/settings [put]
func (h *Handler) Update(c *gin.Context) {
	var req settingsService.UpdateSettingsRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	settings, err := h.settingsService.Update(c.Request.Context(), &req)
	handler.MustSucceed(c, err, settings)
}

// RegisterRoutes 注册公开路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/settings", h.Get)
}

// RegisterAdminRoutes 注册管理后台路由
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("/settings", h.Get)
	r.PUT("/settings", h.Update)
}
