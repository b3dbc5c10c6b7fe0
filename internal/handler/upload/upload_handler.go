// Package upload 提供文件上传相关的 HTTP Handler
package upload

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/grocy-backend/internal/common/handler"
	uploadService "github.com/dumeirei/grocy-backend/internal/service/upload"
)

// Handler 上传处理器
type Handler struct {
	uploadService *uploadService.UploadService
}

// NewHandler 创建上传处理器
func NewHandler(uploadSvc *uploadService.UploadService) *Handler {
	return &Handler{
		uploadService: uploadSvc,
	}
}

// UploadImage 上传图片
// @Summary 上传图片
// @Description 上传商品或分类图片，支持 jpg/jpeg/png/gif/webp 格式，返回可公开访问的 URL
// @Tags 文件上传
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param image formData file true "图片文件"
// @Success 201 {object} response.Response{data=uploadService.UploadImageResponse}
// @Router /api/admin/upload/image [post]
func (h *Handler) UploadImage(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	// 兼容 file 字段名
	file, err := c.FormFile("image")
	if err != nil {
		file, err = c.FormFile("file")
	}
	if err != nil {
		handler.BadRequest(c, "请选择要上传的文件")
		return
	}

	result, err := h.uploadService.UploadFile(c.Request.Context(), file)
	handler.MustCreate(c, err, result)
}

// RegisterAdminRoutes 注册管理后台路由
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.POST("/upload/image", h.UploadImage)
}
