// Package catalog 提供分类与商品相关的 HTTP Handler
package catalog

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/grocy-backend/internal/common/handler"
	catalogService "github.com/dumeirei/grocy-backend/internal/service/catalog"
	uploadService "github.com/dumeirei/grocy-backend/internal/service/upload"
)

// Handler 商品目录处理器
type Handler struct {
	categoryService *catalogService.CategoryService
	productService  *catalogService.ProductService
	uploadService   *uploadService.UploadService
}

// NewHandler 创建商品目录处理器，uploadSvc 为 nil 时表单中的图片文件被忽略
func NewHandler(
	categorySvc *catalogService.CategoryService,
	productSvc *catalogService.ProductService,
	uploadSvc *uploadService.UploadService,
) *Handler {
	return &Handler{
		categoryService: categorySvc,
		productService:  productSvc,
		uploadService:   uploadSvc,
	}
}

// ==================== 分类 ====================

// ListCategories 获取分类列表
// @Summary 获取分类列表
// @Tags 商品目录
// @Produce json
// @Success 200 {object} response.Response{data=[]models.Category}
// @Router /api/v1/categories [get]
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.categoryService.List(c.Request.Context())
	handler.MustSucceed(c, err, categories)
}

// GetCategory 获取分类详情
// @Summary 获取分类详情
// @Tags 商品目录
// @Produce json
// @Param id path int true "分类ID"
// @Success 200 {object} response.Response{data=models.Category}
// @Router /api/v1/categories/{id} [get]
func (h *Handler) GetCategory(c *gin.Context) {
	id, ok := handler.ParseID(c, "分类")
	if !ok {
		return
	}
	category, err := h.categoryService.Get(c.Request.Context(), id)
	handler.MustSucceed(c, err, category)
}

// CreateCategory 创建分类
// @Summary 创建分类
// @Description 支持 JSON 或 multipart 表单，表单中的 image 文件会先上传
// @Tags 商品管理
// @Accept json,mpfd
// @Produce json
// @Security Bearer
// @Param request body catalogService.CreateCategoryRequest true "请求参数"
// @Success 201 {object} response.Response{data=models.Category}
// @Router /api/admin/categories [post]
func (h *Handler) CreateCategory(c *gin.Context) {
	var req catalogService.CreateCategoryRequest
	if !handler.Bind(c, &req) {
		return
	}
	if url, ok := h.formImage(c); !ok {
		return
	} else if url != "" {
		req.Image = url
	}

	category, err := h.categoryService.Create(c.Request.Context(), &req)
	handler.MustCreate(c, err, category)
}

// UpdateCategory 更新分类
// @Summary 更新分类
// @Tags 商品管理
// @Accept json,mpfd
// @Produce json
// @Security Bearer
// @Param id path int true "分类ID"
// @Param request body catalogService.UpdateCategoryRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Category}
// @Router /api/admin/categories/{id} [put]
func (h *Handler) UpdateCategory(c *gin.Context) {
	id, ok := handler.ParseID(c, "分类")
	if !ok {
		return
	}
	var req catalogService.UpdateCategoryRequest
	if !handler.Bind(c, &req) {
		return
	}
	if url, ok := h.formImage(c); !ok {
		return
	} else if url != "" {
		req.Image = url
	}

	category, err := h.categoryService.Update(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, category)
}

// DeleteCategory 删除分类
// @Summary 删除分类
// @Tags 商品管理
// @Produce json
// @Security Bearer
// @Param id path int true "分类ID"
// @Success 200 {object} response.Response
// @Router /api/admin/categories/{id} [delete]
func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := handler.ParseID(c, "分类")
	if !ok {
		return
	}
	err := h.categoryService.Delete(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "分类已删除", nil)
}

// ==================== 商品 ====================

// ListProducts 获取商品列表
// @Summary 获取商品列表
// @Tags 商品目录
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param category_id query int false "分类ID"
// @Success 200 {object} response.Response{data=response.PageData{list=[]catalogService.ProductView}}
// @Router /api/v1/products [get]
func (h *Handler) ListProducts(c *gin.Context) {
	categoryID, ok := handler.ParseQueryID(c, "category_id", "分类")
	if !ok {
		return
	}
	p := handler.BindPagination(c)
	list, total, err := h.productService.List(c.Request.Context(), p.Page, p.PageSize, categoryID)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// ListByCategory 获取分类下的商品
// @Summary 获取分类下的商品
// @Tags 商品目录
// @Produce json
// @Param id path int true "分类ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=response.PageData{list=[]catalogService.ProductView}}
// @Router /api/v1/products/category/{id} [get]
func (h *Handler) ListByCategory(c *gin.Context) {
	categoryID, ok := handler.ParseID(c, "分类")
	if !ok {
		return
	}
	p := handler.BindPagination(c)
	list, total, err := h.productService.List(c.Request.Context(), p.Page, p.PageSize, &categoryID)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// ListOffers 获取折扣商品
// @Summary 获取折扣商品
// @Tags 商品目录
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=response.PageData{list=[]catalogService.ProductView}}
// @Router /api/v1/products/offers [get]
func (h *Handler) ListOffers(c *gin.Context) {
	p := handler.BindPagination(c)
	list, total, err := h.productService.Offers(c.Request.Context(), p.Page, p.PageSize)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// Search 搜索商品
// @Summary 搜索商品
// @Tags 商品目录
// @Produce json
// @Param keyword query string false "关键词"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=response.PageData{list=[]catalogService.ProductView}}
// @Router /api/v1/products/search [get]
func (h *Handler) Search(c *gin.Context) {
	keyword := c.Query("keyword")
	if keyword == "" {
		keyword = c.Query("q")
	}
	p := handler.BindPagination(c)
	list, total, err := h.productService.Search(c.Request.Context(), keyword, p.Page, p.PageSize)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// Autocomplete 商品名称联想
// @Summary 商品名称联想
// @Tags 商品目录
// @Produce json
// @Param q query string true "前缀"
// @Param limit query int false "数量" default(5)
// @Success 200 {object} response.Response{data=[]catalogService.AutocompleteItem}
// @Router /api/v1/products/autocomplete [get]
func (h *Handler) Autocomplete(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	items, err := h.productService.Autocomplete(c.Request.Context(), c.Query("q"), limit)
	handler.MustSucceed(c, err, items)
}

// Count 商品总数
// @Summary 商品总数
// @Tags 商品目录
// @Produce json
// @Success 200 {object} response.Response{data=map[string]int64}
// @Router /api/v1/products/count [get]
func (h *Handler) Count(c *gin.Context) {
	count, err := h.productService.Count(c.Request.Context())
	handler.MustSucceed(c, err, gin.H{"count": count})
}

// CountOffers 折扣商品总数
// @Summary 折扣商品总数
// @Tags 商品目录
// @Produce json
// @Success 200 {object} response.Response{data=map[string]int64}
// @Router /api/v1/products/offers/count [get]
func (h *Handler) CountOffers(c *gin.Context) {
	count, err := h.productService.CountOffers(c.Request.Context())
	handler.MustSucceed(c, err, gin.H{"count": count})
}

// GetProduct 获取商品详情
// @Summary 获取商品详情
// @Tags 商品目录
// @Produce json
// @Param id path int true "商品ID"
// @Success 200 {object} response.Response{data=catalogService.ProductView}
// @Router /api/v1/products/{id} [get]
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := handler.ParseID(c, "商品")
	if !ok {
		return
	}
	product, err := h.productService.Get(c.Request.Context(), id)
	handler.MustSucceed(c, err, product)
}

// CreateProduct 创建商品
// @Summary 创建商品
// @Description 支持 JSON 或 multipart 表单，表单中的 image 文件会先上传
// @Tags 商品管理
// @Accept json,mpfd
// @Produce json
// @Security Bearer
// @Param request body catalogService.CreateProductRequest true "请求参数"
// @Success 201 {object} response.Response{data=models.Product}
// @Router /api/admin/products [post]
func (h *Handler) CreateProduct(c *gin.Context) {
	var req catalogService.CreateProductRequest
	if !handler.Bind(c, &req) {
		return
	}
	if url, ok := h.formImage(c); !ok {
		return
	} else if url != "" {
		req.Image = url
	}

	product, err := h.productService.Create(c.Request.Context(), &req)
	handler.MustCreate(c, err, product)
}

// UpdateProduct 更新商品
// @Summary 更新商品
// @Tags 商品管理
// @Accept json,mpfd
// @Produce json
// @Security Bearer
// @Param id path int true "商品ID"
// @Param request body catalogService.UpdateProductRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Product}
// @Router /api/admin/products/{id} [put]
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := handler.ParseID(c, "商品")
	if !ok {
		return
	}
	var req catalogService.UpdateProductRequest
	if !handler.Bind(c, &req) {
		return
	}
	if url, ok := h.formImage(c); !ok {
		return
	} else if url != "" {
		req.Image = &url
	}

	product, err := h.productService.Update(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, product)
}

// DeleteProduct 删除商品
// @Summary 删除商品
// @Tags 商品管理
// @Produce json
// @Security Bearer
// @Param id path int true "商品ID"
// @Success 200 {object} response.Response
// @Router /api/admin/products/{id} [delete]
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := handler.ParseID(c, "商品")
	if !ok {
		return
	}
	err := h.productService.Delete(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "商品已删除", nil)
}

// formImage 上传 multipart 表单中的 image 文件，没有文件时返回空字符串
func (h *Handler) formImage(c *gin.Context) (string, bool) {
	if h.uploadService == nil || c.ContentType() != gin.MIMEMultipartPOSTForm {
		return "", true
	}
	file, err := c.FormFile("image")
	if err != nil {
		if err == http.ErrMissingFile {
			return "", true
		}
		handler.BadRequest(c, "无效的图片文件")
		return "", false
	}
	result, err := h.uploadService.UploadFile(c.Request.Context(), file)
	if handler.HandleError(c, err) {
		return "", false
	}
	return result.URL, true
}

// RegisterRoutes 注册公开路由，searchLimit 作用于搜索与联想接口
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, searchLimit gin.HandlerFunc) {
	if searchLimit == nil {
		searchLimit = func(c *gin.Context) { c.Next() }
	}
	categories := r.Group("/categories")
	{
		categories.GET("", h.ListCategories)
		categories.GET("/:id", h.GetCategory)
	}

	products := r.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.GET("/category/:id", h.ListByCategory)
		products.GET("/offers", h.ListOffers)
		products.GET("/offers/count", h.CountOffers)
		products.GET("/count", h.Count)
		products.GET("/search", searchLimit, h.Search)
		products.GET("/autocomplete", searchLimit, h.Autocomplete)
		products.GET("/:id", h.GetProduct)
	}
}

// RegisterAdminRoutes 注册管理后台路由
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	categories := r.Group("/categories")
	{
		categories.GET("", h.ListCategories)
		categories.POST("", h.CreateCategory)
		categories.PUT("/:id", h.UpdateCategory)
		categories.DELETE("/:id", h.DeleteCategory)
	}

	products := r.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.POST("", h.CreateProduct)
		products.PUT("/:id", h.UpdateProduct)
		products.DELETE("/:id", h.DeleteProduct)
	}
}
