// Package review 提供商品评价相关的 HTTP Handler
package review

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/grocy-backend/internal/common/handler"
	"github.com/dumeirei/grocy-backend/internal/common/response"
	reviewService "github.com/dumeirei/grocy-backend/internal/service/review"
)

// Handler 评价处理器
type Handler struct {
	reviewService *reviewService.ReviewService
}

// NewHandler 创建评价处理器
func NewHandler(reviewSvc *reviewService.ReviewService) *Handler {
	return &Handler{reviewService: reviewSvc}
}

// ==================== 公开接口 ====================

// List 获取评价列表
// @Summary 获取评价列表
// @Description 只返回已启用的评价
// @Tags 商品评价
// @Produce json
// @Param product_id query int false "商品ID"
// @Param rating query number false "评分"
// @Param sort query string false "排序" Enums(date, rating, helpful)
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=reviewService.ListResult}
// @Router /api/v1/reviews [get]
func (h *Handler) List(c *gin.Context) {
	var req reviewService.ListRequest
	if !handler.BindQuery(c, &req) {
		return
	}
	result, err := h.reviewService.List(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// AverageRatings 商品平均评分
// @Summary 商品平均评分
// @Tags 评价统计
// @Produce json
// @Param product_id query int false "商品ID"
// @Success 200 {object} response.Response{data=[]repository.ProductRatingStat}
// @Router /api/v1/reviews/stats/average [get]
func (h *Handler) AverageRatings(c *gin.Context) {
	productID, ok := handler.ParseQueryID(c, "product_id", "商品")
	if !ok {
		return
	}
	stats, err := h.reviewService.AverageRatings(c.Request.Context(), productID)
	handler.MustSucceed(c, err, stats)
}

// Distribution 评分分布
// @Summary 评分分布
// @Tags 评价统计
// @Produce json
// @Param product_id query int false "商品ID"
// @Success 200 {object} response.Response{data=[]repository.RatingBucket}
// @Router /api/v1/reviews/stats/distribution [get]
func (h *Handler) Distribution(c *gin.Context) {
	productID, ok := handler.ParseQueryID(c, "product_id", "商品")
	if !ok {
		return
	}
	buckets, err := h.reviewService.Distribution(c.Request.Context(), productID)
	handler.MustSucceed(c, err, buckets)
}

// TopProducts 评价最多的商品
// @Summary 评价最多的商品
// @Tags 评价统计
// @Produce json
// @Param limit query int false "数量" default(10)
// @Success 200 {object} response.Response{data=[]repository.TopProductStat}
// @Router /api/v1/reviews/stats/top-products [get]
func (h *Handler) TopProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	stats, err := h.reviewService.TopProducts(c.Request.Context(), limit)
	handler.MustSucceed(c, err, stats)
}

// Activity 评价趋势
// @Summary 评价趋势
// @Tags 评价统计
// @Produce json
// @Param start_date query string false "开始日期 (YYYY-MM-DD)"
// @Param end_date query string false "结束日期 (YYYY-MM-DD)"
// @Param granularity query string false "粒度" Enums(day, month) default(day)
// @Success 200 {object} response.Response{data=[]repository.ActivityBucket}
// @Router /api/v1/reviews/stats/activity [get]
func (h *Handler) Activity(c *gin.Context) {
	start, end, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}
	buckets, err := h.reviewService.Activity(c.Request.Context(), &reviewService.ActivityRequest{
		Start:       start,
		End:         end,
		Granularity: c.Query("granularity"),
	})
	handler.MustSucceed(c, err, buckets)
}

// ==================== 用户接口 ====================

// Create 发表评价
// @Summary 发表评价
// @Tags 商品评价
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body reviewService.CreateReviewRequest true "请求参数"
// @Success 201 {object} response.Response{data=models.Review}
// @Router /api/v1/reviews [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	var req reviewService.CreateReviewRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	review, err := h.reviewService.Create(c.Request.Context(), userID, &req)
	handler.MustCreate(c, err, review)
}

// Vote 评价投票
// @Summary 评价投票
// @Description 重复相同投票不改变计数，改投时在两个计数间移动一票
// @Tags 商品评价
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "评价ID"
// @Param request body reviewService.VoteRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Review}
// @Router /api/v1/reviews/{id}/vote [post]
func (h *Handler) Vote(c *gin.Context) {
	userID, reviewID, ok := handler.RequireUserAndParseID(c, "评价")
	if !ok {
		return
	}
	var req reviewService.VoteRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	review, err := h.reviewService.Vote(c.Request.Context(), userID, reviewID, req.Value)
	handler.MustSucceed(c, err, review)
}

// Report 举报评价
// @Summary 举报评价
// @Tags 商品评价
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "评价ID"
// @Param request body reviewService.ReportRequest true "请求参数"
// @Success 201 {object} response.Response{data=models.ReviewReport}
// @Router /api/v1/reviews/{id}/report [post]
func (h *Handler) Report(c *gin.Context) {
	userID, reviewID, ok := handler.RequireUserAndParseID(c, "评价")
	if !ok {
		return
	}
	var req reviewService.ReportRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	report, err := h.reviewService.Report(c.Request.Context(), userID, reviewID, &req)
	handler.MustCreate(c, err, report)
}

// ==================== 管理接口 ====================

// Filter 管理端筛选评价
// @Summary 筛选评价
// @Tags 评价管理
// @Produce json
// @Security Bearer
// @Param status query string false "状态" Enums(enabled, disabled)
// @Param min_rating query number false "最低评分"
// @Param max_rating query number false "最高评分"
// @Param product_name query string false "商品名称"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.Review}}
// @Router /api/admin/reviews [get]
func (h *Handler) Filter(c *gin.Context) {
	var req reviewService.FilterRequest
	if !handler.BindQuery(c, &req) {
		return
	}
	p := handler.BindPagination(c)
	req.Page, req.PageSize = p.Page, p.PageSize

	reviews, total, err := h.reviewService.Filter(c.Request.Context(), &req)
	handler.MustSucceedPage(c, err, reviews, total, p.Page, p.PageSize)
}

// Edit 修改评价内容
// @Summary 修改评价内容
// @Tags 评价管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "评价ID"
// @Param request body reviewService.EditRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Review}
// @Router /api/admin/reviews/{id} [put]
func (h *Handler) Edit(c *gin.Context) {
	adminID, reviewID, ok := handler.RequireAdminAndParseID(c, "评价")
	if !ok {
		return
	}
	var req reviewService.EditRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	review, err := h.reviewService.Edit(c.Request.Context(), adminID, reviewID, &req)
	handler.MustSucceed(c, err, review)
}

// Toggle 启用或隐藏评价
// @Summary 启用或隐藏评价
// @Tags 评价管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "评价ID"
// @Param request body reviewService.ToggleRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Review}
// @Router /api/admin/reviews/{id}/toggle [patch]
func (h *Handler) Toggle(c *gin.Context) {
	adminID, reviewID, ok := handler.RequireAdminAndParseID(c, "评价")
	if !ok {
		return
	}
	var req reviewService.ToggleRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	review, err := h.reviewService.Toggle(c.Request.Context(), adminID, reviewID, *req.Enabled, req.Reason)
	handler.MustSucceed(c, err, review)
}

// Reply 回复评价
// @Summary 回复评价
// @Tags 评价管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "评价ID"
// @Param request body reviewService.ReplyRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Review}
// @Router /api/admin/reviews/{id}/reply [post]
func (h *Handler) Reply(c *gin.Context) {
	adminID, reviewID, ok := handler.RequireAdminAndParseID(c, "评价")
	if !ok {
		return
	}
	var req reviewService.ReplyRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	review, err := h.reviewService.Reply(c.Request.Context(), adminID, reviewID, req.Content)
	handler.MustSucceed(c, err, review)
}

// Delete 删除评价
// @Summary 删除评价
// @Description 可在请求体中附带删除原因
// @Tags 评价管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "评价ID"
// @Param request body reviewService.DeleteRequest false "请求参数"
// @Success 200 {object} response.Response
// @Router /api/admin/reviews/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	adminID, reviewID, ok := handler.RequireAdminAndParseID(c, "评价")
	if !ok {
		return
	}
	var req reviewService.DeleteRequest
	if c.Request.ContentLength > 0 && !handler.BindJSON(c, &req) {
		return
	}
	err := h.reviewService.Delete(c.Request.Context(), adminID, reviewID, req.Reason)
	handler.MustSucceedWithMessage(c, err, "评价已删除", nil)
}

// Audits 评价审核记录
// @Summary 评价审核记录
// @Tags 评价管理
// @Produce json
// @Security Bearer
// @Param id path int true "评价ID"
// @Success 200 {object} response.Response{data=[]models.ReviewAudit}
// @Router /api/admin/reviews/{id}/audits [get]
func (h *Handler) Audits(c *gin.Context) {
	reviewID, ok := handler.ParseID(c, "评价")
	if !ok {
		return
	}
	audits, err := h.reviewService.Audits(c.Request.Context(), reviewID)
	handler.MustSucceed(c, err, audits)
}

// Reports 举报列表
// @Summary 举报列表
// @Tags 评价管理
// @Produce json
// @Security Bearer
// @Param status query string false "状态" Enums(open, resolved)
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.ReviewReport}}
// @Router /api/admin/reviews/reports [get]
func (h *Handler) Reports(c *gin.Context) {
	var req reviewService.ReportListRequest
	if !handler.BindQuery(c, &req) {
		return
	}
	p := handler.BindPagination(c)
	req.Page, req.PageSize = p.Page, p.PageSize

	reports, total, err := h.reviewService.Reports(c.Request.Context(), &req)
	handler.MustSucceedPage(c, err, reports, total, p.Page, p.PageSize)
}

// ResolveReport 处理举报
// @Summary 处理举报
// @Tags 评价管理
// @Produce json
// @Security Bearer
// @Param id path int true "举报ID"
// @Success 200 {object} response.Response{data=models.ReviewReport}
// @Router /api/admin/reviews/reports/{id}/resolve [put]
func (h *Handler) ResolveReport(c *gin.Context) {
	adminID, reportID, ok := handler.RequireAdminAndParseID(c, "举报")
	if !ok {
		return
	}
	report, err := h.reviewService.ResolveReport(c.Request.Context(), adminID, reportID)
	if handler.HandleError(c, err) {
		return
	}
	response.OKWithMessage(c, "举报已处理", report)
}

// RegisterRoutes 注册公开路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	reviews := r.Group("/reviews")
	{
		reviews.GET("", h.List)
		reviews.GET("/stats/average", h.AverageRatings)
		reviews.GET("/stats/distribution", h.Distribution)
		reviews.GET("/stats/top-products", h.TopProducts)
		reviews.GET("/stats/activity", h.Activity)
	}
}

// RegisterUserRoutes 注册用户路由
func (h *Handler) RegisterUserRoutes(r *gin.RouterGroup) {
	reviews := r.Group("/reviews")
	{
		reviews.POST("", h.Create)
		reviews.POST("/:id/vote", h.Vote)
		reviews.POST("/:id/report", h.Report)
	}
}

// RegisterAdminRoutes 注册管理后台路由
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	reviews := r.Group("/reviews")
	{
		reviews.GET("", h.Filter)
		reviews.GET("/reports", h.Reports)
		reviews.PUT("/reports/:id/resolve", h.ResolveReport)
		reviews.PUT("/:id", h.Edit)
		reviews.PATCH("/:id/toggle", h.Toggle)
		reviews.POST("/:id/reply", h.Reply)
		reviews.DELETE("/:id", h.Delete)
		reviews.GET("/:id/audits", h.Audits)
	}
}
