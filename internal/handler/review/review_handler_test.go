package review

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/grocy-backend/internal/common/handler"
	"github.com/dumeirei/grocy-backend/internal/middleware"
	"github.com/dumeirei/grocy-backend/internal/models"
	"github.com/dumeirei/grocy-backend/internal/repository"
	reviewService "github.com/dumeirei/grocy-backend/internal/service/review"
	"github.com/dumeirei/grocy-backend/internal/service/settings"
	"github.com/dumeirei/grocy-backend/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
	handler.RegisterValidators()
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

// ==================== 评价接口测试 ====================

func TestHandler_ReviewLifecycle(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := reviewService.NewReviewService(reviewService.Options{
		DB:          db,
		ReviewRepo:  repository.NewReviewRepository(db),
		VoteRepo:    repository.NewReviewVoteRepository(db),
		ReportRepo:  repository.NewReviewReportRepository(db),
		AuditRepo:   repository.NewReviewAuditRepository(db),
		ProductRepo: repository.NewProductRepository(db),
		OrderRepo:   repository.NewOrderRepository(db),
		Policy:      settings.NewSettingsService(repository.NewSettingsRepository(db), nil),
	})
	h := NewHandler(svc)

	jwtManager := testutil.NewJWTManager()
	r := gin.New()
	public := r.Group("/api/v1")
	h.RegisterRoutes(public)
	user := r.Group("/api/v1")
	user.Use(middleware.UserAuth(jwtManager))
	h.RegisterUserRoutes(user)
	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminAuth(jwtManager))
	h.RegisterAdminRoutes(admin)

	ann := testutil.SeedUser(t, db, "ann")
	ben := testutil.SeedUser(t, db, "ben")
	annToken := testutil.UserToken(t, jwtManager, ann.ID)
	benToken := testutil.UserToken(t, jwtManager, ben.ID)
	adminToken := testutil.AdminToken(t, jwtManager, 7)
	category := testutil.SeedCategory(t, db, "Fruit")
	mango := testutil.SeedProduct(t, db, category.ID, "Mango", "3.00", nil)

	t.Run("非半分评分", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodPost, "/api/v1/reviews", annToken,
			map[string]interface{}{"product_id": mango.ID, "rating": 3.3})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	var review models.Review
	t.Run("发表评价", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodPost, "/api/v1/reviews", annToken,
			map[string]interface{}{"product_id": mango.ID, "rating": 3.5, "comment": "sweet"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		testutil.DecodeResponse(t, w, &review)
		assert.Equal(t, 3.5, review.Rating)
	})

	t.Run("重复评价", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodPost, "/api/v1/reviews", annToken,
			map[string]interface{}{"product_id": mango.ID, "rating": 4})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	votePath := "/api/v1/reviews/" + id(review.ID) + "/vote"
	t.Run("投票与改投", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodPost, votePath, benToken, map[string]string{"value": "helpful"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		w = testutil.DoJSON(t, r, http.MethodPost, votePath, benToken, map[string]string{"value": "not_helpful"})
		require.Equal(t, http.StatusOK, w.Code)

		var voted models.Review
		testutil.DecodeResponse(t, w, &voted)
		assert.Equal(t, 0, voted.HelpfulCount)
		assert.Equal(t, 1, voted.NotHelpfulCount)
	})

	t.Run("无效投票", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodPost, votePath, benToken, map[string]string{"value": "love"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	reportPath := "/api/v1/reviews/" + id(review.ID) + "/report"
	t.Run("举报原因校验", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodPost, reportPath, benToken, map[string]string{"reason": "boring"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = testutil.DoJSON(t, r, http.MethodPost, reportPath, benToken, map[string]string{"reason": "Spam"})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("公开列表与统计", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodGet, "/api/v1/reviews?product_id="+id(mango.ID), "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var result reviewService.ListResult
		testutil.DecodeResponse(t, w, &result)
		assert.Equal(t, int64(1), result.Total)

		w = testutil.DoJSON(t, r, http.MethodGet, "/api/v1/reviews/stats/distribution", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var buckets []repository.RatingBucket
		testutil.DecodeResponse(t, w, &buckets)
		require.Len(t, buckets, 1)
		assert.Equal(t, 3.5, buckets[0].Rating)

		w = testutil.DoJSON(t, r, http.MethodGet, "/api/v1/reviews/stats/top-products", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var top []repository.TopProductStat
		testutil.DecodeResponse(t, w, &top)
		require.Len(t, top, 1)
		assert.Equal(t, "Mango", top[0].ProductName)
	})

	t.Run("趋势参数校验", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodGet, "/api/v1/reviews/stats/activity?granularity=week", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		w = testutil.DoJSON(t, r, http.MethodGet, "/api/v1/reviews/stats/activity?start_date=2026-13-01", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		w = testutil.DoJSON(t, r, http.MethodGet, "/api/v1/reviews/stats/activity?granularity=month", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	adminPath := "/api/admin/reviews/" + id(review.ID)
	t.Run("隐藏后不再公开", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodPatch, adminPath+"/toggle", adminToken,
			map[string]interface{}{"enabled": false, "reason": "spam"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = testutil.DoJSON(t, r, http.MethodGet, "/api/v1/reviews", "", nil)
		var result reviewService.ListResult
		testutil.DecodeResponse(t, w, &result)
		assert.Equal(t, int64(0), result.Total)

		w = testutil.DoJSON(t, r, http.MethodPost, votePath, annToken, map[string]string{"value": "helpful"})
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = testutil.DoJSON(t, r, http.MethodGet, "/api/admin/reviews?status=disabled", adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var page struct {
			Total int64 `json:"total"`
		}
		testutil.DecodeResponse(t, w, &page)
		assert.Equal(t, int64(1), page.Total)
	})

	t.Run("切换缺少开关", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodPatch, adminPath+"/toggle", adminToken, map[string]string{"reason": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("修改与回复", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodPut, adminPath, adminToken, map[string]string{"comment": "sweet mango"})
		require.Equal(t, http.StatusOK, w.Code)

		w = testutil.DoJSON(t, r, http.MethodPost, adminPath+"/reply", adminToken, map[string]string{"content": "Thanks!"})
		require.Equal(t, http.StatusOK, w.Code)
		var replied models.Review
		testutil.DecodeResponse(t, w, &replied)
		require.NotNil(t, replied.AdminReply)
		assert.Equal(t, "Thanks!", replied.AdminReply.Content)
		assert.Equal(t, int64(7), replied.AdminReply.AdminID)
	})

	t.Run("审核记录", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodGet, adminPath+"/audits", adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var audits []models.ReviewAudit
		testutil.DecodeResponse(t, w, &audits)
		assert.Len(t, audits, 3)
	})

	t.Run("处理举报", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodGet, "/api/admin/reviews/reports?status=open", adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var page struct {
			List []models.ReviewReport `json:"list"`
		}
		testutil.DecodeResponse(t, w, &page)
		require.Len(t, page.List, 1)
		assert.Equal(t, "spam", page.List[0].Reason)

		w = testutil.DoJSON(t, r, http.MethodPut, "/api/admin/reviews/reports/"+id(page.List[0].ID)+"/resolve", adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var report models.ReviewReport
		testutil.DecodeResponse(t, w, &report)
		assert.Equal(t, models.ReportStatusResolved, report.Status)
		assert.NotNil(t, report.ResolvedAt)

		w = testutil.DoJSON(t, r, http.MethodPut, "/api/admin/reviews/reports/999/resolve", adminToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("删除", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodDelete, adminPath, adminToken, map[string]string{"reason": "cleanup"})
		require.Equal(t, http.StatusOK, w.Code)
		w = testutil.DoJSON(t, r, http.MethodDelete, adminPath, adminToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		var audits []models.ReviewAudit
		require.NoError(t, db.Where("review_id = ?", review.ID).Order("id").Find(&audits).Error)
		require.Len(t, audits, 4)
		assert.Equal(t, "delete", audits[3].Action)
		assert.Equal(t, "cleanup", audits[3].Reason)
	})
}
