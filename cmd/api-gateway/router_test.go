package main

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/grocy-backend/internal/common/config"
	"github.com/dumeirei/grocy-backend/internal/models"
	"github.com/dumeirei/grocy-backend/internal/service/notify"
	"github.com/dumeirei/grocy-backend/internal/testutil"
	"github.com/dumeirei/grocy-backend/pkg/oss"
	"github.com/dumeirei/grocy-backend/pkg/sms"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type gateway struct {
	router     *gin.Engine
	db         *gorm.DB
	svcs       *services
	sms        *sms.MockSender
	user       *models.User
	userToken  string
	adminToken string
}

func newGateway(t *testing.T) *gateway {
	cfg := *config.Get()
	cfg.JWT.Secret = testutil.JWTSecret
	cfg.JWT.Issuer = "grocy-test"
	cfg.Metrics.Enabled = false

	db := testutil.NewTestDB(t)
	_, rdb := testutil.NewTestRedis(t)
	smsSender := sms.NewMockSender()

	deps := &dependencies{
		cfg:      &cfg,
		log:      zap.NewNop(),
		db:       db,
		rdb:      rdb,
		uploader: oss.NewMockUploader(),
	}
	svcs := buildServices(deps, []notify.Channel{notify.NewSMSChannel(smsSender, "SMS_ORDER", []string{"13800000000"})})
	t.Cleanup(svcs.dispatcher.Wait)

	r := gin.New()
	setupRouter(r, deps, svcs)

	jwtManager := testutil.NewJWTManager()
	user := testutil.SeedUser(t, db, "alice")
	return &gateway{
		router:     r,
		db:         db,
		svcs:       svcs,
		sms:        smsSender,
		user:       user,
		userToken:  testutil.UserToken(t, jwtManager, user.ID),
		adminToken: testutil.AdminToken(t, jwtManager, 1),
	}
}

// ==================== 系统接口测试 ====================

func TestRouter_Ops(t *testing.T) {
	g := newGateway(t)

	t.Run("存活检查", func(t *testing.T) {
		w := testutil.DoJSON(t, g.router, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"ok"`)
	})

	t.Run("Ping", func(t *testing.T) {
		w := testutil.DoJSON(t, g.router, http.MethodGet, "/ping", "", nil)
		assert.Equal(t, "pong", w.Body.String())
	})

	t.Run("就绪检查", func(t *testing.T) {
		w := testutil.DoJSON(t, g.router, http.MethodGet, "/ready", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"database":"ok"`)
		assert.Contains(t, w.Body.String(), `"redis":"ok"`)
	})

	t.Run("未知路由", func(t *testing.T) {
		w := testutil.DoJSON(t, g.router, http.MethodGet, "/api/v1/nope", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Swagger 文档", func(t *testing.T) {
		w := testutil.DoJSON(t, g.router, http.MethodGet, "/swagger/doc.json", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Grocy Backend API")
	})

	t.Run("请求ID回写", func(t *testing.T) {
		w := testutil.DoJSON(t, g.router, http.MethodGet, "/ping", "", nil)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	})
}

// ==================== 路由鉴权测试 ====================

func TestRouter_AuthGroups(t *testing.T) {
	g := newGateway(t)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"公开设置", http.MethodGet, "/api/v1/settings", "", http.StatusOK},
		{"公开分类", http.MethodGet, "/api/v1/categories", "", http.StatusOK},
		{"公开评价统计", http.MethodGet, "/api/v1/reviews/stats/average", "", http.StatusOK},
		{"购物车需登录", http.MethodGet, "/api/v1/cart", "", http.StatusUnauthorized},
		{"购物车", http.MethodGet, "/api/v1/cart", g.userToken, http.StatusOK},
		{"管理接口拒绝用户", http.MethodGet, "/api/admin/settings", g.userToken, http.StatusForbidden},
		{"管理接口", http.MethodGet, "/api/admin/settings", g.adminToken, http.StatusOK},
		{"店主列表", http.MethodGet, "/api/admin/store-owners", g.adminToken, http.StatusOK},
		{"未启用实时推送", http.MethodGet, "/api/admin/orders/live", g.adminToken, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.DoJSON(t, g.router, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

// ==================== 下单链路测试 ====================

func TestRouter_CheckoutFlow(t *testing.T) {
	g := newGateway(t)
	category := testutil.SeedCategory(t, g.db, "Pantry")
	product := testutil.SeedProduct(t, g.db, category.ID, "Rice", "3.00", testutil.IntPtr(5))

	w := testutil.DoJSON(t, g.router, http.MethodPost, "/api/v1/cart/items", g.userToken,
		map[string]interface{}{"product_id": product.ID, "qty": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = testutil.DoJSON(t, g.router, http.MethodPost, "/api/v1/orders", g.userToken,
		map[string]string{"address": "1 Main Street", "phone": "555-0100"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order models.Order
	testutil.DecodeResponse(t, w, &order)
	assert.True(t, decimal.NewFromInt(6).Equal(order.Total), order.Total.String())

	g.svcs.dispatcher.Wait()
	require.Len(t, g.sms.Messages(), 1)

	var stock int
	require.NoError(t, g.db.Model(&models.Product{}).Select("stock").Where("id = ?", product.ID).Scan(&stock).Error)
	assert.Equal(t, 3, stock)

	w = testutil.DoJSON(t, g.router, http.MethodGet, "/api/admin/orders", g.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Total int64 `json:"total"`
	}
	testutil.DecodeResponse(t, w, &page)
	assert.Equal(t, int64(1), page.Total)
}
