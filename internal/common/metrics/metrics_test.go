package metrics

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

// ==================== 中间件测试 ====================

func TestMiddleware(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	r := gin.New()
	r.Use(m.Middleware("/metrics", "/health"))
	r.GET("/api/v1/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("按路由模板计数", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			require.Equal(t, http.StatusOK, serve(r, "/api/v1/products/"+strconv.Itoa(i+1)).Code)
		}
		assert.Equal(t, 3.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/v1/products/:id", "200")))
		assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
	})

	t.Run("跳过探活路径", func(t *testing.T) {
		serve(r, "/health")
		assert.Equal(t, 0.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/health", "200")))
	})

	t.Run("未匹配路由", func(t *testing.T) {
		serve(r, "/nope")
		assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", unmatchedRoute, "404")))
	})

	t.Run("耗时直方图", func(t *testing.T) {
		assert.Equal(t, 2, testutil.CollectAndCount(m.latency), "商品路由与未匹配路由各一条")
	})
}

// ==================== 业务指标测试 ====================

func TestDomainCounters(t *testing.T) {
	m := New("", prometheus.NewRegistry())

	m.RecordOrder("created")
	m.RecordOrder("created")
	m.RecordOrder("rejected")
	m.RecordNotification("email", "ok")
	m.RecordNotification("telegram", "error")
	m.RecordReviewAction("vote")
	m.RecordStoreLink("linked")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.orders.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orders.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("telegram", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reviewActions.WithLabelValues("vote")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeLinks.WithLabelValues("linked")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordOrder("created")
		m.RecordNotification("sms", "ok")
		m.RecordReviewAction("create")
		m.RecordStoreLink("rejected")
	})

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusNoContent, serve(r, "/x").Code)
}

// ==================== 暴露接口测试 ====================

func TestHandler(t *testing.T) {
	t.Run("自定义注册表", func(t *testing.T) {
		m := New("shop", prometheus.NewRegistry())
		m.RecordOrder("created")

		r := gin.New()
		r.GET("/metrics", m.Handler())
		w := serve(r, "/metrics")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `shop_orders_total{status="created"} 1`)
		assert.NotContains(t, w.Body.String(), "go_goroutines")
	})

	t.Run("默认注册表", func(t *testing.T) {
		var m *Metrics
		r := gin.New()
		r.GET("/metrics", m.Handler())
		w := serve(r, "/metrics")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "go_goroutines")
	})
}
