package upload

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/grocy-backend/internal/middleware"
	uploadService "github.com/dumeirei/grocy-backend/internal/service/upload"
	"github.com/dumeirei/grocy-backend/internal/testutil"
	"github.com/dumeirei/grocy-backend/pkg/oss"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==================== 图片上传接口测试 ====================

func TestHandler_UploadImage(t *testing.T) {
	mock := oss.NewMockUploader()
	h := NewHandler(uploadService.NewUploadService(mock, 1024, "", nil))

	jwtManager := testutil.NewJWTManager()
	r := gin.New()
	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminAuth(jwtManager))
	h.RegisterAdminRoutes(admin)
	token := testutil.AdminToken(t, jwtManager, 1)

	t.Run("上传成功", func(t *testing.T) {
		w := testutil.DoMultipart(t, r, http.MethodPost, "/api/admin/upload/image", token,
			nil, "image", "photo.png", testutil.PNGData)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp uploadService.UploadImageResponse
		testutil.DecodeResponse(t, w, &resp)
		assert.True(t, strings.HasSuffix(resp.Key, ".png"))
		assert.Equal(t, mock.GetURL(resp.Key), resp.URL)
		_, ok := mock.Get(resp.Key)
		assert.True(t, ok)
	})

	t.Run("兼容 file 字段", func(t *testing.T) {
		w := testutil.DoMultipart(t, r, http.MethodPost, "/api/admin/upload/image", token,
			nil, "file", "photo.png", testutil.PNGData)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("缺少文件", func(t *testing.T) {
		w := testutil.DoMultipart(t, r, http.MethodPost, "/api/admin/upload/image", token,
			map[string]string{"name": "x"}, "", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("格式不支持", func(t *testing.T) {
		w := testutil.DoMultipart(t, r, http.MethodPost, "/api/admin/upload/image", token,
			nil, "image", "notes.txt", []byte("hello"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("文件过大", func(t *testing.T) {
		big := append(append([]byte{}, testutil.PNGData...), make([]byte, 2048)...)
		w := testutil.DoMultipart(t, r, http.MethodPost, "/api/admin/upload/image", token,
			nil, "image", "big.png", big)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("需要管理员", func(t *testing.T) {
		w := testutil.DoMultipart(t, r, http.MethodPost, "/api/admin/upload/image", testutil.UserToken(t, jwtManager, 2),
			nil, "image", "photo.png", testutil.PNGData)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
