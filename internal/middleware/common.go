package middleware

import (
	"net"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dumeirei/grocy-backend/internal/common/errors"
	"github.com/dumeirei/grocy-backend/internal/common/logger"
	"github.com/dumeirei/grocy-backend/internal/common/response"
)

// HeaderRequestID 请求 ID 头
const HeaderRequestID = "X-Request-ID"

// ContextKeyRequestID 请求 ID 上下文键
const ContextKeyRequestID = "request_id"

// RequestID 沿用客户端传入的请求 ID，缺省时生成 UUID 并回写响应头
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// GetRequestID 获取请求 ID
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}

// Recovery 捕获 panic，记录堆栈后返回 500
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			log.Error("Panic recovered",
				logger.RequestID(GetRequestID(c)),
				logger.Method(c.Request.Method),
				logger.Path(c.Request.URL.Path),
				logger.IP(c.ClientIP()),
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()),
			)
			response.Abort(c, errors.ErrInternalError)
		}()
		c.Next()
	}
}

// SecureHeaders 常用安全响应头
func SecureHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// RealIP 用 X-Real-IP 或 X-Forwarded-For 的首个地址覆盖 RemoteAddr
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := strings.TrimSpace(c.GetHeader("X-Real-IP"))
		if ip == "" {
			first, _, _ := strings.Cut(c.GetHeader("X-Forwarded-For"), ",")
			ip = strings.TrimSpace(first)
		}
		if net.ParseIP(ip) != nil {
			c.Request.RemoteAddr = net.JoinHostPort(ip, "0")
		}
		c.Next()
	}
}

// RequestSizeLimiter 限制请求体大小，声明长度超限时直接返回 413
func RequestSizeLimiter(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			response.Abort(c, errors.ErrPayloadTooLarge)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
