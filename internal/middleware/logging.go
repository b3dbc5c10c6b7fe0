package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dumeirei/grocy-backend/internal/common/logger"
	tracemw "github.com/dumeirei/grocy-backend/internal/common/middleware"
)

// DefaultSkipPaths 不记录访问日志的探活路径
var DefaultSkipPaths = []string{"/health", "/ping", "/ready", "/metrics"}

// AccessLog 每个请求结束后输出一条访问日志，5xx 为 error，4xx 为 warn
// skipPaths 为空时使用 DefaultSkipPaths
func AccessLog(l *zap.Logger, skipPaths ...string) gin.HandlerFunc {
	if l == nil {
		l = zap.NewNop()
	}
	if len(skipPaths) == 0 {
		skipPaths = DefaultSkipPaths
	}
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if ce := l.Check(accessLevel(status), "HTTP Request"); ce != nil {
			ce.Write(accessFields(c, status, time.Since(start))...)
		}
	}
}

func accessLevel(status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

func accessFields(c *gin.Context, status int, latency time.Duration) []zap.Field {
	fields := []zap.Field{
		logger.RequestID(GetRequestID(c)),
		logger.Method(c.Request.Method),
		logger.Path(c.Request.URL.Path),
		zap.String("route", c.FullPath()),
		logger.StatusCode(status),
		logger.Latency(latency),
		logger.IP(c.ClientIP()),
		zap.Int("bytes", c.Writer.Size()),
	}
	if q := c.Request.URL.RawQuery; q != "" {
		fields = append(fields, zap.String("query", q))
	}
	if ua := c.Request.UserAgent(); ua != "" {
		fields = append(fields, zap.String("user_agent", ua))
	}
	if traceID := tracemw.GetTraceID(c); traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	if id := GetUserID(c); id > 0 {
		if IsAdmin(c) {
			fields = append(fields, logger.AdminID(id))
		} else {
			fields = append(fields, logger.UserID(id))
		}
	}
	if len(c.Errors) > 0 {
		fields = append(fields, zap.String("errors", c.Errors.String()))
	}
	return fields
}
