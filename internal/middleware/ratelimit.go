package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/dumeirei/grocy-backend/internal/common/cache"
	"github.com/dumeirei/grocy-backend/internal/common/errors"
	"github.com/dumeirei/grocy-backend/internal/common/response"
)

// windowCounter 以 Redis 计数实现的固定窗口
type windowCounter struct {
	rdb    redis.Cmdable
	scope  string
	limit  int
	window time.Duration
}

// hit 计入一次请求，返回窗口内累计次数与窗口剩余时间
func (w *windowCounter) hit(ctx context.Context, subject string) (int64, time.Duration, error) {
	key := cache.BuildKey(cache.KeyPrefixRateLimit, w.scope, subject)
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := w.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		ttl = p.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	remaining := ttl.Val()
	if remaining < 0 {
		// 新建的键尚无过期时间
		if err := w.rdb.PExpire(ctx, key, w.window).Err(); err != nil {
			return 0, 0, err
		}
		remaining = w.window
	}
	return incr.Val(), remaining, nil
}

// limiter 按 subject 计数，超限返回 429；Redis 不可用时放行
func limiter(rdb *redis.Client, scope string, limit int, window time.Duration, subject func(*gin.Context) string) gin.HandlerFunc {
	counter := &windowCounter{rdb: rdb, scope: scope, limit: limit, window: window}
	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 {
			c.Next()
			return
		}
		count, ttl, err := counter.hit(c.Request.Context(), subject(c))
		if err != nil {
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		h.Set("X-RateLimit-Remaining", strconv.FormatInt(max(int64(limit)-count, 0), 10))
		if count > int64(limit) {
			h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))
			h.Set("Retry-After", strconv.Itoa(int(ttl.Round(time.Second)/time.Second)))
			response.Abort(c, errors.ErrRateLimitExceed)
			return
		}
		c.Next()
	}
}

// IPRateLimit 按客户端 IP 限流
func IPRateLimit(rdb *redis.Client, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return limiter(rdb, scope, limit, window, func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	})
}

// UserRateLimit 按登录用户限流，须挂在认证之后；未认证时退化为按 IP
func UserRateLimit(rdb *redis.Client, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return limiter(rdb, scope, limit, window, func(c *gin.Context) string {
		if id := GetUserID(c); id > 0 {
			return "user:" + strconv.FormatInt(id, 10)
		}
		return "ip:" + c.ClientIP()
	})
}
