package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/storefront/pkg/config"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/ratelimit"
	"github.com/wyfcoding/storefront/pkg/response"
)

// RateLimitMiddleware 按客户端 IP 限流，超限时以统一响应信封返回 429
func RateLimitMiddleware(limiter ratelimit.RateLimiter, cfg config.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	rule := ratelimit.Limit{Rate: cfg.QPS, Period: time.Second, Burst: cfg.Burst}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		res, err := limiter.Allow(ctx, "ip:"+c.ClientIP(), rule)
		if err != nil {
			// 限流器故障时放行
			logger.Warn(ctx, "Rate limiter unavailable", "error", err)
			c.Next()
			return
		}
		if res.Allowed {
			c.Next()
			return
		}

		seconds := int(math.Ceil(res.RetryAfter.Seconds()))
		c.Header("Retry-After", strconv.Itoa(max(seconds, 1)))
		response.ErrorWithStatus(c, http.StatusTooManyRequests, "too many requests", "retry after "+res.RetryAfter.Round(time.Millisecond).String())
	}
}
