package middlewares

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	logger "github.com/Gopher0727/StarterPacks/middleware/log"
	"github.com/Gopher0727/StarterPacks/utils/ratelimit"
)

// CostFunc 返回一个请求消耗的配额单位数
type CostFunc func(c *gin.Context) int

// UnitCost 每个请求计 1 个单位
func UnitCost(*gin.Context) int { return 1 }

// RateLimit 按客户端 IP 做固定窗口限流，超出返回 429
// Redis 出错且未开启 fail-open 时返回 503
func RateLimit(limiter ratelimit.Limiter, rule ratelimit.Rule, cost CostFunc, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		d, err := limiter.AllowN(ctx, "ip:"+c.ClientIP(), cost(c), rule)
		if err != nil {
			log.ErrorContext(ctx, "rate limiter unavailable", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "rate limiter unavailable"})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

		if !d.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
