package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxConcurrency 最大并发控制中间件
// 用带缓冲的 channel 作为信号量，满了直接返回 503 而不是排队
func MaxConcurrency(maxConcurrent int) gin.HandlerFunc {
	if maxConcurrent <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	sem := make(chan struct{}, maxConcurrent)

	return func(c *gin.Context) {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
			c.Next()
		default:
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "too many concurrent requests",
			})
		}
	}
}
