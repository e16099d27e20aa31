package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	logger "github.com/Gopher0727/StarterPacks/middleware/log"
)

// RequestLogger 为每个请求分配 trace id（沿用合法的 X-Request-ID），
// 写入 request context 与响应头，并在请求结束后输出一行访问日志
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	access := log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()

		traceID := c.GetHeader(logger.TraceIDHeader)
		if !logger.ValidTraceID(traceID) {
			traceID = logger.NewTraceID()
		}
		c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), traceID))
		c.Header(logger.TraceIDHeader, traceID)

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		ctx := c.Request.Context()
		switch status := c.Writer.Status(); {
		case status >= 500:
			access.ErrorContext(ctx, "request failed", fields...)
		case status >= 400:
			access.WarnContext(ctx, "request rejected", fields...)
		default:
			access.InfoContext(ctx, "request served", fields...)
		}
	}
}
