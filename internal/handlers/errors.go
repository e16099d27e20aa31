package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Gopher0727/StarterPacks/internal/query"
	"github.com/Gopher0727/StarterPacks/internal/services"
	logger "github.com/Gopher0727/StarterPacks/middleware/log"
)

// ErrorResponse 是所有接口统一的错误体
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// respondError 把服务层错误映射为状态码。存储错误带 trace id 记日志，
// 响应只给通用信息，非 release 模式下才附带 details
func respondError(c *gin.Context, log *logger.Logger, err error) {
	var status int
	switch {
	case errors.Is(err, query.ErrInvalidQuery),
		errors.Is(err, query.ErrInvalidType),
		errors.Is(err, services.ErrMissingIDs),
		errors.Is(err, services.ErrTooManyIDs):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrPackNotFound),
		errors.Is(err, services.ErrUserNotFound):
		status = http.StatusNotFound
	default:
		_ = c.Error(err)
		log.ErrorContext(c.Request.Context(), "request failed",
			zap.String("route", c.FullPath()), zap.Error(err))

		resp := ErrorResponse{Error: "internal server error"}
		if gin.Mode() != gin.ReleaseMode {
			resp.Details = err.Error()
		}
		c.JSON(http.StatusInternalServerError, resp)
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}
