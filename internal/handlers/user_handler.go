package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/StarterPacks/internal/services"
	logger "github.com/Gopher0727/StarterPacks/middleware/log"
)

type UserHandler struct {
	UserService *services.UserService
	log         *logger.Logger
}

func NewUserHandler(userService *services.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{UserService: userService, log: log}
}

// GetUser 获取用户详情 GET /api/user/:did[?include_deleted=true]
// include_deleted 只控制关联的 pack 是否包含已删除的
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.UserService.GetUser(c.Request.Context(), c.Param("did"), includeDeleted(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
