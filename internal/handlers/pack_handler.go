package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/StarterPacks/internal/services"
	logger "github.com/Gopher0727/StarterPacks/middleware/log"
)

type PackHandler struct {
	PackService *services.PackService
	log         *logger.Logger
}

func NewPackHandler(packService *services.PackService, log *logger.Logger) *PackHandler {
	return &PackHandler{PackService: packService, log: log}
}

// GetPack 获取 pack 详情 GET /api/pack/:rkey[?include_deleted=true]
func (h *PackHandler) GetPack(c *gin.Context) {
	detail, err := h.PackService.GetPack(c.Request.Context(), c.Param("rkey"), includeDeleted(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// GetLabels 批量获取 pack 标签 GET /api/packs?ids=a,b,c
func (h *PackHandler) GetLabels(c *gin.Context) {
	labels, err := h.PackService.Labels(c.Request.Context(), services.ParseIDs(c.Query("ids")))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, labels)
}

// includeDeleted 解析 include_deleted 查询参数，非法值视为 false
func includeDeleted(c *gin.Context) bool {
	v, _ := strconv.ParseBool(c.Query("include_deleted"))
	return v
}
