package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/StarterPacks/internal/services"
	logger "github.com/Gopher0727/StarterPacks/middleware/log"
)

type StatsHandler struct {
	StatsService *services.StatsService
	log          *logger.Logger
}

func NewStatsHandler(statsService *services.StatsService, log *logger.Logger) *StatsHandler {
	return &StatsHandler{StatsService: statsService, log: log}
}

// GetStats 获取全库统计 GET /api/stats
func (h *StatsHandler) GetStats(c *gin.Context) {
	stats, err := h.StatsService.GetStats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, stats)
}
