package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/StarterPacks/internal/services"
	logger "github.com/Gopher0727/StarterPacks/middleware/log"
)

type SearchHandler struct {
	SearchService *services.SearchService
	log           *logger.Logger
}

func NewSearchHandler(searchService *services.SearchService, log *logger.Logger) *SearchHandler {
	return &SearchHandler{SearchService: searchService, log: log}
}

// Search 搜索 pack 或用户 GET /api/search?q=&type=&page=&sortBy=&sortOrder=
// page 无法解析或 <= 0 时按第 1 页处理
func (h *SearchHandler) Search(c *gin.Context) {
	var req services.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query parameters"})
		return
	}
	req.Page, _ = strconv.Atoi(c.Query("page"))

	resp, err := h.SearchService.Search(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
