package routers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Gopher0727/StarterPacks/config"
	"github.com/Gopher0727/StarterPacks/internal/handlers"
	"github.com/Gopher0727/StarterPacks/internal/middlewares"
	"github.com/Gopher0727/StarterPacks/internal/repositories"
	"github.com/Gopher0727/StarterPacks/internal/services"
	logger "github.com/Gopher0727/StarterPacks/middleware/log"
	"github.com/Gopher0727/StarterPacks/utils/ratelimit"
)

const healthTimeout = 2 * time.Second

// labelIDsPerUnit /api/packs 每多少个 id 计 1 个限流单位
const labelIDsPerUnit = 25

// Handlers 聚合所有 HTTP handler
type Handlers struct {
	Search *handlers.SearchHandler
	Pack   *handlers.PackHandler
	User   *handlers.UserHandler
	Stats  *handlers.StatsHandler
}

// Deps 是 SetupRoutes 需要的外部依赖；Limiter 为 nil 时不限流
type Deps struct {
	Store   repositories.Pinger
	Limiter ratelimit.Limiter
	Log     *logger.Logger
}

// SetupRoutes 设置所有路由
func SetupRoutes(r *gin.Engine, cfg *config.Config, h *Handlers, deps Deps) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodHead, http.MethodOptions}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", logger.TraceIDHeader}
	corsConfig.ExposeHeaders = []string{logger.TraceIDHeader, "X-RateLimit-Remaining"}
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.Metrics())
	r.Use(middlewares.RequestLogger(deps.Log))

	// 健康检查：ping 文档存储
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()
		if err := deps.Store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(middlewares.MaxConcurrency(cfg.Server.MaxConcurrency))
	if deps.Limiter != nil {
		api.Use(middlewares.RateLimit(deps.Limiter, ratelimit.PerMinute(cfg.RateLimit.PerMinute), requestCost, deps.Log))
	}
	RegisterAPIRoutes(api, h)

	registerStatic(r, cfg.Server.StaticDir)
}

// RegisterAPIRoutes 注册只读 API
func RegisterAPIRoutes(api *gin.RouterGroup, h *Handlers) {
	api.GET("/search", h.Search.Search)    // 搜索 pack / 用户
	api.GET("/pack/:rkey", h.Pack.GetPack) // pack 详情
	api.GET("/packs", h.Pack.GetLabels)    // 批量获取 pack 标签
	api.GET("/user/:did", h.User.GetUser)  // 用户详情
	api.GET("/stats", h.Stats.GetStats)    // 全库统计
}

// requestCost 标签查询按请求的 id 数计费
func requestCost(c *gin.Context) int {
	if c.FullPath() != "/api/packs" {
		return 1
	}
	return 1 + len(services.ParseIDs(c.Query("ids")))/labelIDsPerUnit
}

// registerStatic 托管前端构建产物；目录不存在时跳过。
// 未匹配的非 API 路径回落到 index.html 以支持前端路由
func registerStatic(r *gin.Engine, dir string) {
	if dir == "" {
		return
	}
	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		return
	}
	r.StaticFile("/", index)
	if assets := filepath.Join(dir, "assets"); dirExists(assets) {
		r.Static("/assets", assets)
	}
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, handlers.ErrorResponse{Error: "not found"})
			return
		}
		c.File(index)
	})
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
