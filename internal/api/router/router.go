package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crewboard/backend/config"
	"crewboard/backend/internal/api/handler"
	"crewboard/backend/internal/api/middleware"
	"crewboard/backend/pkg/jwt"
)

// maxBodyBytes 请求体上限（ICS 导入内容可达数 MB）
const maxBodyBytes = 8 << 20

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))
	{
		// 指派命令统一入口
		v1.POST("/commands", h.Command.Dispatch)

		// 指派视图（客户端同步层的权威读）
		assignments := v1.Group("/assignments")
		{
			assignments.GET("", h.Assignment.GetScope)
			assignments.GET("/summary", h.Assignment.GetStaffSummary)
		}

		// 日历占用（协作方推送 / ICS 导入）
		occupancies := v1.Group("/occupancies")
		{
			occupancies.GET("", h.Occupancy.List)
			occupancies.POST("", h.Occupancy.Push)
			occupancies.POST("/import", h.Occupancy.Import)
			occupancies.DELETE("/bookings/:booking_id", h.Occupancy.DropBooking)
		}

		// 变更通知订阅（WebSocket）
		v1.GET("/feed", h.Feed.Subscribe)
	}

	return r
}
