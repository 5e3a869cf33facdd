package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wardroster/config"
	"wardroster/internal/api/handler"
	"wardroster/internal/api/middleware"
	"wardroster/pkg/jwt"
	"wardroster/pkg/redis"
)

// 请求体大小上限（1 MiB），批量排班请求远小于该值
const maxRequestBodyBytes = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxRequestBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1（全部需要认证）──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb))
	{
		// 排班周期模块
		periods := v1.Group("/periods")
		{
			periods.GET("", h.Period.ListPeriods)
			periods.GET("/active", h.Period.GetActivePeriod)
			periods.GET("/:id", h.Period.GetPeriod)
			periods.POST("", middleware.RoleAuth("head", "admin"), h.Period.CreatePeriod)
			periods.PUT("/:id/open", middleware.RoleAuth("head", "admin"), h.Period.OpenPeriod)
			periods.PUT("/:id/close", middleware.RoleAuth("head", "admin"), h.Period.ClosePeriod)
		}

		// 排班条目模块
		schedules := v1.Group("/schedules")
		{
			schedules.GET("", h.Schedule.ListSchedules)
			schedules.GET("/:id", h.Schedule.GetSchedule)
			schedules.GET("/:id/change-logs", h.Schedule.ListChangeLogs)
			schedules.POST("", middleware.RoleAuth("head", "admin"), h.Schedule.CreateEntries)
		}

		// 调班申请模块
		changeRequests := v1.Group("/change-requests")
		{
			changeRequests.GET("", h.ChangeRequest.ListChangeRequests)
			changeRequests.GET("/:id", h.ChangeRequest.GetChangeRequest)
			changeRequests.POST("", h.ChangeRequest.CreateChangeRequest)
			changeRequests.PUT("/:id/accept", h.ChangeRequest.AcceptChangeRequest)
			changeRequests.PUT("/:id/approve", middleware.RoleAuth("head", "admin"), h.ChangeRequest.ApproveChangeRequest)
			changeRequests.PUT("/:id/reject", middleware.RoleAuth("head", "admin"), h.ChangeRequest.RejectChangeRequest)
			changeRequests.PUT("/:id/cancel", h.ChangeRequest.CancelChangeRequest)
		}
	}

	return r
}
