package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/escrow-arbitration/internal/config"
	"github.com/ignatzorin/escrow-arbitration/internal/http/handlers"
	"github.com/ignatzorin/escrow-arbitration/internal/http/middleware"
	"github.com/ignatzorin/escrow-arbitration/internal/models"
	"github.com/ignatzorin/escrow-arbitration/internal/service"
)

// SetupRouter собирает все HTTP маршруты движка споров.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	disputeHandler *handlers.DisputeHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	// Лента таймлайна авторизуется токеном в query-параметре.
	api.GET("/ws", wsHandler.Handle)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.POST("/disputes", disputeHandler.FileDispute)
		protected.POST("/disputes/triage", disputeHandler.Triage)
		protected.GET("/disputes", disputeHandler.ListMyDisputes)

		protected.GET("/disputes/:id", middleware.UUIDValidator("id"), disputeHandler.GetDispute)
		protected.GET("/disputes/:id/tally", middleware.UUIDValidator("id"), disputeHandler.GetTally)
		protected.GET("/disputes/:id/timeline", middleware.UUIDValidator("id"), disputeHandler.GetTimeline)

		protected.POST("/disputes/:id/vote", middleware.UUIDValidator("id"), disputeHandler.Vote)
		protected.POST("/disputes/:id/escalate", middleware.UUIDValidator("id"), disputeHandler.Escalate)
		protected.POST("/disputes/:id/revoke", middleware.UUIDValidator("id"), disputeHandler.Revoke)
		protected.POST("/disputes/:id/override",
			middleware.UUIDValidator("id"),
			middleware.RequireRoles(models.RoleAdmin, models.RoleSuperArbiter),
			disputeHandler.Override)
	}

	return r
}
