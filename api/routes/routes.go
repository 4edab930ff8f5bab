package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stridehq/stride-backend/internal/config"
	"github.com/stridehq/stride-backend/internal/handlers"
	"github.com/stridehq/stride-backend/internal/middleware"
	"github.com/stridehq/stride-backend/pkg/jwt"
)

// HandlerDependencies collects the handlers wired in main
type HandlerDependencies struct {
	CheckinHandler    *handlers.CheckinHandler
	RedemptionHandler *handlers.RedemptionHandler
	LedgerHandler     *handlers.LedgerHandler
	RewardHandler     *handlers.RewardHandler
	TriggerHandler    *handlers.TriggerHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, logger *logrus.Logger, tokens *jwt.TokenService, deps HandlerDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(logger))

	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})

		public.GET("/rewards", deps.RewardHandler.ListRewards)

		users := public.Group("/users/:userId")
		{
			users.POST("/checkins", deps.CheckinHandler.CreateCheckin)
			users.GET("/checkins/:eventId", deps.CheckinHandler.GetCheckin)
			users.GET("/ledger", deps.LedgerHandler.GetLedger)
			users.POST("/redemptions", deps.RedemptionHandler.CreateRedemption)
			users.GET("/redemptions", deps.RedemptionHandler.ListRedemptions)
			users.GET("/redemptions/:redemptionId", deps.RedemptionHandler.GetRedemption)
		}
	}

	// The trigger-redelivery channel authenticates with a service token.
	protected := router.Group("/api/v1/triggers")
	protected.Use(middleware.ServiceAuthMiddleware(tokens))
	{
		protected.POST("/events", deps.TriggerHandler.DeliverEvent)
	}

	return router
}
