package app

import (
	"flagtest_backend/docs"
	"flagtest_backend/internal/config"
	"flagtest_backend/internal/middleware"
	"flagtest_backend/internal/model"
	"flagtest_backend/pkg/monitoring"
	"flagtest_backend/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	a.registerPublicRoutes(router, c)
	a.registerParticipantRoutes(router, c, cfg)
	a.registerAdminRoutes(router, c)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

// registerParticipantRoutes wires the unauthenticated participant surface.
// These endpoints authenticate with join credentials and the proof cookie
// instead of a JWT, and sit behind the rate limiter.
func (a *App) registerParticipantRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	limiter := a.participantLimiter(cfg)

	participant := router.Group("/api")
	participant.Use(ratelimit.Middleware(limiter))
	{
		participant.POST("/join", c.participant.Join)
		participant.POST("/progress", c.participant.Progress)
		participant.GET("/sessions/:id", c.session.Get)
		participant.POST("/sessions/:id/answers", c.session.SubmitAnswer)
		participant.GET("/sessions/:id/completion", c.session.CompletionContent)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers) {
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(model.Owner, model.Admin))
	{
		authGroup.GET("/me", c.auth.Me)

		evaluations := authGroup.Group("/evaluations")
		{
			evaluations.POST("", c.evaluation.Create)
			evaluations.GET("", c.evaluation.List)
			evaluations.GET("/:id", c.evaluation.Get)
			evaluations.PATCH("/:id", c.evaluation.Update)
			evaluations.DELETE("/:id", c.evaluation.Delete)
			evaluations.POST("/:id/restore", c.evaluation.Restore)
			evaluations.POST("/:id/status", c.evaluation.SetStatus)
			evaluations.POST("/:id/reset", c.evaluation.ResetAttempt)

			evaluations.POST("/:id/tests", c.evaluation.AttachTest)
			evaluations.PATCH("/:id/tests/:testId", c.evaluation.UpdateTest)
			evaluations.DELETE("/:id/tests/:testId", c.evaluation.DetachTest)

			evaluations.POST("/:id/invites", c.evaluation.GenerateInvites)
			evaluations.GET("/:id/invites", c.evaluation.ListInvites)
			evaluations.DELETE("/:id/invites/:inviteId", c.evaluation.DeleteInvite)

			evaluations.PUT("/:id/roster", c.evaluation.UpsertRoster)
			evaluations.GET("/:id/roster", c.evaluation.ListRoster)
		}

		definitions := authGroup.Group("/test-definitions")
		{
			definitions.POST("", c.testDefinition.Create)
			definitions.GET("", c.testDefinition.List)
			definitions.GET("/:id", c.testDefinition.Get)
			definitions.PATCH("/:id", c.testDefinition.Update)
			definitions.POST("/:id/publish", c.testDefinition.Publish)
		}

		camouflage := authGroup.Group("/camouflage")
		{
			camouflage.POST("/sets", c.camouflage.CreateSet)
			camouflage.GET("/sets", c.camouflage.ListSets)
			camouflage.PUT("/sets/:setId", c.camouflage.UpdateSet)
			camouflage.POST("/sets/:setId/characters", c.camouflage.CreateCharacter)
			camouflage.GET("/sets/:setId/characters", c.camouflage.ListCharacters)
			camouflage.PUT("/sets/:setId/characters/:characterId", c.camouflage.UpdateCharacter)
			camouflage.POST("/images", c.camouflage.UploadCharacterImage)

			camouflage.PUT("/tests/:testId/slots", c.camouflage.ReplaceSlots)
			camouflage.GET("/tests/:testId/slots", c.camouflage.ListSlots)
			camouflage.PUT("/tests/:testId/sets/:setId/mappings", c.camouflage.UpsertMapping)
			camouflage.PUT("/tests/:testId/sets/:setId/copy", c.camouflage.UpsertCopy)
		}
	}
}
