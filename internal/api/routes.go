package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"resumecheck/internal/api/middleware"
	"resumecheck/internal/auth"
	"resumecheck/internal/notify"
	"resumecheck/internal/persist"
	"resumecheck/internal/pipeline"
	"resumecheck/internal/storage"
)

// RegisterRoutes wires all API routes without the /api prefix.
func RegisterRoutes(
	router *gin.Engine,
	manager *auth.Manager,
	tokens *auth.TokenService,
	runner *pipeline.Runner,
	records *persist.Coordinator,
	storageClient *storage.Client,
	asynqClient *asynq.Client,
	redisClient *redis.Client,
	logger *slog.Logger,
	clamdAddr string,
	allowedOrigins []string,
) {
	publisher := notify.NewPublisher(redisClient)

	authHandler := NewAuthHandler(manager, tokens)
	submissionHandler := NewSubmissionHandler(runner, manager, publisher, clamdAddr)
	resumeHandler := NewResumeHandler(records, storageClient, asynqClient)
	wsHandler := NewWsHandler(redisClient, tokens, logger, allowedOrigins)
	authMiddleware := middleware.AuthMiddleware(tokens)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/signin", authHandler.SignIn)
			authGroup.POST("/signout", authHandler.SignOut)
			authGroup.GET("/session", authHandler.GetSession)
			authGroup.DELETE("/error", authHandler.ClearError)
		}

		v1.POST("/submissions", authMiddleware, submissionHandler.Submit)

		resumeGroup := v1.Group("/resumes")
		resumeGroup.Use(authMiddleware)
		{
			resumeGroup.GET("", resumeHandler.ListResumes)
			resumeGroup.GET("/:id", resumeHandler.GetResume)
			resumeGroup.GET("/:id/links", resumeHandler.GetResumeLinks)
			resumeGroup.DELETE("/:id", resumeHandler.DeleteResume)
		}
	}
}
