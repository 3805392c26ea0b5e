package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-alt/internal/http/handlers"
	"github.com/phambaophuc/image-alt/internal/http/middleware"
	"go.uber.org/zap"
)

type Router struct {
	imageHandler   *handlers.ImageHandler
	batchHandler   *handlers.BatchHandler
	allowedOrigins []string
	maxBodySize    int64
	logger         *zap.Logger
}

func NewRouter(
	imageHandler *handlers.ImageHandler,
	batchHandler *handlers.BatchHandler,
	allowedOrigins []string,
	maxBodySize int64,
	logger *zap.Logger,
) *Router {
	return &Router{
		imageHandler:   imageHandler,
		batchHandler:   batchHandler,
		allowedOrigins: allowedOrigins,
		maxBodySize:    maxBodySize,
		logger:         logger,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS(r.allowedOrigins))
	router.Use(middleware.SecurityHeaders())

	// API version 1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", r.imageHandler.HealthCheck)

		images := v1.Group("/images")
		{
			images.POST("/presign", r.imageHandler.Presign)
			images.GET("/url", r.imageHandler.FileURL)
			images.POST("/process", r.imageHandler.Process)
			images.POST("/process/async", r.imageHandler.ProcessAsync)
		}

		v1.GET("/jobs/:id", r.imageHandler.GetJob)

		batches := v1.Group("/batches")
		{
			batches.POST("", r.batchHandler.Create)
			batches.POST("/:id/files", middleware.BodyLimit(r.maxBodySize), r.batchHandler.AddFiles)
			batches.GET("/:id", r.batchHandler.Get)
			batches.DELETE("/:id", r.batchHandler.Delete)
		}
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Alt text service is running",
		})
	})

	return router
}
