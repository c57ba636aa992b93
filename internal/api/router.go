package api

import (
	"github.com/gin-gonic/gin"
	"github.com/selahlabs/selah/internal/api/handler"
	"github.com/selahlabs/selah/internal/api/middleware"
	"github.com/selahlabs/selah/internal/config"
	"github.com/selahlabs/selah/internal/logger"
	"github.com/selahlabs/selah/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	pipeline *service.Pipeline,
	orchestrator *service.Orchestrator,
	registry *service.BatchRegistry,
	log *logger.Logger,
	cfg config.ServerConfig,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	generationHandler := handler.NewGenerationHandler(pipeline, orchestrator, registry)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Single-item generation
		v1.POST("/generate", generationHandler.Generate)

		// Batch orchestration
		v1.POST("/batches", generationHandler.SubmitBatch)
		v1.GET("/batches", generationHandler.ListBatches)
		v1.GET("/batches/:id", generationHandler.GetBatch)
		v1.POST("/batches/:id/pause", generationHandler.PauseBatch)
		v1.POST("/batches/:id/resume", generationHandler.ResumeBatch)
		v1.POST("/batches/:id/cancel", generationHandler.CancelBatch)
	}

	return r
}
