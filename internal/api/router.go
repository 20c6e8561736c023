package api

import (
	"github.com/Conceptual-Machines/hogwarts-archives/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/hogwarts-archives/internal/api/middleware"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/config"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/metrics"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/session"
	"github.com/Conceptual-Machines/hogwarts-archives/internal/tier"
	"github.com/gin-gonic/gin"
)

// Dependencies are the long-lived components the console routes operate on
type Dependencies struct {
	Config  *config.Config
	Gate    *tier.Gate
	Session *session.Session
	Prompts handlers.RandomPrompter
	Metrics *metrics.Recorder // nil records to Sentry only
	Tracing bool
}

func SetupRouter(deps Dependencies, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(deps.Metrics))

	// CORS middleware
	router.Use(apimiddleware.CORS(deps.Config.CORSAllowedOrigins...))

	// Health check
	healthHandler := handlers.NewHealthHandler(deps.Config)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version, deps.Session, deps.Tracing)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	v1 := router.Group("/api/v1")
	{
		// Access tier gate
		tierHandler := handlers.NewTierHandler(deps.Gate)
		v1.GET("/tier", tierHandler.GetTier)
		v1.POST("/tier", tierHandler.SelectTier)
		v1.DELETE("/tier", tierHandler.ResetTier)

		// Character generation
		archiveHandler := handlers.NewArchiveHandler(deps.Session, deps.Prompts)
		v1.POST("/generations", archiveHandler.CreateGeneration)
		v1.GET("/generations/current", archiveHandler.GetCurrent)
		v1.DELETE("/generations/current/error", archiveHandler.DismissError)
		v1.GET("/generations/current/image", archiveHandler.GetImage)
		v1.GET("/generations/current/export", archiveHandler.Export)
		v1.GET("/prompts", archiveHandler.ListPrompts)
		v1.GET("/prompts/random", archiveHandler.RandomPrompt)
	}

	return router
}
