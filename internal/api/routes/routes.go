package routes

import (
	"time"

	"crawler-middleware/internal/api/handlers"
	"crawler-middleware/internal/api/middleware"
	"crawler-middleware/internal/config"
	"crawler-middleware/internal/logging"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

const readinessTimeout = 5 * time.Second

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, svc handlers.CrawlerService) {
	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestValidation(cfg.Server.BodyLimit))
	e.Use(middleware.RequestLogger(logging.GetGlobalLogger().WithField("component", "http")))
	e.Use(middleware.CORSConfig())
	e.Use(middleware.TimeoutConfig(cfg.Server.WriteTimeout))

	// Health check routes
	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/live", handlers.LivenessHandler)
		health.GET("/ready", handlers.ReadinessHandler(svc, readinessTimeout))
	}

	e.GET("/", handlers.RootHandler(handlers.Version))
	e.GET("/stats", handlers.StatsHandler(svc))
	e.POST("/check", handlers.CheckHandler(svc))

	// Ingestion routes written by the crawler
	var ingest []echo.MiddlewareFunc
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewClientRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		ingest = append(ingest, limiter.Middleware())
	}

	deposit := e.Group("/deposit", ingest...)
	{
		deposit.POST("/company", handlers.DepositCompanyHandler(svc))
		deposit.POST("/job", handlers.DepositJobHandler(svc))
		deposit.POST("/benefit", handlers.DepositBenefitHandler(svc))
	}

	e.DELETE("/company/:id", handlers.DeleteCompanyHandler(svc), ingest...)
	e.DELETE("/job/:id", handlers.DeleteJobHandler(svc), ingest...)
	e.DELETE("/benefit/:id", handlers.DeleteBenefitHandler(svc), ingest...)
}
