package http

import (
	"github.com/gin-gonic/gin"

	"github.com/barcodelens/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Only listed proxies may set the client IP used by the rate limiter
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		handler.logger.Error("Invalid trusted proxies, trusting none", "error", err)
		_ = router.SetTrustedProxies(nil)
	}

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware(handler.logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.GET("/barcodes/:barcode", handler.ResolveBarcode)

		products := v1.Group("/cache/products")
		{
			products.POST("", handler.AddToCache)
			products.DELETE("", handler.ClearCache)
		}
	}

	return router
}
