package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/paypoint/internal/config"
	"github.com/sangkips/paypoint/internal/presentation/http/handler"
	"github.com/sangkips/paypoint/internal/presentation/http/middleware"
	"github.com/sangkips/paypoint/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth     *handler.AuthHandler
	Payment  *handler.PaymentHandler
	Terminal *handler.TerminalHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager *utils.JWTManager
	Cfg        *config.Config
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public routes (no authentication required)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
		}

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))

		// Per-operator rate limiter
		rateLimiter := middleware.NewOperatorRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(deps.Cfg.RateLimit.Requests) / float64(deps.Cfg.RateLimit.Duration),
			BurstSize:         deps.Cfg.RateLimit.Requests,
			CleanupInterval:   5 * time.Minute,
			EntryTTL:          10 * time.Minute,
		})
		protected.Use(rateLimiter.Middleware())

		registerProtectedRoutes(protected, h)
	}

	return router
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers) {
	protected.POST("/auth/logout", h.Auth.Logout)

	// Payments
	payments := protected.Group("/payments")
	{
		payments.POST("", h.Payment.Start)
		payments.POST("/active/stop", h.Payment.Stop)
		payments.GET("/:reference", h.Payment.Get)
		payments.GET("/:reference/receipt", h.Payment.GetReceipt)
		payments.POST("/:reference/receipt/print", h.Payment.PrintReceipt)
	}

	// Stored transactions (store-and-forward queue)
	stored := protected.Group("/stored-transactions")
	{
		stored.GET("", h.Payment.ListStored)
		stored.GET("/:reference", h.Payment.GetStored)
		stored.POST("/upload", h.Payment.UploadStored)
	}

	// Terminal
	terminal := protected.Group("/terminal")
	{
		terminal.GET("/status", h.Terminal.GetStatus)
		terminal.POST("/connect", h.Terminal.Connect)
	}
}
