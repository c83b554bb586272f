package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/api/handlers"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/api/middleware"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/config"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/repository"
)

// Services bundles the handler dependencies built once at startup
type Services struct {
	Orders   handlers.OrderService
	Payments handlers.PaymentInitiator
	Webhooks handlers.WebhookReconciler
	Status   handlers.StatusChecker
	Sessions repository.SessionStore
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, svc *Services, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	orderRoutes := router.Group("/orders")
	orderRoutes.Use(middleware.AuthMiddleware(svc.Sessions, logger))
	{
		orderRoutes.POST("", handlers.HandleCreateOrder(svc.Orders, logger))
		orderRoutes.GET("/:id", handlers.HandleGetOrder(svc.Orders, logger))
	}

	payment := router.Group("/payment")
	{
		payment.POST("/session", handlers.HandleCreatePaymentSession(svc.Payments, logger))
		payment.GET("/return", handlers.HandlePaymentReturn(cfg.Payment.StorefrontURL))
		payment.GET("/webhook", handlers.HandleWebhookHealth())
		payment.POST("/webhook",
			middleware.WebhookAuth(cfg.Payment.WebhookKeyHash, logger),
			handlers.HandlePaymentWebhook(svc.Webhooks, logger),
		)
		payment.GET("/status", middleware.NoCache(), handlers.HandlePaymentStatus(svc.Status, logger))
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
