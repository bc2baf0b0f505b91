package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/api/handlers"
	"github.com/anvika-shop/storefront/internal/api/middleware"
	"github.com/anvika-shop/storefront/internal/config"
	"github.com/anvika-shop/storefront/internal/repository"
)

// Deps carries everything the routes need. Services are passed as the
// narrow interfaces the handlers consume.
type Deps struct {
	Config      *config.Config
	Store       repository.Store
	Cart        handlers.CartService
	Checkout    handlers.CheckoutService
	Cancel      handlers.CancelService
	Fulfillment handlers.FulfillmentService
	Reviews     handlers.ReviewService
	Logger      *zap.Logger
}

// NewRouter creates and configures the Gin router
func NewRouter(deps Deps) *gin.Engine {
	if deps.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(deps.Logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger := deps.Logger

	// API v1 routes
	v1 := router.Group("/v1")
	{
		// Public catalog
		v1.GET("/products", handlers.HandleListProducts(deps.Store, logger))
		v1.GET("/products/:slug", handlers.HandleGetProduct(deps.Store, logger))
		v1.GET("/products/:slug/reviews", handlers.HandleListReviews(deps.Store, deps.Reviews, logger))

		// Customer routes (require authentication)
		userRoutes := v1.Group("")
		userRoutes.Use(middleware.AuthMiddleware(deps.Store, logger))
		{
			userRoutes.GET("/cart", handlers.HandleGetCart(deps.Cart, logger))
			userRoutes.POST("/cart", handlers.HandleAddToCart(deps.Cart, logger))
			userRoutes.PATCH("/cart/items/:id", handlers.HandleUpdateCartItem(deps.Cart, logger))
			userRoutes.DELETE("/cart/items/:id", handlers.HandleRemoveCartItem(deps.Cart, logger))
			userRoutes.DELETE("/cart", handlers.HandleClearCart(deps.Cart, logger))

			userRoutes.POST("/checkout/quote", handlers.HandleQuote(deps.Checkout, logger))
			userRoutes.POST("/checkout/intent", handlers.HandleCreatePaymentIntent(deps.Checkout, logger))
			userRoutes.POST("/checkout", handlers.HandleCheckout(deps.Checkout, logger))

			userRoutes.GET("/orders", handlers.HandleListMyOrders(deps.Store, logger))
			userRoutes.GET("/orders/:id", handlers.HandleGetOrder(deps.Store, logger))
			userRoutes.POST("/orders/:id/cancel", handlers.HandleCancelOrder(deps.Cancel, logger))
			userRoutes.GET("/orders/:id/tracking", handlers.HandleTrackOrder(deps.Fulfillment, logger))

			userRoutes.GET("/addresses", handlers.HandleListAddresses(deps.Store, logger))
			userRoutes.POST("/addresses", handlers.HandleAddAddress(deps.Store, logger))
			userRoutes.GET("/wallet", handlers.HandleGetWallet(deps.Store, logger))

			userRoutes.GET("/shipping/serviceability", handlers.HandleServiceability(deps.Fulfillment, logger))

			userRoutes.POST("/products/:slug/reviews", handlers.HandleAddReview(deps.Store, deps.Reviews, logger))
			userRoutes.DELETE("/reviews/:id", handlers.HandleDeleteReview(deps.Reviews, logger))
		}

		// Admin routes
		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(middleware.AuthMiddleware(deps.Store, logger))
		adminRoutes.Use(middleware.AdminOnly())
		{
			adminRoutes.GET("/orders", handlers.HandleAdminListOrders(deps.Store, logger))
			adminRoutes.POST("/orders/:id/cancel", handlers.HandleCancelOrder(deps.Cancel, logger))
			adminRoutes.POST("/orders/:id/fulfillment/retry", handlers.HandleRetryFulfillment(deps.Fulfillment, logger))
			adminRoutes.POST("/orders/:id/delivered", handlers.HandleMarkDelivered(deps.Fulfillment, logger))

			adminRoutes.POST("/products", handlers.HandleCreateProduct(deps.Store, logger))
			adminRoutes.POST("/coupons", handlers.HandleCreateCoupon(deps.Store, logger))

			adminRoutes.GET("/wallet-config", handlers.HandleGetWalletConfig(deps.Store, logger))
			adminRoutes.PUT("/wallet-config", handlers.HandleUpdateWalletConfig(deps.Store, logger))
			adminRoutes.GET("/tax-rate", handlers.HandleGetTaxRate(deps.Store, logger))
			adminRoutes.PUT("/tax-rate", handlers.HandleSetTaxRate(deps.Store, logger))
		}
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
