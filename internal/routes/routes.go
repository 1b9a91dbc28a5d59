package routes

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"idef_back_end/internal/handlers"
	"idef_back_end/internal/middleware"
)

func RegisterRoutes(r *gin.Engine, h *handlers.Handler) {
	r.Use(corsMiddleware())

	api := r.Group("/api", middleware.APIRateLimit())

	api.GET("/health", h.Health)

	products := api.Group("/products")
	products.GET("", h.ListProducts)
	products.GET("/:product_id", h.GetProduct)
	products.GET("/slug/:slug", h.GetProductBySlug)

	co := api.Group("/checkout")
	co.POST("/create-payment-intent", middleware.CheckoutRateLimit(), h.CreatePaymentIntent)
	co.POST("/confirm-payment/:order_id", h.ConfirmPayment)
	co.GET("/order/:order_id", h.GetOrder)

	api.POST("/webhook/stripe", h.StripeWebhook)
}

func corsMiddleware() gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowOrigins = strings.Split(origins, ",")
	} else {
		cfg.AllowAllOrigins = true
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Stripe-Signature")
	return cors.New(cfg)
}
