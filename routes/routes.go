package routes

import (
	"net/http"
	"time"

	"tripcart/handlers"
	"tripcart/middleware"
	"tripcart/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// HandlerBundle aggregates the handlers the router needs.
type HandlerBundle struct {
	Cart    *handlers.CartHandler
	Payment *handlers.PaymentHandler
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "services": utils.GetHealthStatus()})
	})
}

// RegisterCartRoutes sets up the endpoints for the reservation engine.
func RegisterCartRoutes(r *gin.Engine, hb *HandlerBundle) {
	cartGroup := r.Group("/api/cart")
	{
		cartGroup.Use(middleware.SessionMiddleware())
		cartGroup.POST("/items", hb.Cart.AddToCart)
		cartGroup.GET("/items", hb.Cart.ListCart)
		cartGroup.DELETE("/items", hb.Cart.DeleteFromCart)
		cartGroup.POST("/confirm", hb.Cart.ConfirmCart)
	}

	// The payment callback comes from the payment collaborator, not the
	// shopper, so it sits outside the session-header group.
	r.POST("/api/cart/payment/callback", hb.Payment.PaymentCallback)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", utils.SessionHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterCartRoutes(r, hb)
}
