package http

import (
	"github.com/aq2208/goshop-api/internal/adapter/http/middleware"
	domain "github.com/aq2208/goshop-api/internal/entity"
	"github.com/aq2208/goshop-api/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(oh *OrderHandler, ph *PaymentHandler, wh *WebhookHandler, authz *middleware.Authz) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())

	l := logging.New("http")
	r.Use(middleware.Logging(l))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		orders := v1.Group("/orders", authz.Authn())
		{
			orders.POST("", authz.RequireRole(domain.RoleCustomer), oh.CreateOrder)
			orders.GET("", authz.RequireRole(domain.RoleAdmin), oh.ListOrders)
			orders.GET("/my-orders", authz.RequireRole(domain.RoleCustomer), oh.MyOrders)
			orders.GET("/:id", oh.GetOrderByID)
			orders.GET("/:id/status", oh.GetOrderStatus)
		}

		payments := v1.Group("/payments")
		{
			payments.POST("/initiate", authz.Authn(), ph.InitiatePayment)
			// Verification is keyed by reference alone; the gateway redirect
			// lands here without a bearer token.
			payments.GET("/verify", ph.VerifyPayment)
			// Authenticated by HMAC signature, not JWT.
			payments.POST("/webhook", wh.HandleWebhook)
		}
	}

	return r
}
