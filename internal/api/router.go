package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/juriscalc/payment-bridge/internal/handlers"
	"github.com/juriscalc/payment-bridge/internal/interfaces"
	"github.com/juriscalc/payment-bridge/internal/telemetry"
)

func NewRouter(
	payments handlers.PaymentCreator,
	processor handlers.WebhookService,
	ledger interfaces.PendingOrderLedger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware())
	r.Use(MetricsMiddleware())

	// Wrong method on a known route must answer 405, not 404.
	r.HandleMethodNotAllowed = true

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "payment-bridge"})
	})

	paymentHandler := handlers.NewPaymentHandler(payments)
	webhookHandler := handlers.NewWebhookHandler(processor)
	orderHandler := handlers.NewOrderHandler(ledger)

	r.POST("/api/payments", paymentHandler.CreatePayment)
	r.POST("/api/webhooks/izipay", webhookHandler.HandleNotification)
	r.GET("/orders/:id", orderHandler.GetOrderState)
	r.GET("/plans", orderHandler.ListActivePlans)

	return r
}
