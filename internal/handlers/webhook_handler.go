package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/juriscalc/payment-bridge/internal/errs"
	"github.com/juriscalc/payment-bridge/internal/service"
	"github.com/juriscalc/payment-bridge/internal/telemetry"
)

// signatureHeader is the header the gateway signs deliveries with.
const signatureHeader = "X-Signature"

// WebhookService runs the notification state machine.
type WebhookService interface {
	Process(ctx context.Context, body []byte, signatureHeader string) (*service.ProcessResult, error)
}

type WebhookHandler struct {
	processor WebhookService
}

func NewWebhookHandler(processor WebhookService) *WebhookHandler {
	return &WebhookHandler{processor: processor}
}

// HandleNotification handles POST /api/webhooks/izipay. The raw body
// is passed through untouched so the signature check covers exactly
// the bytes the gateway sent.
func (h *WebhookHandler) HandleNotification(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, errs.Validation("handlers.HandleNotification", "failed to read request body"))
		return
	}

	result, err := h.processor.Process(c.Request.Context(), body, c.GetHeader(signatureHeader))
	if err != nil {
		telemetry.Logger.Error("Webhook processing failed", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(result.Code, gin.H{
		"status":        "received",
		"outcome":       result.Outcome,
		"orderId":       result.OrderID,
		"transactionId": result.TransactionID,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}
