package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/juriscalc/payment-bridge/internal/errs"
	"github.com/juriscalc/payment-bridge/internal/service"
	"github.com/juriscalc/payment-bridge/internal/telemetry"
)

// PaymentCreator is the payment-flow surface the handler needs.
type PaymentCreator interface {
	CreatePayment(ctx context.Context, input service.CreatePaymentInput) (*service.CreatePaymentResult, error)
}

type PaymentHandler struct {
	payments PaymentCreator
}

func NewPaymentHandler(payments PaymentCreator) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreatePayment handles POST /api/payments.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var input service.CreatePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, errs.Validation("handlers.CreatePayment", "request body is not valid JSON"))
		return
	}

	result, err := h.payments.CreatePayment(c.Request.Context(), input)
	if err != nil {
		telemetry.Logger.Error("Create payment failed",
			zap.String("order_id", input.OrderID),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"formToken":     result.FormToken,
		"paymentUrl":    result.PaymentURL,
		"transactionId": result.TransactionID,
		"orderId":       result.OrderID,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}
