package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/juriscalc/payment-bridge/internal/interfaces"
	"github.com/juriscalc/payment-bridge/internal/models"
)

type OrderHandler struct {
	ledger interfaces.PendingOrderLedger
}

func NewOrderHandler(ledger interfaces.PendingOrderLedger) *OrderHandler {
	return &OrderHandler{ledger: ledger}
}

// GetOrderState handles GET /orders/:id.
func (h *OrderHandler) GetOrderState(c *gin.Context) {
	orderID := c.Param("id")

	order, err := h.ledger.FindByOrderID(c.Request.Context(), orderID)
	if errors.Is(err, interfaces.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":       order.OrderID,
		"plan_name":      order.PlanName,
		"amount":         order.Amount,
		"currency":       order.Currency,
		"customer_email": order.CustomerEmail,
		"status":         order.Status,
		"created_at":     order.CreatedAt,
		"activated_at":   order.ActivatedAt,
	})
}

// ListActivePlans handles GET /plans?email=...
func (h *OrderHandler) ListActivePlans(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email query parameter is required"})
		return
	}

	plans, err := h.ledger.ActivePlansByEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch plans"})
		return
	}
	if plans == nil {
		plans = []models.ActivePlan{}
	}

	c.JSON(http.StatusOK, gin.H{
		"customer_email": email,
		"plans":          plans,
	})
}
