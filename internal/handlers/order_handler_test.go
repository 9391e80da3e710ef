package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/juriscalc/payment-bridge/internal/interfaces"
	"github.com/juriscalc/payment-bridge/internal/models"
)

type stubLedger struct {
	order *models.PendingOrder
	plans []models.ActivePlan
}

func (s *stubLedger) Put(context.Context, *models.PendingOrder) error { return nil }

func (s *stubLedger) FindByOrderID(_ context.Context, orderID string) (*models.PendingOrder, error) {
	if s.order == nil || s.order.OrderID != orderID {
		return nil, interfaces.ErrNotFound
	}
	return s.order, nil
}

func (s *stubLedger) MarkCompleted(context.Context, string, string, time.Time, *models.ActivePlan) (bool, error) {
	return false, nil
}

func (s *stubLedger) MarkStatus(context.Context, string, models.OrderStatus) error { return nil }

func (s *stubLedger) ActivePlansByEmail(context.Context, string) ([]models.ActivePlan, error) {
	return s.plans, nil
}

func setupOrderRouter(ledger interfaces.PendingOrderLedger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewOrderHandler(ledger)
	r.GET("/orders/:id", handler.GetOrderState)
	r.GET("/plans", handler.ListActivePlans)
	return r
}

func TestGetOrderState(t *testing.T) {
	router := setupOrderRouter(&stubLedger{order: &models.PendingOrder{
		OrderID:       "ORD1",
		PlanName:      "standard",
		Amount:        1000,
		Currency:      "PEN",
		CustomerEmail: "a@b.com",
		Status:        models.StatusPending,
		CreatedAt:     time.Now(),
	}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/ORD1", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != "pending" || resp["order_id"] != "ORD1" {
		t.Errorf("unexpected response: %v", resp)
	}
}

func TestGetOrderStateNotFound(t *testing.T) {
	router := setupOrderRouter(&stubLedger{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/GHOST", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestListActivePlansRequiresEmail(t *testing.T) {
	router := setupOrderRouter(&stubLedger{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/plans", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestListActivePlansEmptyIsArray(t *testing.T) {
	router := setupOrderRouter(&stubLedger{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/plans?email=a@b.com", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Plans []models.ActivePlan `json:"plans"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.Plans == nil {
		t.Error("plans should serialize as an empty array, not null")
	}
}
