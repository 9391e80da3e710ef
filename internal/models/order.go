package models

import "time"

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusCompleted OrderStatus = "completed"
	StatusFailed    OrderStatus = "failed"
	StatusCancelled OrderStatus = "cancelled"
)

// Terminal reports whether s may never be overwritten by a later
// notification.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// PendingOrder is the ledger record correlating a forwarded payment
// request with its eventual webhook notification. Rows are never
// deleted; terminal orders remain as the audit trail.
type PendingOrder struct {
	OrderID       string      `json:"order_id"`
	PlanName      string      `json:"plan_name"`
	Amount        int64       `json:"amount"`
	Currency      string      `json:"currency"`
	CustomerEmail string      `json:"customer_email"`
	Status        OrderStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	ActivatedAt   *time.Time  `json:"activated_at,omitempty"`
}

// ActivePlan is the entitlement created exactly once when a pending
// order transitions to completed.
type ActivePlan struct {
	Name          string    `json:"name"`
	Price         int64     `json:"price"`
	PurchaseDate  time.Time `json:"purchase_date"`
	ExpiryDate    time.Time `json:"expiry_date"`
	CustomerEmail string    `json:"customer_email"`
	CustomerName  string    `json:"customer_name"`
	TransactionID string    `json:"transaction_id"`
	PaymentMethod string    `json:"payment_method"`
}
