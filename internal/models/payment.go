package models

import (
	"encoding/json"
	"time"
)

// Payment methods offered to Peruvian customers.
const (
	MethodYape         = "YAPE"
	MethodBankTransfer = "BANK_TRANSFER"
	MethodCard         = "CARD"
)

// Customer identifies the paying party. Email is the correlation key
// for entitlements; names are optional.
type Customer struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// PaymentRequest is the canonical, validated gateway-facing payment
// payload. Amounts are in minor units (céntimos). Instances are built
// by the request builder and never mutated afterwards; the struct field
// order fixes the JSON serialization so re-signing the same logical
// request is reproducible.
type PaymentRequest struct {
	Amount         int64    `json:"amount"`
	Currency       string   `json:"currency"`
	OrderID        string   `json:"orderId"`
	Customer       Customer `json:"customer"`
	PaymentMethods []string `json:"paymentMethods"`
	Plan           string   `json:"-"`
}

// SignedPayload couples the exact serialized bytes sent to the gateway
// with their HMAC-SHA256 hex digest. The digest is only valid for Body
// verbatim; any change to the payload requires a re-marshal and re-sign.
type SignedPayload struct {
	Body   json.RawMessage
	Digest string
}

// GatewayOutcome is the normalized shape of the gateway's create-payment
// response. Deployments differ in which of formToken / paymentUrl /
// transactionId aliases they return; the gateway client folds them into
// this one type.
type GatewayOutcome struct {
	FormToken     string `json:"formToken,omitempty"`
	PaymentURL    string `json:"paymentUrl,omitempty"`
	TransactionID string `json:"transactionId"`
	RawStatus     string `json:"rawStatus"`
}

// WebhookNotification is one asynchronous delivery from the gateway.
// Consumed once; only its effect on the pending order is persisted.
type WebhookNotification struct {
	TransactionID    string    `json:"transactionId"`
	OrderID          string    `json:"orderId"`
	Status           string    `json:"status"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	Customer         *Customer `json:"customer,omitempty"`
	PaymentMethod    string    `json:"paymentMethod,omitempty"`
	NotificationType string    `json:"notificationType,omitempty"`
}

// OrderStateEvent is published to Kafka on every ledger transition.
type OrderStateEvent struct {
	OrderID       string    `json:"order_id"`
	State         string    `json:"state"`
	PreviousState string    `json:"previous_state"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// OrphanNotificationEvent records a webhook that referenced an orderId
// with no matching pending order. Published to NATS for investigation.
type OrphanNotificationEvent struct {
	OrderID       string    `json:"order_id"`
	TransactionID string    `json:"transaction_id"`
	Status        string    `json:"status"`
	ReceivedAt    time.Time `json:"received_at"`
}
