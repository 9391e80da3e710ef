package service

import (
	"net/mail"

	"github.com/juriscalc/payment-bridge/internal/errs"
	"github.com/juriscalc/payment-bridge/internal/models"
)

const (
	defaultCurrency = "PEN"
	defaultPlan     = "standard"
)

var defaultPaymentMethods = []string{models.MethodYape, models.MethodBankTransfer}

// CreatePaymentInput is the untrusted client-submitted order data.
type CreatePaymentInput struct {
	Amount         int64            `json:"amount"`
	Currency       string           `json:"currency"`
	OrderID        string           `json:"orderId"`
	Customer       *models.Customer `json:"customer"`
	PaymentMethods []string         `json:"paymentMethods"`
	Plan           string           `json:"plan"`
}

// BuildPaymentRequest validates client input and assembles the
// canonical gateway-facing payment request. Pure transform: credential
// presence is the gateway client's problem, not the builder's.
func BuildPaymentRequest(input CreatePaymentInput) (*models.PaymentRequest, error) {
	const op = "service.BuildPaymentRequest"

	if input.Amount <= 0 {
		return nil, errs.Validation(op, "amount must be a positive number of minor units")
	}
	if input.OrderID == "" {
		return nil, errs.Validation(op, "orderId is required")
	}
	if input.Customer == nil {
		return nil, errs.Validation(op, "customer is required")
	}
	if input.Customer.Email == "" {
		return nil, errs.Validation(op, "customer.email is required")
	}
	if _, err := mail.ParseAddress(input.Customer.Email); err != nil {
		return nil, errs.Validation(op, "customer.email is not a valid address")
	}

	currency := input.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	methods := input.PaymentMethods
	if len(methods) == 0 {
		methods = defaultPaymentMethods
	}
	// Own the slice so the built request stays immutable even if the
	// caller mutates its input afterwards.
	methods = append([]string(nil), methods...)

	plan := input.Plan
	if plan == "" {
		plan = defaultPlan
	}

	return &models.PaymentRequest{
		Amount:         input.Amount,
		Currency:       currency,
		OrderID:        input.OrderID,
		Customer:       *input.Customer,
		PaymentMethods: methods,
		Plan:           plan,
	}, nil
}
