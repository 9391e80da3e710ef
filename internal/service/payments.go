package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/juriscalc/payment-bridge/internal/errs"
	"github.com/juriscalc/payment-bridge/internal/interfaces"
	"github.com/juriscalc/payment-bridge/internal/models"
	"github.com/juriscalc/payment-bridge/internal/signature"
	"github.com/juriscalc/payment-bridge/internal/telemetry"
)

// GatewayAPI is the outbound gateway surface the payment service needs.
type GatewayAPI interface {
	CreatePayment(ctx context.Context, payload *models.SignedPayload) (*models.GatewayOutcome, error)
}

// PaymentService drives the create-payment flow: validate, sign,
// record the pending order, forward to the gateway.
type PaymentService struct {
	signer  *signature.Service
	gateway GatewayAPI
	ledger  interfaces.PendingOrderLedger
	events  StateEventWriter
	logger  *zap.Logger
}

func NewPaymentService(
	signer *signature.Service,
	gateway GatewayAPI,
	ledger interfaces.PendingOrderLedger,
	events StateEventWriter,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		signer:  signer,
		gateway: gateway,
		ledger:  ledger,
		events:  events,
		logger:  logger,
	}
}

// CreatePaymentResult is what the create-payment endpoint reports back
// to the client on success.
type CreatePaymentResult struct {
	OrderID       string `json:"orderId"`
	FormToken     string `json:"formToken,omitempty"`
	PaymentURL    string `json:"paymentUrl,omitempty"`
	TransactionID string `json:"transactionId"`
}

// CreatePayment builds and signs the canonical payload, records the
// pending order, and forwards the exact signed bytes to the gateway.
// A gateway decline marks the order failed so the audit trail shows
// the attempt.
func (s *PaymentService) CreatePayment(ctx context.Context, input CreatePaymentInput) (*CreatePaymentResult, error) {
	request, err := BuildPaymentRequest(input)
	if err != nil {
		telemetry.RecordPaymentCreated("invalid")
		return nil, err
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize payment request: %w", err)
	}

	digest, err := s.signer.Sign(body)
	if err != nil {
		telemetry.RecordPaymentCreated("config_error")
		return nil, err
	}
	signed := &models.SignedPayload{Body: body, Digest: digest}

	order := &models.PendingOrder{
		OrderID:       request.OrderID,
		PlanName:      request.Plan,
		Amount:        request.Amount,
		Currency:      request.Currency,
		CustomerEmail: request.Customer.Email,
		Status:        models.StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.ledger.Put(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to record pending order: %w", err)
	}
	publishStateEvent(ctx, s.events, s.logger, order.OrderID, "", "", models.StatusPending)

	outcome, err := s.gateway.CreatePayment(ctx, signed)
	if err != nil {
		if errs.IsKind(err, errs.KindGatewayRejected) {
			telemetry.RecordPaymentCreated("rejected")
			if markErr := s.ledger.MarkStatus(ctx, order.OrderID, models.StatusFailed); markErr != nil {
				s.logger.Error("Failed to mark rejected order",
					zap.String("order_id", order.OrderID),
					zap.Error(markErr),
				)
			} else {
				publishStateEvent(ctx, s.events, s.logger, order.OrderID, "", models.StatusPending, models.StatusFailed)
			}
		} else {
			telemetry.RecordPaymentCreated("error")
		}
		return nil, err
	}

	telemetry.RecordPaymentCreated("success")
	s.logger.Info("Payment created at gateway",
		zap.String("order_id", order.OrderID),
		zap.String("transaction_id", outcome.TransactionID),
	)

	return &CreatePaymentResult{
		OrderID:       request.OrderID,
		FormToken:     outcome.FormToken,
		PaymentURL:    outcome.PaymentURL,
		TransactionID: outcome.TransactionID,
	}, nil
}
