package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/juriscalc/payment-bridge/internal/config"
	"github.com/juriscalc/payment-bridge/internal/errs"
	"github.com/juriscalc/payment-bridge/internal/interfaces"
	"github.com/juriscalc/payment-bridge/internal/models"
	"github.com/juriscalc/payment-bridge/internal/signature"
	"github.com/juriscalc/payment-bridge/internal/telemetry"
)

// Reconciliation outcomes reported back to the webhook endpoint.
const (
	OutcomeActivated        = "activated"
	OutcomeAlreadyCompleted = "already_completed"
	OutcomeFailed           = "failed"
	OutcomeCancelled        = "cancelled"
	OutcomeUnknown          = "unknown"
	OutcomeOrphan           = "orphan"
)

const lockTTL = 30 * time.Second

// WebhookProcessor authenticates, classifies, and reconciles inbound
// gateway notifications against the pending-order ledger.
type WebhookProcessor struct {
	cfg      *config.Config
	verifier *signature.Service
	ledger   interfaces.PendingOrderLedger
	locker   Locker
	events   StateEventWriter
	orphans  OrphanPublisher
	logger   *zap.Logger
}

func NewWebhookProcessor(
	cfg *config.Config,
	verifier *signature.Service,
	ledger interfaces.PendingOrderLedger,
	locker Locker,
	events StateEventWriter,
	orphans OrphanPublisher,
	logger *zap.Logger,
) *WebhookProcessor {
	return &WebhookProcessor{
		cfg:      cfg,
		verifier: verifier,
		ledger:   ledger,
		locker:   locker,
		events:   events,
		orphans:  orphans,
		logger:   logger,
	}
}

// ProcessResult tells the webhook endpoint what to answer the gateway.
// Once shape and authentication pass, Code is 200 regardless of the
// business outcome so the gateway stops redelivering.
type ProcessResult struct {
	Code          int    `json:"-"`
	Outcome       string `json:"outcome"`
	OrderID       string `json:"orderId,omitempty"`
	TransactionID string `json:"transactionId"`
}

// Process runs the notification state machine over the raw delivery
// body. The signature check uses the raw bytes exactly as received.
func (p *WebhookProcessor) Process(ctx context.Context, body []byte, signatureHeader string) (*ProcessResult, error) {
	if err := p.authenticate(body, signatureHeader); err != nil {
		telemetry.RecordWebhookOutcome("auth_failed")
		return nil, err
	}

	var notification models.WebhookNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		telemetry.RecordWebhookOutcome("malformed")
		return nil, errs.Validation("webhook.Process", "notification body is not valid JSON")
	}
	if notification.TransactionID == "" || notification.Status == "" {
		telemetry.RecordWebhookOutcome("malformed")
		return nil, errs.Validation("webhook.Process", "transactionId and status are required")
	}

	classified, recognized := classifyStatus(notification.Status)

	result, err := p.reconcile(ctx, &notification, classified, recognized)
	if err != nil {
		return nil, err
	}

	telemetry.RecordWebhookOutcome(result.Outcome)
	return result, nil
}

// authenticate fails closed when a verification key is configured:
// a missing header is as suspect as a wrong one. Keyless operation is
// only reachable in sandbox (config.Validate enforces this) and skips
// the check entirely.
func (p *WebhookProcessor) authenticate(body []byte, signatureHeader string) error {
	if !p.cfg.VerificationEnabled() {
		p.logger.Warn("Webhook accepted without signature verification: no verification key configured")
		return nil
	}
	if signatureHeader == "" {
		return errs.Authentication("webhook.authenticate", "missing signature header")
	}
	ok, err := p.verifier.Verify(body, signatureHeader)
	if err != nil {
		return err
	}
	if !ok {
		return errs.Authentication("webhook.authenticate", "signature mismatch")
	}
	return nil
}

// classifyStatus maps the gateway's status vocabulary onto the local
// order lifecycle. Unrecognized strings land in a recoverable holding
// state instead of erroring.
func classifyStatus(raw string) (models.OrderStatus, bool) {
	switch raw {
	case "SUCCESS", "AUTHORISED", "CAPTURED", "PAID":
		return models.StatusCompleted, true
	case "FAILED", "REFUSED":
		return models.StatusFailed, true
	case "CANCELLED", "ABANDONED":
		return models.StatusCancelled, true
	default:
		return "", false
	}
}

func (p *WebhookProcessor) reconcile(ctx context.Context, n *models.WebhookNotification, classified models.OrderStatus, recognized bool) (*ProcessResult, error) {
	if p.locker != nil {
		lockKey := fmt.Sprintf("order_lock:%s", n.OrderID)
		locked, err := p.locker.TryLock(ctx, lockKey, lockTTL)
		if err != nil {
			// Lock service down: the ledger CAS still protects us.
			p.logger.Warn("Order lock unavailable, relying on ledger atomicity",
				zap.String("order_id", n.OrderID),
				zap.Error(err),
			)
		} else if !locked {
			return nil, errs.Transient("webhook.reconcile",
				fmt.Sprintf("order %s is already being reconciled", n.OrderID), nil)
		} else {
			defer p.locker.Unlock(ctx, lockKey)
		}
	}

	order, err := p.ledger.FindByOrderID(ctx, n.OrderID)
	if errors.Is(err, interfaces.ErrNotFound) {
		// The gateway is authoritative that money moved; accept, flag,
		// and never fabricate a pending order.
		p.logger.Warn("Orphan notification: no pending order",
			zap.String("order_id", n.OrderID),
			zap.String("transaction_id", n.TransactionID),
			zap.String("status", n.Status),
		)
		publishOrphanEvent(p.orphans, p.logger, n)
		return p.result(http.StatusOK, OutcomeOrphan, n), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up pending order: %w", err)
	}

	if !recognized {
		p.logger.Warn("Unrecognized gateway status",
			zap.String("order_id", n.OrderID),
			zap.String("status", n.Status),
		)
		return p.result(http.StatusOK, OutcomeUnknown, n), nil
	}

	switch classified {
	case models.StatusCompleted:
		return p.activate(ctx, order, n)

	case models.StatusFailed, models.StatusCancelled:
		if err := p.ledger.MarkStatus(ctx, n.OrderID, classified); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("failed to mark order %s: %w", classified, err)
		}
		if !order.Status.Terminal() {
			publishStateEvent(ctx, p.events, p.logger, n.OrderID, n.TransactionID, order.Status, classified)
		}
		outcome := OutcomeFailed
		if classified == models.StatusCancelled {
			outcome = OutcomeCancelled
		}
		return p.result(http.StatusOK, outcome, n), nil
	}

	return p.result(http.StatusOK, OutcomeUnknown, n), nil
}

// activate performs the pending→completed transition and synthesizes
// the entitlement. The ledger makes the transition and the plan insert
// atomic per orderId, so a duplicate delivery can never double-create.
func (p *WebhookProcessor) activate(ctx context.Context, order *models.PendingOrder, n *models.WebhookNotification) (*ProcessResult, error) {
	now := time.Now().UTC()

	customerName := ""
	if n.Customer != nil {
		customerName = n.Customer.FirstName
		if n.Customer.LastName != "" {
			if customerName != "" {
				customerName += " "
			}
			customerName += n.Customer.LastName
		}
	}

	plan := &models.ActivePlan{
		Name:          order.PlanName,
		Price:         order.Amount,
		PurchaseDate:  now,
		ExpiryDate:    now.AddDate(0, 0, p.cfg.PlanDurationDays),
		CustomerEmail: order.CustomerEmail,
		CustomerName:  customerName,
		TransactionID: n.TransactionID,
		PaymentMethod: n.PaymentMethod,
	}

	activated, err := p.ledger.MarkCompleted(ctx, order.OrderID, n.TransactionID, now, plan)
	if errors.Is(err, interfaces.ErrNotFound) {
		publishOrphanEvent(p.orphans, p.logger, n)
		return p.result(http.StatusOK, OutcomeOrphan, n), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to complete order: %w", err)
	}

	if !activated {
		p.logger.Info("Duplicate completion notification absorbed",
			zap.String("order_id", order.OrderID),
			zap.String("transaction_id", n.TransactionID),
		)
		return p.result(http.StatusOK, OutcomeAlreadyCompleted, n), nil
	}

	telemetry.RecordPlanActivated()
	publishStateEvent(ctx, p.events, p.logger, order.OrderID, n.TransactionID, models.StatusPending, models.StatusCompleted)
	p.logger.Info("Plan activated",
		zap.String("order_id", order.OrderID),
		zap.String("plan", plan.Name),
		zap.String("customer_email", plan.CustomerEmail),
		zap.Time("expiry_date", plan.ExpiryDate),
	)

	return p.result(http.StatusOK, OutcomeActivated, n), nil
}

func (p *WebhookProcessor) result(code int, outcome string, n *models.WebhookNotification) *ProcessResult {
	return &ProcessResult{
		Code:          code,
		Outcome:       outcome,
		OrderID:       n.OrderID,
		TransactionID: n.TransactionID,
	}
}
