package service

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/juriscalc/payment-bridge/internal/errs"
	"github.com/juriscalc/payment-bridge/internal/models"
	"github.com/juriscalc/payment-bridge/internal/signature"
)

func newPaymentService(t *testing.T, ledger *fakeLedger, gw *fakeGateway) (*PaymentService, *fakeEventWriter) {
	events := &fakeEventWriter{}
	svc := NewPaymentService(signature.New("gateway-secret"), gw, ledger, events, zaptest.NewLogger(t))
	return svc, events
}

func TestCreatePaymentRecordsPendingOrder(t *testing.T) {
	ledger := newFakeLedger()
	gw := &fakeGateway{outcome: &models.GatewayOutcome{FormToken: "ft-1", TransactionID: "T1"}}
	svc, events := newPaymentService(t, ledger, gw)

	result, err := svc.CreatePayment(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreatePayment returned error: %v", err)
	}
	if result.FormToken != "ft-1" || result.TransactionID != "T1" || result.OrderID != "ORD1" {
		t.Errorf("unexpected result: %+v", result)
	}

	order, err := ledger.FindByOrderID(context.Background(), "ORD1")
	if err != nil {
		t.Fatalf("pending order was not recorded: %v", err)
	}
	if order.Status != models.StatusPending {
		t.Errorf("order status = %s, want pending", order.Status)
	}
	if order.PlanName != "standard" || order.Amount != 1000 || order.CustomerEmail != "a@b.com" {
		t.Errorf("order fields not derived from request: %+v", order)
	}
	if len(events.messages) == 0 {
		t.Error("expected a state event for the new pending order")
	}
}

func TestCreatePaymentSignsExactForwardedBytes(t *testing.T) {
	ledger := newFakeLedger()
	gw := &fakeGateway{outcome: &models.GatewayOutcome{TransactionID: "T1"}}
	svc, _ := newPaymentService(t, ledger, gw)

	if _, err := svc.CreatePayment(context.Background(), validInput()); err != nil {
		t.Fatalf("CreatePayment returned error: %v", err)
	}

	payload := gw.lastPayload
	if payload == nil {
		t.Fatal("gateway never received a payload")
	}
	ok, err := signature.New("gateway-secret").Verify(payload.Body, payload.Digest)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if !ok {
		t.Error("digest does not match the forwarded bytes")
	}
}

func TestCreatePaymentRejectionMarksOrderFailed(t *testing.T) {
	ledger := newFakeLedger()
	gw := &fakeGateway{err: errs.GatewayRejected("gateway.CreatePayment", "gateway reported ERROR")}
	svc, _ := newPaymentService(t, ledger, gw)

	_, err := svc.CreatePayment(context.Background(), validInput())
	if !errs.IsKind(err, errs.KindGatewayRejected) {
		t.Fatalf("expected gateway-rejected error, got %v", err)
	}

	order, findErr := ledger.FindByOrderID(context.Background(), "ORD1")
	if findErr != nil {
		t.Fatalf("order missing from audit trail: %v", findErr)
	}
	if order.Status != models.StatusFailed {
		t.Errorf("order status = %s, want failed", order.Status)
	}
}

func TestCreatePaymentTransientErrorKeepsOrderPending(t *testing.T) {
	ledger := newFakeLedger()
	gw := &fakeGateway{err: errs.Transient("gateway.CreatePayment", "timeout", nil)}
	svc, _ := newPaymentService(t, ledger, gw)

	_, err := svc.CreatePayment(context.Background(), validInput())
	if !errs.IsKind(err, errs.KindTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}

	// The caller may retry with the same orderId; the pending record
	// stays in place for the retry to overwrite.
	order, findErr := ledger.FindByOrderID(context.Background(), "ORD1")
	if findErr != nil {
		t.Fatalf("order missing: %v", findErr)
	}
	if order.Status != models.StatusPending {
		t.Errorf("order status = %s, want pending", order.Status)
	}
}

func TestCreatePaymentEmptySigningKeyIsConfigurationError(t *testing.T) {
	ledger := newFakeLedger()
	gw := &fakeGateway{outcome: &models.GatewayOutcome{TransactionID: "T1"}}
	svc := NewPaymentService(signature.New(""), gw, ledger, nil, zaptest.NewLogger(t))

	_, err := svc.CreatePayment(context.Background(), validInput())
	if !errs.IsKind(err, errs.KindConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
	if gw.lastPayload != nil {
		t.Error("gateway must not be called without a signed payload")
	}
}

func TestCreatePaymentInvalidInputNeverReachesLedger(t *testing.T) {
	ledger := newFakeLedger()
	gw := &fakeGateway{outcome: &models.GatewayOutcome{TransactionID: "T1"}}
	svc, _ := newPaymentService(t, ledger, gw)

	input := validInput()
	input.Amount = -1

	_, err := svc.CreatePayment(context.Background(), input)
	if !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(ledger.orders) != 0 {
		t.Error("invalid input must not create pending orders")
	}
}
