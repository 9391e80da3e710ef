package service

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/juriscalc/payment-bridge/internal/interfaces"
	"github.com/juriscalc/payment-bridge/internal/models"
)

// fakeLedger is an in-memory PendingOrderLedger mirroring the
// repository's idempotency semantics.
type fakeLedger struct {
	mu     sync.Mutex
	orders map[string]*models.PendingOrder
	plans  []models.ActivePlan
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{orders: make(map[string]*models.PendingOrder)}
}

func (f *fakeLedger) Put(_ context.Context, order *models.PendingOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *order
	f.orders[order.OrderID] = &cp
	return nil
}

func (f *fakeLedger) FindByOrderID(_ context.Context, orderID string) (*models.PendingOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (f *fakeLedger) MarkCompleted(_ context.Context, orderID, _ string, activatedAt time.Time, plan *models.ActivePlan) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return false, interfaces.ErrNotFound
	}
	if order.Status != models.StatusPending {
		return false, nil
	}
	order.Status = models.StatusCompleted
	order.ActivatedAt = &activatedAt
	if plan != nil {
		f.plans = append(f.plans, *plan)
	}
	return true, nil
}

func (f *fakeLedger) MarkStatus(_ context.Context, orderID string, status models.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return interfaces.ErrNotFound
	}
	if order.Status.Terminal() {
		return nil
	}
	order.Status = status
	return nil
}

func (f *fakeLedger) ActivePlansByEmail(_ context.Context, email string) ([]models.ActivePlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ActivePlan
	for _, p := range f.plans {
		if p.CustomerEmail == email {
			out = append(out, p)
		}
	}
	return out, nil
}

type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLocker() *memLocker {
	return &memLocker{held: make(map[string]bool)}
}

func (l *memLocker) TryLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *memLocker) Unlock(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

type fakeEventWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
}

func (w *fakeEventWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, msgs...)
	return nil
}

type fakeOrphanPublisher struct {
	mu        sync.Mutex
	published [][]byte
	subjects  []string
}

func (p *fakeOrphanPublisher) Publish(subj string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subj)
	p.published = append(p.published, data)
	return nil
}

type fakeGateway struct {
	outcome *models.GatewayOutcome
	err     error

	lastPayload *models.SignedPayload
}

func (g *fakeGateway) CreatePayment(_ context.Context, payload *models.SignedPayload) (*models.GatewayOutcome, error) {
	g.lastPayload = payload
	if g.err != nil {
		return nil, g.err
	}
	return g.outcome, nil
}
