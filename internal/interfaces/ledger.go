package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/juriscalc/payment-bridge/internal/models"
)

// ErrNotFound signals a lookup miss. Not a pipeline error: a webhook
// may legitimately arrive before its pending order exists.
var ErrNotFound = errors.New("pending order not found")

// PendingOrderLedger is the durable orderId-keyed order store. The
// ledger owns all PendingOrder mutation; implementations must make
// MarkCompleted atomic per orderId so racing duplicate deliveries
// cannot both activate.
type PendingOrderLedger interface {
	// Put inserts or overwrites the record for order.OrderID.
	// Last write wins; callers only re-Put as an explicit correction.
	Put(ctx context.Context, order *models.PendingOrder) error

	// FindByOrderID returns ErrNotFound on a miss.
	FindByOrderID(ctx context.Context, orderID string) (*models.PendingOrder, error)

	// MarkCompleted transitions a pending order to completed, stamps
	// activatedAt, and persists plan in the same transaction. Returns
	// activated=false with a nil error when the order was already
	// completed (idempotent re-delivery) or in another terminal state.
	MarkCompleted(ctx context.Context, orderID, transactionID string, activatedAt time.Time, plan *models.ActivePlan) (activated bool, err error)

	// MarkStatus moves a pending order to status. Terminal states are
	// never overwritten; doing so is a silent no-op.
	MarkStatus(ctx context.Context, orderID string, status models.OrderStatus) error

	// ActivePlansByEmail lists the entitlements held by a customer.
	ActivePlansByEmail(ctx context.Context, email string) ([]models.ActivePlan, error)
}
