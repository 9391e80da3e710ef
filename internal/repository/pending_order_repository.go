package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/juriscalc/payment-bridge/internal/interfaces"
	"github.com/juriscalc/payment-bridge/internal/models"
)

// PendingOrderRepository is the Postgres-backed PendingOrderLedger.
// Idempotency relies on conditional UPDATEs: a transition only wins if
// the row is still in the state it is transitioning from.
type PendingOrderRepository struct {
	db *sql.DB
}

func NewPendingOrderRepository(db *sql.DB) *PendingOrderRepository {
	return &PendingOrderRepository{db: db}
}

func (r *PendingOrderRepository) InitDB() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS pending_orders (
			order_id VARCHAR(255) PRIMARY KEY,
			plan_name VARCHAR(100) NOT NULL,
			amount BIGINT NOT NULL,
			currency VARCHAR(3) NOT NULL,
			customer_email VARCHAR(255) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			transaction_id VARCHAR(255),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			activated_at TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pending_orders_status ON pending_orders(status)`,
		`CREATE TABLE IF NOT EXISTS active_plans (
			id SERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			price BIGINT NOT NULL,
			purchase_date TIMESTAMP NOT NULL,
			expiry_date TIMESTAMP NOT NULL,
			customer_email VARCHAR(255) NOT NULL,
			customer_name VARCHAR(255),
			transaction_id VARCHAR(255) NOT NULL,
			payment_method VARCHAR(50)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_active_plans_email ON active_plans(customer_email)`,
	}

	for _, query := range queries {
		if _, err := r.db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

func (r *PendingOrderRepository) Put(ctx context.Context, order *models.PendingOrder) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pending_orders (order_id, plan_name, amount, currency, customer_email, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (order_id) DO UPDATE
		SET plan_name = EXCLUDED.plan_name,
		    amount = EXCLUDED.amount,
		    currency = EXCLUDED.currency,
		    customer_email = EXCLUDED.customer_email,
		    status = EXCLUDED.status
	`, order.OrderID, order.PlanName, order.Amount, order.Currency, order.CustomerEmail, order.Status, order.CreatedAt)
	return err
}

func (r *PendingOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*models.PendingOrder, error) {
	var order models.PendingOrder
	var activatedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT order_id, plan_name, amount, currency, customer_email, status, created_at, activated_at
		FROM pending_orders WHERE order_id = $1
	`, orderID).Scan(&order.OrderID, &order.PlanName, &order.Amount, &order.Currency,
		&order.CustomerEmail, &order.Status, &order.CreatedAt, &activatedAt)
	if err == sql.ErrNoRows {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if activatedAt.Valid {
		order.ActivatedAt = &activatedAt.Time
	}
	return &order, nil
}

// MarkCompleted performs the pending→completed compare-and-set and the
// ActivePlan insert in one transaction. Two racing duplicate deliveries
// for the same orderId cannot both see RowsAffected == 1, so at most
// one plan is ever created.
func (r *PendingOrderRepository) MarkCompleted(ctx context.Context, orderID, transactionID string, activatedAt time.Time, plan *models.ActivePlan) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE pending_orders
		SET status = $1, activated_at = $2, transaction_id = $3
		WHERE order_id = $4 AND status = $5
	`, models.StatusCompleted, activatedAt, transactionID, orderID, models.StatusPending)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	if rows == 0 {
		// Lost the race or re-delivered. Distinguish "already handled"
		// from "never existed".
		var status models.OrderStatus
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM pending_orders WHERE order_id = $1`, orderID).Scan(&status)
		if err == sql.ErrNoRows {
			return false, interfaces.ErrNotFound
		}
		if err != nil {
			return false, err
		}
		return false, tx.Commit()
	}

	if plan != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO active_plans (name, price, purchase_date, expiry_date, customer_email, customer_name, transaction_id, payment_method)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, plan.Name, plan.Price, plan.PurchaseDate, plan.ExpiryDate,
			plan.CustomerEmail, plan.CustomerName, plan.TransactionID, plan.PaymentMethod)
		if err != nil {
			return false, fmt.Errorf("failed to insert active plan: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *PendingOrderRepository) MarkStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE pending_orders
		SET status = $1
		WHERE order_id = $2 AND status = $3
	`, status, orderID, models.StatusPending)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var current models.OrderStatus
		err := r.db.QueryRowContext(ctx,
			`SELECT status FROM pending_orders WHERE order_id = $1`, orderID).Scan(&current)
		if err == sql.ErrNoRows {
			return interfaces.ErrNotFound
		}
		// Terminal states stay as they are.
		return err
	}
	return nil
}

func (r *PendingOrderRepository) ActivePlansByEmail(ctx context.Context, email string) ([]models.ActivePlan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, price, purchase_date, expiry_date, customer_email, customer_name, transaction_id, payment_method
		FROM active_plans WHERE customer_email = $1
		ORDER BY purchase_date DESC
	`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []models.ActivePlan
	for rows.Next() {
		var p models.ActivePlan
		var name, method sql.NullString
		if err := rows.Scan(&p.Name, &p.Price, &p.PurchaseDate, &p.ExpiryDate,
			&p.CustomerEmail, &name, &p.TransactionID, &method); err != nil {
			return nil, err
		}
		p.CustomerName = name.String
		p.PaymentMethod = method.String
		plans = append(plans, p)
	}
	return plans, rows.Err()
}
