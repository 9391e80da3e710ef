package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/juriscalc/payment-bridge/internal/models"
	"github.com/juriscalc/payment-bridge/internal/telemetry"
)

// OrphanSubject is the NATS subject carrying orphan-notification
// observability events.
const OrphanSubject = "webhooks.orphaned"

// StateEventWriter is the slice of *kafka.Writer the services need.
type StateEventWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OrphanPublisher is the slice of *nats.Conn the webhook processor
// needs.
type OrphanPublisher interface {
	Publish(subj string, data []byte) error
}

// publishStateEvent emits an order state change to the event stream.
// Best effort: a broker outage must not fail a payment that the ledger
// already recorded.
func publishStateEvent(ctx context.Context, w StateEventWriter, logger *zap.Logger, orderID, transactionID string, from, to models.OrderStatus) {
	if w == nil {
		return
	}

	event := models.OrderStateEvent{
		OrderID:       orderID,
		State:         string(to),
		PreviousState: string(from),
		TransactionID: transactionID,
		Timestamp:     time.Now().UTC(),
	}
	value, _ := json.Marshal(event)

	if err := w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(orderID),
		Value: value,
	}); err != nil {
		logger.Error("Failed to publish order state event",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return
	}

	logger.Info("Order state transition",
		zap.String("order_id", orderID),
		zap.String("from_state", string(from)),
		zap.String("to_state", string(to)),
	)
}

// publishOrphanEvent reports a webhook that matched no pending order.
func publishOrphanEvent(p OrphanPublisher, logger *zap.Logger, n *models.WebhookNotification) {
	telemetry.RecordOrphanNotification()

	if p == nil {
		return
	}

	event := models.OrphanNotificationEvent{
		OrderID:       n.OrderID,
		TransactionID: n.TransactionID,
		Status:        n.Status,
		ReceivedAt:    time.Now().UTC(),
	}
	data, _ := json.Marshal(event)

	if err := p.Publish(OrphanSubject, data); err != nil {
		logger.Error("Failed to publish orphan notification event",
			zap.String("order_id", n.OrderID),
			zap.Error(err),
		)
	}
}
