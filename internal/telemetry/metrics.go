package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	paymentsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_created_total",
			Help: "Create-payment requests by result",
		},
		[]string{"result"},
	)

	webhookNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_notifications_total",
			Help: "Webhook deliveries by reconciliation outcome",
		},
		[]string{"outcome"},
	)

	orphanNotificationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_orphan_notifications_total",
			Help: "Webhooks referencing an orderId with no pending order",
		},
	)

	plansActivatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plans_activated_total",
			Help: "Active plans created from completed payments",
		},
	)
)

func RecordPaymentCreated(result string) {
	paymentsCreatedTotal.WithLabelValues(result).Inc()
}

func RecordWebhookOutcome(outcome string) {
	webhookNotificationsTotal.WithLabelValues(outcome).Inc()
}

func RecordOrphanNotification() {
	orphanNotificationsTotal.Inc()
}

func RecordPlanActivated() {
	plansActivatedTotal.Inc()
}
