package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		webhookDeliveriesTotal,
		reconcilerRunsTotal,
		entitlementsExpired,
	)
}

var (
	webhookDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Gateway webhook deliveries by outcome (applied/stale/unknown/rejected).",
		},
		[]string{"outcome"},
	)

	reconcilerRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_reconciler_resolved_total",
			Help: "Pending payments resolved by the reconciler, by final status.",
		},
		[]string{"status"},
	)

	entitlementsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "entitlements_expired_total",
			Help: "Entitlement rows purged after expiry.",
		},
	)
)

func IncWebhookDelivery(outcome string) {
	webhookDeliveriesTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncReconciled(status string) {
	reconcilerRunsTotal.WithLabelValues(norm(status)).Inc()
}

func AddEntitlementsExpired(n int64) {
	entitlementsExpired.Add(float64(n))
}
