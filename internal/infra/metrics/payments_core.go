package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments by terminal status (pending/succeeded/failed).",
		},
		[]string{"status", "class"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_rwf_total",
			Help: "Total RWF value of succeeded payments by class.",
		},
		[]string{"class"},
	)
)

func IncPayment(status, class string) {
	paymentsTotal.WithLabelValues(norm(status), norm(class)).Inc()
}

func AddPaymentRevenue(class string, amountRWF int64) {
	paymentsRevenueTotal.WithLabelValues(norm(class)).Add(float64(amountRWF))
}
