package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		withdrawalsTotal,
		withdrawalsAmountTotal,
	)
}

var (
	withdrawalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "withdrawals_total",
			Help: "Withdrawals by terminal status and type.",
		},
		[]string{"status", "type"},
	)

	withdrawalsAmountTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "withdrawals_amount_rwf_total",
			Help: "Total RWF disbursed by withdrawal type (completed only).",
		},
		[]string{"type"},
	)
)

func IncWithdrawal(status, wtype string) {
	withdrawalsTotal.WithLabelValues(norm(status), norm(wtype)).Inc()
}

func AddWithdrawalAmount(wtype string, amountRWF int64) {
	withdrawalsAmountTotal.WithLabelValues(norm(wtype)).Add(float64(amountRWF))
}
