package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(gatewayCallsLatencyMs) }

var gatewayCallsLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "gateway_calls_latency_ms",
		Help:    "Mobile-money gateway call latency in milliseconds.",
		Buckets: []float64{25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000, 30000, 60000},
	},
	[]string{"op", "success"},
)

func ObserveGatewayCall(op string, success bool, d time.Duration) {
	gatewayCallsLatencyMs.WithLabelValues(norm(op), strconv.FormatBool(success)).
		Observe(float64(d.Milliseconds()))
}
