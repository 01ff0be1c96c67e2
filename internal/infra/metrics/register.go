package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once
	pending      []prometheus.Collector
)

// register queues a collector. Each metric file calls it from init so the
// whole payment surface lands in one MustRegister call at startup.
func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// MustRegister installs every queued collector with the default registry.
// Repeated calls are no-ops.
func MustRegister() {
	registerOnce.Do(func() {
		if len(pending) > 0 {
			prometheus.MustRegister(pending...)
		}
	})
}
