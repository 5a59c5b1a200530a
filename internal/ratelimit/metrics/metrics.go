package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RateLimitRejected    prometheus.Counter
	RateLimitStoreErrors prometheus.Counter
	RateLimitDegraded    prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RateLimitRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "clientele_ratelimit_rejected_total",
			Help: "Total number of requests rejected with 429",
		}),
		RateLimitStoreErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "clientele_ratelimit_store_errors_total",
			Help: "Total number of failed checks against the primary rate limit store",
		}),
		RateLimitDegraded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "clientele_ratelimit_degraded",
			Help: "1 while the in-memory fallback serves rate limit checks, else 0",
		}),
	}
}

func (m *Metrics) IncrementRejected() {
	m.RateLimitRejected.Inc()
}

func (m *Metrics) IncrementStoreErrors() {
	m.RateLimitStoreErrors.Inc()
}

func (m *Metrics) SetDegraded(degraded bool) {
	if degraded {
		m.RateLimitDegraded.Set(1)
		return
	}
	m.RateLimitDegraded.Set(0)
}
