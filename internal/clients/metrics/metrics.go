package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the clients module.
// Tracks lifecycle counts, uniqueness conflicts and operation durations.
type Metrics struct {
	ClientsCreated     prometheus.Counter
	ClientsUpdated     prometheus.Counter
	ClientsDeactivated prometheus.Counter
	Conflicts          *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
}

// New registers the clients module metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ClientsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "clientele_clients_created_total",
			Help: "Total number of clients registered",
		}),
		ClientsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "clientele_clients_updated_total",
			Help: "Total number of client updates applied",
		}),
		ClientsDeactivated: factory.NewCounter(prometheus.CounterOpts{
			Name: "clientele_clients_deactivated_total",
			Help: "Total number of clients soft-deleted",
		}),
		Conflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clientele_clients_conflicts_total",
			Help: "Writes rejected because a document or email is already in use",
		}, []string{"field"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clientele_clients_operation_duration_seconds",
			Help:    "Duration of client service operations",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementCreated() {
	m.ClientsCreated.Inc()
}

func (m *Metrics) IncrementUpdated() {
	m.ClientsUpdated.Inc()
}

func (m *Metrics) IncrementDeactivated() {
	m.ClientsDeactivated.Inc()
}

// IncrementConflict records a uniqueness rejection on field ("document" or "email").
func (m *Metrics) IncrementConflict(field string) {
	m.Conflicts.WithLabelValues(field).Inc()
}

// ObserveOperation records the duration of a service operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
