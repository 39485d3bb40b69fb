package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the cooperative module.
type Metrics struct {
	Created           prometheus.Counter
	Activated         prometheus.Counter
	StatusChanges     *prometheus.CounterVec
	Deleted           prometheus.Counter
	OperationDuration *prometheus.HistogramVec
}

// New registers the cooperative metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers on reg; tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Created: factory.NewCounter(prometheus.CounterOpts{
			Name: "coopreg_cooperatives_created_total",
			Help: "Total number of cooperatives created",
		}),
		Activated: factory.NewCounter(prometheus.CounterOpts{
			Name: "coopreg_cooperatives_activated_total",
			Help: "Total number of self-service activations moved to processing",
		}),
		StatusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coopreg_cooperative_status_changes_total",
			Help: "Administrative cooperative status changes by target status",
		}, []string{"status"}),
		Deleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "coopreg_cooperatives_deleted_total",
			Help: "Total number of cooperatives deleted",
		}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coopreg_cooperative_operation_duration_seconds",
			Help:    "Duration of cooperative lifecycle operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementCreated() {
	m.Created.Inc()
}

func (m *Metrics) IncrementActivated() {
	m.Activated.Inc()
}

func (m *Metrics) IncrementStatusChange(status string) {
	m.StatusChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementDeleted() {
	m.Deleted.Inc()
}

// ObserveOperation records the duration of op.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(op string, start time.Time) {
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
