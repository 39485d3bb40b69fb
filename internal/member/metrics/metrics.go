package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the member registry.
type Metrics struct {
	Created           prometheus.Counter
	Deleted           prometheus.Counter
	StatusChanges     *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Created: factory.NewCounter(prometheus.CounterOpts{
			Name: "coopreg_members_created_total",
			Help: "Total number of members created",
		}),
		Deleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "coopreg_members_deleted_total",
			Help: "Total number of members deleted",
		}),
		StatusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coopreg_member_status_changes_total",
			Help: "Member status changes by resulting active flag",
		}, []string{"active"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coopreg_member_operation_duration_seconds",
			Help:    "Duration of member registry operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementCreated() {
	m.Created.Inc()
}

func (m *Metrics) IncrementDeleted() {
	m.Deleted.Inc()
}

func (m *Metrics) IncrementStatusChange(active bool) {
	m.StatusChanges.WithLabelValues(strconv.FormatBool(active)).Inc()
}

// ObserveOperation records the duration of op.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(op string, start time.Time) {
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
