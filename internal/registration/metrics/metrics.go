package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration workflow.
type Metrics struct {
	Submitted         prometheus.Counter
	StatusChanges     *prometheus.CounterVec
	MembersPromoted   prometheus.Counter
	Deleted           prometheus.Counter
	OperationDuration *prometheus.HistogramVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Submitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "coopreg_registrations_submitted_total",
			Help: "Total number of registrations submitted",
		}),
		StatusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coopreg_registration_status_changes_total",
			Help: "Registration approval toggles by resulting approval state",
		}, []string{"approved"}),
		MembersPromoted: factory.NewCounter(prometheus.CounterOpts{
			Name: "coopreg_registration_member_promotions_total",
			Help: "Member records updated as a side effect of a registration status change",
		}),
		Deleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "coopreg_registrations_deleted_total",
			Help: "Total number of registrations deleted",
		}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coopreg_registration_operation_duration_seconds",
			Help:    "Duration of registration workflow operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementSubmitted() {
	m.Submitted.Inc()
}

func (m *Metrics) IncrementStatusChange(approved bool) {
	m.StatusChanges.WithLabelValues(strconv.FormatBool(approved)).Inc()
}

func (m *Metrics) IncrementMembersPromoted() {
	m.MembersPromoted.Inc()
}

func (m *Metrics) IncrementDeleted() {
	m.Deleted.Inc()
}

func (m *Metrics) ObserveOperation(op string, start time.Time) {
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
