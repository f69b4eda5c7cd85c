package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	BookingsAdmitted   prometheus.Counter
	BookingsRejected   *prometheus.CounterVec
	PaymentsReconciled *prometheus.CounterVec
	AuthDenied         *prometheus.CounterVec

	RequestDuration *prometheus.HistogramVec
}

// New registers the metrics on reg. Pass prometheus.NewRegistry() in tests.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BookingsAdmitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_admitted_total",
			Help:      "Total number of bookings admitted and persisted",
		}),
		BookingsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_rejected_total",
			Help:      "Total number of booking requests rejected by the admission policy",
		}, []string{"reason"}),
		PaymentsReconciled: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_reconciled_total",
			Help:      "Total number of payment reconciliations by outcome",
		}, []string{"outcome"}),
		AuthDenied: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_denied_total",
			Help:      "Total number of requests denied by the authorization gate",
		}, []string{"status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "route", "status"}),
	}
}
