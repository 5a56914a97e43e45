package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mesalibre",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status class.",
		},
		[]string{"method", "route", "status"},
	)

	reservationDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mesalibre",
			Name:      "reservation_decisions_total",
			Help:      "Reservation approve/reject/cancel decisions.",
		},
		[]string{"decision"},
	)

	sessionReconciles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mesalibre",
			Name:      "session_reconcile_outcomes_total",
			Help:      "Session reconciliation outcomes per checked user.",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, reservationDecisions, sessionReconciles)
	})
}

// IncHTTP increments the request counter for a method, route and status class.
func IncHTTP(method, route, status string) {
	httpRequests.WithLabelValues(method, route, status).Inc()
}

// IncReservationDecision counts an approve, reject or cancel decision.
func IncReservationDecision(decision string) {
	reservationDecisions.WithLabelValues(decision).Inc()
}

// IncSessionReconcile counts a reconciliation outcome.
func IncSessionReconcile(outcome string) {
	sessionReconciles.WithLabelValues(outcome).Inc()
}
