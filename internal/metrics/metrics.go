package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "portalen",
			Name:      "bookings_created_total",
			Help:      "Bookings accepted by the scheduling engine.",
		},
	)

	bookingsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portalen",
			Name:      "bookings_rejected_total",
			Help:      "Booking requests rejected, by reason.",
		},
		[]string{"reason"},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portalen",
			Name:      "booking_transitions_total",
			Help:      "Booking lifecycle transitions applied, by target status.",
		},
		[]string{"status"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portalen",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	availabilityDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "portalen",
			Name:      "availability_resolve_seconds",
			Help:      "Time spent resolving daily availability snapshots.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			bookingsCreated,
			bookingsRejected,
			statusTransitions,
			httpRequests,
			availabilityDuration,
		)
	})
}

// IncBookingCreated counts an accepted booking.
func IncBookingCreated() {
	bookingsCreated.Inc()
}

// IncBookingRejected counts a rejection by reason label
// (conflict, outside_area, validation).
func IncBookingRejected(reason string) {
	bookingsRejected.WithLabelValues(reason).Inc()
}

// IncTransition counts an applied lifecycle transition.
func IncTransition(status string) {
	statusTransitions.WithLabelValues(status).Inc()
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// ObserveAvailabilityResolve records one snapshot resolution duration.
func ObserveAvailabilityResolve(seconds float64) {
	availabilityDuration.Observe(seconds)
}
