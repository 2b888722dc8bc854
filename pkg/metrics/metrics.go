package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge
	RateLimited     prometheus.Counter

	TransitionsTotal    *prometheus.CounterVec
	IdentityValidations *prometheus.CounterVec
	AppointmentsBooked  prometheus.Counter
	WaitingMinutes      prometheus.Histogram
	ConsultationMinutes prometheus.Histogram

	EventsPublished   *prometheus.CounterVec
	AuditEntriesTotal prometheus.Counter
}

// NewCollector registers every metric on reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration panics.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	minuteBuckets := []float64{1, 5, 10, 15, 20, 30, 45, 60, 90, 120}

	return &Collector{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "route", "status"}),

		InFlightGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),

		TransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consultation",
			Name:      "transitions_total",
			Help:      "Consultation flow transitions by name and outcome kind.",
		}, []string{"transition", "outcome"}),

		IdentityValidations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consultation",
			Name:      "identity_validations_total",
			Help:      "Identity validations recorded by validator role.",
		}, []string{"role"}),

		AppointmentsBooked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "appointments_booked_total",
			Help:      "Total appointments booked.",
		}),

		WaitingMinutes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "consultation",
			Name:      "waiting_minutes",
			Help:      "Minutes between arrival and consultation start.",
			Buckets:   minuteBuckets,
		}),

		ConsultationMinutes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "consultation",
			Name:      "duration_minutes",
			Help:      "Minutes between consultation start and end.",
			Buckets:   minuteBuckets,
		}),

		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Appointment events published by outcome.",
		}, []string{"outcome"}),

		AuditEntriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "entries_total",
			Help:      "Total audit log entries written.",
		}),
	}
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
