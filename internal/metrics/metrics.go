// Package metrics defines the Prometheus collectors exported by the service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Booking outcomes recorded on bookings_total.
const (
	OutcomeCreated        = "created"
	OutcomeConflict       = "conflict"
	OutcomePaymentFailed  = "payment_failed"
	OutcomeRejected       = "rejected"
	OutcomeError          = "error"
	OutcomeCancelled      = "cancelled"
	OutcomeRefundSuccess  = "succeeded"
	OutcomeRefundFailed   = "failed"
	OutcomeRefundEnqueued = "enqueued"
)

// Scheduled job outcomes recorded on scheduler_job_runs_total.
const (
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
	JobPanicked  = "panicked"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// outcome: created, conflict, payment_failed, rejected, error, cancelled
	BookingsTotal *prometheus.CounterVec

	// action: make_available, block, set_maintenance
	BulkSlotsChanged *prometheus.CounterVec

	// outcome: succeeded, failed, enqueued
	RefundsTotal *prometheus.CounterVec

	BookingsCompleted prometheus.Counter

	// job, outcome: succeeded, failed, panicked
	JobRuns *prometheus.CounterVec
}

// New registers the collectors with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		BookingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookings_total",
				Help: "Booking lifecycle operations by outcome",
			},
			[]string{"outcome"},
		),
		BulkSlotsChanged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bulk_slots_changed_total",
				Help: "Slots written by owner bulk operations",
			},
			[]string{"action"},
		),
		RefundsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "refunds_total",
				Help: "Refund attempts by outcome",
			},
			[]string{"outcome"},
		),
		BookingsCompleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bookings_completed_total",
				Help: "Bookings moved to completed by the completion sweep",
			},
		),
		JobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduler_job_runs_total",
				Help: "Scheduled job runs by job and outcome",
			},
			[]string{"job", "outcome"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BookingsTotal,
		m.BulkSlotsChanged,
		m.RefundsTotal,
		m.BookingsCompleted,
		m.JobRuns,
	)

	return m
}

func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func (m *Metrics) Booking(outcome string) {
	if m == nil {
		return
	}
	m.BookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) BulkSlots(action string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BulkSlotsChanged.WithLabelValues(action).Add(float64(n))
}

func (m *Metrics) Refund(outcome string) {
	if m == nil {
		return
	}
	m.RefundsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Completed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BookingsCompleted.Add(float64(n))
}

func (m *Metrics) JobRun(job, outcome string) {
	if m == nil {
		return
	}
	m.JobRuns.WithLabelValues(job, outcome).Inc()
}
