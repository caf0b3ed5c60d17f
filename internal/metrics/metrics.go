// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transfer paths.
const (
	PathAtomic     = "atomic"
	PathSequential = "sequential"
)

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "finanzas",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total HTTP requests by route and status code.",
}, []string{"route", "code"})

var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "finanzas",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by route.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route"})

var Transfers = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "finanzas",
	Subsystem: "savings",
	Name:      "transfers_total",
	Help:      "Savings transfers by write path and outcome.",
}, []string{"path", "outcome"})

var TransferRetries = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "finanzas",
	Subsystem: "savings",
	Name:      "goal_write_retries_total",
	Help:      "Retried goal-balance writes on the sequential transfer path.",
})

var DriftAlerts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "finanzas",
	Subsystem: "consistency",
	Name:      "drift_alerts_total",
	Help:      "Partial failures reported to an operator, by kind.",
}, []string{"kind"})

var InstallmentPayments = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "finanzas",
	Subsystem: "installments",
	Name:      "payments_total",
	Help:      "Recorded installment payments by linked-transaction outcome.",
}, []string{"link"})

var ExtractionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "finanzas",
	Subsystem: "extract",
	Name:      "requests_total",
	Help:      "Receipt and voice extractions by kind and result (hit, miss, error).",
}, []string{"kind", "result"})

var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "finanzas",
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Write requests rejected by the per-user rate limiter.",
})

var DriftAlertsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "finanzas",
	Subsystem: "worker",
	Name:      "drift_alerts_received_total",
	Help:      "Drift alerts consumed by the worker, by kind and disposition.",
}, []string{"kind", "disposition"})
