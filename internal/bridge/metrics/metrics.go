package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ToolCallsTotal tracks tool invocations per tool and outcome
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmbridge_tool_calls_total",
			Help: "Total number of tool invocations",
		},
		[]string{"tool", "outcome"},
	)

	// RemoteCallsTotal tracks outbound CRM calls per operation
	RemoteCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmbridge_remote_calls_total",
			Help: "Total number of outbound CRM calls",
		},
		[]string{"operation"},
	)

	// RemoteErrorsTotal tracks failures per operation and classification
	RemoteErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmbridge_remote_errors_total",
			Help: "Total number of failed CRM calls",
		},
		[]string{"operation", "classification"},
	)

	// RemoteLatency tracks CRM call latency
	RemoteLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crmbridge_remote_latency_seconds",
			Help:    "CRM call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// BatchSize tracks how many items batch invocations carry
	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crmbridge_batch_size",
			Help:    "Number of items per batch invocation",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		},
	)

	// BreakerState tracks circuit breaker state (0 = closed, 1 = open)
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crmbridge_breaker_state",
			Help: "Circuit breaker state (0 = closed, 1 = open)",
		},
		[]string{"name"},
	)

	// BreakerTransitionsTotal tracks breaker state transitions
	BreakerTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmbridge_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "state"},
	)

	// QuotaUsagePercent tracks daily call quota usage
	QuotaUsagePercent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crmbridge_quota_usage_percent",
			Help: "Daily call quota usage percentage",
		},
	)
)
