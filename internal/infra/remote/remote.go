// Package remote provides the resilient remote-operation layer for the CRM
// bridge.
//
// This package offers:
//   - Error classification and sanitization at the trust boundary
//   - Operation wrapping so no raw failure escapes
//   - Bounded-backoff retry for transient failures
//   - A circuit breaker per operation family
//   - Batch fan-out with per-item isolation and order preservation
//
// # Quick Start
//
//	import "github.com/vietddude/crmbridge/internal/infra/remote"
//
//	p := remote.NewHTTPProvider("attio", baseURL, apiKey, 30*time.Second)
//	breaker := remote.NewBreaker("attio", remote.DefaultBreakerConfig)
//	tracker := remote.NewTracker(100000)
//
//	opCtx := domain.NewOperationContext("records.query", "records")
//	fn := resilience.Wrap(func(ctx context.Context) (json.RawMessage, error) {
//	    return breaker.Execute(ctx, opCtx, func(ctx context.Context) (json.RawMessage, error) {
//	        return p.Execute(ctx, op)
//	    })
//	}, opCtx, logger)
//	result, err := resilience.Retry(ctx, fn, opCtx, remote.DefaultRetryPolicy)
//
// The generic helpers (resilience.Wrap, resilience.Retry, batch.Execute)
// live in their sub-packages; Go has no generic function aliases.
//
// # Package Structure
//
// The package is organized into sub-packages for maintainability:
//
//   - remoteerr/   - structured error, classifier, sanitizer
//   - provider/    - transport (HTTP REST provider, endpoint monitor)
//   - resilience/  - wrapper, retry executor, circuit breaker
//   - batch/       - fan-out executor
//   - budget/      - quota tracking and throttle delays
//
// Most types are re-exported at the root level for convenience.
package remote

import (
	"time"

	"github.com/vietddude/crmbridge/internal/infra/remote/batch"
	"github.com/vietddude/crmbridge/internal/infra/remote/budget"
	"github.com/vietddude/crmbridge/internal/infra/remote/provider"
	"github.com/vietddude/crmbridge/internal/infra/remote/remoteerr"
	"github.com/vietddude/crmbridge/internal/infra/remote/resilience"
)

// =============================================================================
// Re-exported types from remoteerr package
// =============================================================================

// RemoteError is the canonical sanitized error shape.
type RemoteError = remoteerr.RemoteError

// StatusError tags a failure with its upstream HTTP status.
type StatusError = remoteerr.StatusError

// ValidationError is raised by the mapping layer for malformed payloads.
type ValidationError = remoteerr.ValidationError

// Classify assigns a classification to a raw failure.
var Classify = remoteerr.Classify

// Sanitize turns a raw failure into a RemoteError.
var Sanitize = remoteerr.Sanitize

// =============================================================================
// Re-exported types from provider package
// =============================================================================

// Provider is the core interface for the remote endpoint family.
type Provider = provider.Provider

// HTTPProvider implements Provider for REST over HTTP.
type HTTPProvider = provider.HTTPProvider

// Operation represents one remote call (transport-agnostic).
type Operation = provider.Operation

// EndpointMonitor tracks endpoint health and rate limiting.
type EndpointMonitor = provider.EndpointMonitor

// MonitorStats holds monitoring statistics for the endpoint.
type MonitorStats = provider.MonitorStats

// HealthStatus represents the health state of a provider.
type HealthStatus = provider.HealthStatus

// Endpoint status constants
const (
	StatusHealthy   = provider.StatusHealthy
	StatusDegraded  = provider.StatusDegraded
	StatusThrottled = provider.StatusThrottled
	StatusBlocked   = provider.StatusBlocked
)

// NewHTTPProvider creates a new REST provider.
func NewHTTPProvider(name, baseURL, apiKey string, timeout time.Duration) *HTTPProvider {
	return provider.NewHTTPProvider(name, baseURL, apiKey, timeout)
}

// =============================================================================
// Re-exported types from resilience package
// =============================================================================

// RetryPolicy defines retry behavior.
type RetryPolicy = resilience.RetryPolicy

// Breaker fails fast once an operation family has failed too often.
type Breaker = resilience.Breaker

// BreakerConfig controls breaker thresholds.
type BreakerConfig = resilience.BreakerConfig

// BreakerState captures circuit breaker states.
type BreakerState = resilience.BreakerState

// Breaker state constants
const (
	StateClosed = resilience.StateClosed
	StateOpen   = resilience.StateOpen
)

// DefaultRetryPolicy provides sensible retry defaults.
var DefaultRetryPolicy = resilience.DefaultRetryPolicy

// DefaultBreakerConfig provides sensible breaker defaults.
var DefaultBreakerConfig = resilience.DefaultBreakerConfig

// NewBreaker creates a closed breaker for one operation family.
func NewBreaker(name string, config BreakerConfig) *Breaker {
	return resilience.NewBreaker(name, config)
}

// =============================================================================
// Re-exported types from budget package
// =============================================================================

// Tracker manages the daily call quota for the endpoint family.
type Tracker = budget.Tracker

// UsageStats holds quota usage statistics.
type UsageStats = budget.UsageStats

// BudgetConfig holds budget configuration.
type BudgetConfig = budget.Config

// NewTracker creates a new budget tracker.
func NewTracker(dailyLimit int) *Tracker {
	return budget.NewTracker(dailyLimit)
}

// =============================================================================
// Re-exported types from batch package
// =============================================================================

// BatchOptions tunes batch execution.
type BatchOptions = batch.Options

// MaxBatchItems is the cap on batch size.
const MaxBatchItems = batch.MaxItems
