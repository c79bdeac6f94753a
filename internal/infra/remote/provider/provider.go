// Package provider implements the transport that talks to the CRM API.
//
// This package contains:
//   - Provider interface: core abstraction for a remote endpoint family
//   - HTTPProvider: REST over HTTP implementation for the Attio API
//   - EndpointMonitor: health and rate tracking for the endpoint
package provider

import (
	"context"
	"encoding/json"
	"time"
)

// Operation represents one remote call to execute. It abstracts the
// transport so the resilience layers stay transport-agnostic.
type Operation struct {
	// Name identifies the operation (e.g. "records.query").
	Name string

	// Method is the HTTP method for REST calls.
	Method string

	// Path is the endpoint path relative to the provider base URL.
	Path string

	// Body is the request payload, JSON-encoded when non-nil.
	Body any

	// Cost is the quota cost for this operation (default 1).
	Cost int

	// Invoke, when set, takes precedence over Method/Path/Body. Use it for
	// operations backed by other transports (e.g. generated gRPC clients);
	// their errors still flow through the same classifier.
	Invoke func(ctx context.Context) (json.RawMessage, error)
}

// Provider is the core interface for the remote endpoint family.
type Provider interface {
	// GetName returns the provider identifier (e.g. "attio").
	GetName() string

	// Execute performs the operation with monitoring and error tagging.
	// Failures are returned tagged with their HTTP status where one exists;
	// callers classify and sanitize them before exposure.
	Execute(ctx context.Context, op Operation) (json.RawMessage, error)

	// GetHealth returns current health metrics.
	GetHealth() HealthStatus

	// IsAvailable checks if the provider is healthy enough to use.
	IsAvailable() bool

	// Close cleans up resources.
	Close() error
}

// HealthStatus represents the health state of a provider.
type HealthStatus struct {
	Available     bool          `json:"available"`
	Latency       time.Duration `json:"latency"`
	ErrorRate     float64       `json:"error_rate"`
	LastSuccessAt time.Time     `json:"last_success_at"`
	LastFailureAt time.Time     `json:"last_failure_at"`
	MonitorStats  *MonitorStats `json:"monitor_stats,omitempty"`
}
