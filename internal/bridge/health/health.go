// Package health provides system health monitoring and status reporting.
package health

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Report contains the full system health report.
type Report struct {
	Status       SystemStatus     `json:"status"`
	Breaker      BreakerHealth    `json:"breaker"`
	Quota        QuotaHealth      `json:"quota"`
	Provider     ProviderHealth   `json:"provider"`
	Dependencies DependencyHealth `json:"dependencies"`
	Failures     map[string]int   `json:"failures_24h,omitempty"`
}

// BreakerHealth reports the circuit breaker guarding the CRM endpoint.
type BreakerHealth struct {
	State        string `json:"state"`
	FailureCount int    `json:"failure_count"`
}

// QuotaHealth reports daily quota consumption.
type QuotaHealth struct {
	TotalCalls      int     `json:"total_calls"`
	DailyLimit      int     `json:"daily_limit"`
	UsagePercentage float64 `json:"usage_percentage"`
}

// ProviderHealth reports transport-level endpoint health.
type ProviderHealth struct {
	Available bool    `json:"available"`
	ErrorRate float64 `json:"error_rate"`
	LatencyMs int64   `json:"latency_ms"`
}

// DependencyHealth reports reachability of backing services.
type DependencyHealth struct {
	AuditStore string `json:"audit_store"`
	Cache      string `json:"cache,omitempty"`
}
