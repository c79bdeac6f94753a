package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/crmbridge/internal/bridge/metrics"
	"github.com/vietddude/crmbridge/internal/core/domain"
	"github.com/vietddude/crmbridge/internal/infra/remote/budget"
	"github.com/vietddude/crmbridge/internal/infra/remote/provider"
	"github.com/vietddude/crmbridge/internal/infra/remote/resilience"
	"github.com/vietddude/crmbridge/internal/infra/storage"
)

// Pinger checks reachability of an optional dependency (e.g. the cache).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor aggregates health status from the bridge's components.
type Monitor struct {
	breaker  *resilience.Breaker
	tracker  *budget.Tracker
	provider provider.Provider
	audit    storage.AuditRepository
	cache    Pinger

	mu         sync.Mutex
	lastCheck  time.Time
	lastReport *Report
}

// NewMonitor creates a new health monitor. cache may be nil when Redis is
// not configured.
func NewMonitor(
	breaker *resilience.Breaker,
	tracker *budget.Tracker,
	p provider.Provider,
	audit storage.AuditRepository,
	cache Pinger,
) *Monitor {
	return &Monitor{
		breaker:  breaker,
		tracker:  tracker,
		provider: p,
		audit:    audit,
		cache:    cache,
	}
}

// CheckHealth performs a health check across all components. Checks are rate
// limited to once per 10s; callers within the window get the cached report.
func (m *Monitor) CheckHealth(ctx context.Context) *Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastCheck) < 10*time.Second && m.lastReport != nil {
		return m.lastReport
	}

	report := &Report{Status: StatusHealthy}

	state := m.breaker.State()
	report.Breaker = BreakerHealth{
		State:        state.String(),
		FailureCount: m.breaker.FailureCount(),
	}
	if state == resilience.StateOpen {
		report.Status = StatusCritical
		metrics.BreakerState.WithLabelValues("attio").Set(1)
	} else {
		metrics.BreakerState.WithLabelValues("attio").Set(0)
	}

	usage := m.tracker.GetUsage()
	report.Quota = QuotaHealth{
		TotalCalls:      usage.TotalCalls,
		DailyLimit:      usage.DailyLimit,
		UsagePercentage: usage.UsagePercentage,
	}
	metrics.QuotaUsagePercent.Set(usage.UsagePercentage)
	if usage.DailyLimit > 0 && usage.UsagePercentage >= 100 {
		report.Status = worst(report.Status, StatusCritical)
	} else if usage.UsagePercentage > 85 {
		report.Status = worst(report.Status, StatusDegraded)
	}

	ph := m.provider.GetHealth()
	report.Provider = ProviderHealth{
		Available: ph.Available,
		ErrorRate: ph.ErrorRate,
		LatencyMs: ph.Latency.Milliseconds(),
	}
	if !ph.Available {
		report.Status = worst(report.Status, StatusDegraded)
	}

	report.Dependencies.AuditStore = "ok"
	if err := m.audit.Health(ctx); err != nil {
		report.Dependencies.AuditStore = "unreachable"
		report.Status = worst(report.Status, StatusDegraded)
	} else if counts, err := m.audit.CountByClassification(ctx, time.Now().Add(-24*time.Hour)); err == nil && len(counts) > 0 {
		report.Failures = counts
	}
	if m.cache != nil {
		report.Dependencies.Cache = "ok"
		if err := m.cache.Ping(ctx); err != nil {
			// Cache misses fall through to the CRM, so a dead cache only
			// degrades.
			report.Dependencies.Cache = "unreachable"
			report.Status = worst(report.Status, StatusDegraded)
		}
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}

// ResetBreaker forces the breaker closed. Administrative operation exposed
// via the health server.
func (m *Monitor) ResetBreaker() {
	m.breaker.Reset()
}

// AuditTrail returns the audit entries behind a reference ID reported by a
// caller, oldest first. Batch sub-calls share their parent's correlation ID.
func (m *Monitor) AuditTrail(ctx context.Context, correlationID string) ([]*domain.AuditEntry, error) {
	return m.audit.GetByCorrelationID(ctx, correlationID)
}

// RecentAudit returns the most recent audit entries, newest first.
func (m *Monitor) RecentAudit(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	return m.audit.GetRecent(ctx, limit)
}

func worst(a, b SystemStatus) SystemStatus {
	rank := map[SystemStatus]int{StatusHealthy: 0, StatusDegraded: 1, StatusCritical: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
