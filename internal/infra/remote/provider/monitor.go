package provider

import (
	"strings"
	"sync"
	"time"
)

// EndpointStatus represents the health state of the endpoint family.
type EndpointStatus int

const (
	StatusHealthy   EndpointStatus = iota // Endpoint is working normally
	StatusDegraded                        // Endpoint is slow but working
	StatusThrottled                       // Endpoint is rate limiting
	StatusBlocked                         // Endpoint has blocked this client
)

func (s EndpointStatus) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusThrottled:
		return "throttled"
	case StatusBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// MonitorStats holds monitoring statistics for the endpoint.
type MonitorStats struct {
	Status            EndpointStatus `json:"status"`
	StatusText        string         `json:"status_text"`
	AverageLatency    time.Duration  `json:"average_latency"`
	ThrottleCount429  int            `json:"throttle_count_429"`
	ThrottleCount403  int            `json:"throttle_count_403"`
	RequestsLast1Hour int            `json:"requests_last_1h"`
}

// EndpointMonitor tracks endpoint health and rate limiting.
type EndpointMonitor struct {
	mu sync.RWMutex

	// Response time tracking
	recentLatencies  []time.Duration
	maxLatencyWindow int

	// Error tracking
	status429Count     int
	status403Count     int
	throttlePatterns   []string
	lastThrottleTime   time.Time
	retryAfterDuration time.Duration

	// Sliding window
	requestTimestamps []time.Time
	windowDuration    time.Duration

	// Thresholds
	slowResponseThreshold time.Duration
}

// NewEndpointMonitor creates a new monitor with default settings.
func NewEndpointMonitor() *EndpointMonitor {
	return &EndpointMonitor{
		recentLatencies:  make([]time.Duration, 0, 100),
		maxLatencyWindow: 100,
		throttlePatterns: []string{
			"rate limit exceeded",
			"too many requests",
			"request quota",
			"plan limit",
		},
		requestTimestamps:     make([]time.Time, 0),
		windowDuration:        time.Hour,
		slowResponseThreshold: 3 * time.Second,
	}
}

// RecordRequest records a successful request with its latency.
func (em *EndpointMonitor) RecordRequest(latency time.Duration) {
	em.mu.Lock()
	defer em.mu.Unlock()

	now := time.Now()

	em.recentLatencies = append(em.recentLatencies, latency)
	if len(em.recentLatencies) > em.maxLatencyWindow {
		em.recentLatencies = em.recentLatencies[1:]
	}

	em.requestTimestamps = append(em.requestTimestamps, now)

	cutoff := now.Add(-em.windowDuration)
	filtered := em.requestTimestamps[:0]
	for _, t := range em.requestTimestamps {
		if t.After(cutoff) {
			filtered = append(filtered, t)
		}
	}
	em.requestTimestamps = filtered
}

// RecordThrottle records a rate limiting or blocking response.
func (em *EndpointMonitor) RecordThrottle(statusCode int, retryAfter string) {
	em.mu.Lock()
	defer em.mu.Unlock()

	em.lastThrottleTime = time.Now()

	if statusCode == 429 {
		em.status429Count++
		em.retryAfterDuration = 60 * time.Second
		if retryAfter != "" {
			if d, err := time.ParseDuration(retryAfter + "s"); err == nil {
				em.retryAfterDuration = d
			}
		}
	}

	if statusCode == 403 {
		em.status403Count++
		em.retryAfterDuration = 10 * time.Minute
	}
}

// DetectThrottlePattern checks if a message contains throttle patterns.
func (em *EndpointMonitor) DetectThrottlePattern(message string) bool {
	em.mu.RLock()
	defer em.mu.RUnlock()

	lowerMsg := strings.ToLower(message)

	for _, pattern := range em.throttlePatterns {
		if strings.Contains(lowerMsg, pattern) {
			return true
		}
	}

	return false
}

// CheckStatus returns the current status of the endpoint.
func (em *EndpointMonitor) CheckStatus() EndpointStatus {
	em.mu.RLock()
	defer em.mu.RUnlock()

	if em.status403Count > 0 && time.Since(em.lastThrottleTime) < em.retryAfterDuration {
		return StatusBlocked
	}

	if em.status429Count > 5 && time.Since(em.lastThrottleTime) < em.retryAfterDuration {
		return StatusThrottled
	}

	if len(em.recentLatencies) > 10 {
		var total time.Duration
		for _, lat := range em.recentLatencies {
			total += lat
		}
		avg := total / time.Duration(len(em.recentLatencies))

		if avg > em.slowResponseThreshold {
			return StatusDegraded
		}
	}

	return StatusHealthy
}

// GetRetryAfter returns remaining time before retry is allowed.
func (em *EndpointMonitor) GetRetryAfter() time.Duration {
	em.mu.RLock()
	defer em.mu.RUnlock()

	if em.retryAfterDuration > 0 {
		remaining := em.retryAfterDuration - time.Since(em.lastThrottleTime)
		if remaining > 0 {
			return remaining
		}
	}

	return 0
}

// GetAverageLatency returns the average latency of recent requests.
func (em *EndpointMonitor) GetAverageLatency() time.Duration {
	em.mu.RLock()
	defer em.mu.RUnlock()

	if len(em.recentLatencies) == 0 {
		return 0
	}

	var total time.Duration
	for _, lat := range em.recentLatencies {
		total += lat
	}

	return total / time.Duration(len(em.recentLatencies))
}

// GetStats returns current monitoring statistics.
func (em *EndpointMonitor) GetStats() MonitorStats {
	status := em.CheckStatus()
	avgLatency := em.GetAverageLatency()

	em.mu.RLock()
	defer em.mu.RUnlock()

	return MonitorStats{
		Status:            status,
		StatusText:        status.String(),
		AverageLatency:    avgLatency,
		ThrottleCount429:  em.status429Count,
		ThrottleCount403:  em.status403Count,
		RequestsLast1Hour: len(em.requestTimestamps),
	}
}
