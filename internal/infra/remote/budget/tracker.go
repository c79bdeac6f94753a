// Package budget tracks call quota for the CRM endpoint family and supplies
// throttle delays when the daily allocation runs low.
package budget

import (
	"sync"
	"time"
)

// UsageStats holds quota usage statistics.
type UsageStats struct {
	TotalCalls      int       `json:"total_calls"`
	CallsThisHour   int       `json:"calls_this_hour"`
	DailyLimit      int       `json:"daily_limit"`
	RemainingCalls  int       `json:"remaining_calls"`
	UsagePercentage float64   `json:"usage_percentage"`
	NextResetAt     time.Time `json:"next_reset_at"`
}

// Config holds budget configuration.
type Config struct {
	DailyQuota int `yaml:"daily_quota"`
}

// Tracker manages the daily call quota for one endpoint family. A zero
// daily limit means unlimited.
type Tracker struct {
	mu sync.RWMutex

	dailyLimit    int
	totalCalls    int
	callsThisHour int
	hourStartTime time.Time
	opCalls       map[string]int
	resetTime     time.Time
	resetInterval time.Duration
}

// NewTracker creates a tracker that resets at local midnight.
func NewTracker(dailyLimit int) *Tracker {
	now := time.Now()
	nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())

	return &Tracker{
		dailyLimit:    dailyLimit,
		hourStartTime: now,
		opCalls:       make(map[string]int),
		resetTime:     nextMidnight,
		resetInterval: 24 * time.Hour,
	}
}

// RecordCall records one upstream attempt for quota tracking. Cost below 1
// is treated as 1.
func (t *Tracker) RecordCall(operation string, cost int) {
	if cost < 1 {
		cost = 1
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if time.Now().After(t.resetTime) {
		t.resetUnsafe()
	}

	if time.Since(t.hourStartTime) >= time.Hour {
		t.callsThisHour = 0
		t.hourStartTime = time.Now()
	}

	t.totalCalls += cost
	t.callsThisHour += cost
	t.opCalls[operation] += cost
}

// CanMakeCall reports whether quota remains.
func (t *Tracker) CanMakeCall() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.dailyLimit <= 0 {
		return true
	}
	return t.totalCalls < t.dailyLimit
}

// GetThrottleDelay suggests a pause before the next call once usage runs
// high; zero while plenty of quota remains.
func (t *Tracker) GetThrottleDelay() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.dailyLimit <= 0 {
		return 0
	}

	usage := float64(t.totalCalls) / float64(t.dailyLimit)
	switch {
	case usage >= 1.0:
		return time.Until(t.resetTime)
	case usage > 0.95:
		return 30 * time.Second
	case usage > 0.85:
		return 5 * time.Second
	default:
		return 0
	}
}

// GetUsage returns usage statistics.
func (t *Tracker) GetUsage() UsageStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	remaining := t.dailyLimit - t.totalCalls
	if t.dailyLimit <= 0 {
		remaining = 0
	} else if remaining < 0 {
		remaining = 0
	}

	usagePercentage := 0.0
	if t.dailyLimit > 0 {
		usagePercentage = float64(t.totalCalls) / float64(t.dailyLimit) * 100
	}

	return UsageStats{
		TotalCalls:      t.totalCalls,
		CallsThisHour:   t.callsThisHour,
		DailyLimit:      t.dailyLimit,
		RemainingCalls:  remaining,
		UsagePercentage: usagePercentage,
		NextResetAt:     t.resetTime,
	}
}

// Reset clears all usage counters.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetUnsafe()
}

func (t *Tracker) resetUnsafe() {
	t.totalCalls = 0
	t.callsThisHour = 0
	t.hourStartTime = time.Now()
	t.opCalls = make(map[string]int)
	t.resetTime = t.resetTime.Add(t.resetInterval)
	if t.resetTime.Before(time.Now()) {
		now := time.Now()
		t.resetTime = time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	}
}
