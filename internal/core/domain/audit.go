package domain

import "time"

// AuditOutcome marks how a tool invocation ended.
type AuditOutcome string

const (
	AuditOutcomeSuccess AuditOutcome = "success"
	AuditOutcomeFailure AuditOutcome = "failure"
)

// AuditEntry records one tool invocation outcome. Operators look these up by
// correlation ID when a caller reports a "Reference ID".
type AuditEntry struct {
	ID             string         `json:"id"`
	CorrelationID  string         `json:"correlation_id"`
	RequestID      string         `json:"request_id,omitempty"`
	Operation      string         `json:"operation"`
	Resource       string         `json:"resource,omitempty"`
	Outcome        AuditOutcome   `json:"outcome"`
	Classification Classification `json:"classification,omitempty"`
	Status         int            `json:"status"`
	DurationMs     int64          `json:"duration_ms"`
	CreatedAt      time.Time      `json:"created_at"`
}
