// Package remoteerr defines the structured error shape that crosses the
// remote-operation boundary, plus the classifier and sanitizer that produce
// it. Raw upstream failures never leave this layer: they are classified and
// sanitized at first contact and only the resulting RemoteError propagates.
package remoteerr

import (
	"fmt"
	"time"

	"github.com/vietddude/crmbridge/internal/core/domain"
)

// SafeMetadata is the provenance attached to a RemoteError. It contains only
// fields that are safe to expose to the calling agent.
type SafeMetadata struct {
	Operation string    `json:"operation"`
	Resource  string    `json:"resource,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RemoteError is the canonical error value for remote-operation failures.
// It carries a sanitized message, a classification from the closed set, an
// HTTP-like status and a correlation ID — never the raw cause.
type RemoteError struct {
	Message        string                `json:"message"`
	Classification domain.Classification `json:"type"`
	Status         int                   `json:"statusCode"`
	Metadata       SafeMetadata          `json:"metadata"`
	Suggestion     string                `json:"suggestion,omitempty"`
	CorrelationID  string                `json:"correlationId"`
}

func (e *RemoteError) Error() string {
	if e.CorrelationID != "" {
		return fmt.Sprintf("%s: %s (ref %s)", e.Classification, e.Message, e.CorrelationID)
	}
	return fmt.Sprintf("%s: %s", e.Classification, e.Message)
}

// StatusError tags an upstream failure with its HTTP status so the classifier
// can map it without string parsing. The message may contain raw upstream
// text; it is for internal diagnostics only and must go through Sanitize
// before reaching a caller.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream status %d", e.Status)
	}
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Message)
}

// NewStatusError builds a StatusError for an upstream HTTP response.
func NewStatusError(status int, message string) *StatusError {
	return &StatusError{Status: status, Message: message}
}

// statusForClassification picks the HTTP-like status reported to callers
// when the raw failure carried none.
func statusForClassification(c domain.Classification) int {
	switch c {
	case domain.ClassValidation:
		return 400
	case domain.ClassAuthentication:
		return 401
	case domain.ClassNotFound:
		return 404
	case domain.ClassRateLimited:
		return 429
	case domain.ClassServerError:
		return 502
	case domain.ClassNetworkError:
		return 503
	default:
		return 500
	}
}
