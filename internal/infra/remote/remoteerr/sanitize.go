package remoteerr

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vietddude/crmbridge/internal/core/domain"
)

// safeMessages are the fixed per-classification templates shown to callers.
// Raw upstream messages are never echoed.
var safeMessages = map[domain.Classification]string{
	domain.ClassValidation:     "The request was rejected because it is invalid for this resource.",
	domain.ClassNotFound:       "The requested record or resource does not exist.",
	domain.ClassAuthentication: "The CRM rejected the request credentials.",
	domain.ClassRateLimited:    "The CRM is rate limiting requests from this workspace.",
	domain.ClassServerError:    "The CRM reported an internal error while handling the request.",
	domain.ClassNetworkError:   "The CRM could not be reached.",
	domain.ClassUnknown:        "The operation failed for an unexpected reason.",
}

// suggestions are caller-actionable next steps keyed by classification.
var suggestions = map[domain.Classification]string{
	domain.ClassValidation:     "Check the field names and values against the object schema, then retry with a corrected request.",
	domain.ClassNotFound:       "Verify the record identifier and resource type; the record may have been deleted.",
	domain.ClassAuthentication: "Verify the API credentials and workspace permissions for this operation.",
	domain.ClassRateLimited:    "Retry after a short delay; reduce request volume if this persists.",
	domain.ClassServerError:    "Retry after a short delay; if the problem persists the upstream service may be degraded.",
	domain.ClassNetworkError:   "Retry after a short delay and check upstream service availability.",
	domain.ClassUnknown:        "Retry the operation; if it keeps failing, report the reference ID to support.",
}

// deniedVocabulary are substrings that must never appear in caller-facing
// messages: storage engine terms, credential material, code-like payloads
// and path traversal sequences.
var deniedVocabulary = []string{
	"postgres", "sqlite", "sql", "redis", "database", "db error",
	"goroutine", "panic", "stack trace", "runtime error", "nil pointer",
	"api key", "apikey", "api_key", "bearer", "token", "secret", "password", "credential",
	"select ", "insert ", "update ", "delete from", "drop table",
	"<script", "javascript:", "${", "../", "..\\",
	"/var/", "/etc/", "/home/", "c:\\",
}

// ValidationError is raised by the field-mapping layer for payloads that are
// malformed for a resource type. Detail is authored by the bridge itself and
// may be surfaced to the caller once it passes the deny-list.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Detail)
}

// ContainsDeniedVocabulary reports whether s matches the deny-list.
func ContainsDeniedVocabulary(s string) bool {
	lower := strings.ToLower(s)
	for _, term := range deniedVocabulary {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// Sanitize turns any raw failure into a RemoteError safe for external
// exposure. It never fails: unclassifiable input degrades to unknown with a
// generic message. Sanitize is idempotent — a RemoteError passes through
// with only missing metadata filled in.
func Sanitize(err error, opCtx domain.OperationContext) *RemoteError {
	var re *RemoteError
	if errors.As(err, &re) {
		// Fill missing metadata on a copy; the caller's error stays untouched.
		out := *re
		if out.Metadata.Operation == "" {
			out.Metadata.Operation = opCtx.Operation
			out.Metadata.Resource = opCtx.Resource
		}
		if out.Metadata.Timestamp.IsZero() {
			out.Metadata.Timestamp = time.Now().UTC()
		}
		if out.CorrelationID == "" {
			out.CorrelationID = opCtx.CorrelationID
		}
		return &out
	}

	classification := Classify(err)
	message := safeMessages[classification]

	// Validation detail authored by the mapping layer is known-safe; it is
	// still checked against the deny-list before being surfaced.
	var ve *ValidationError
	if errors.As(err, &ve) {
		classification = domain.ClassValidation
		if ve.Detail != "" && !ContainsDeniedVocabulary(ve.Detail) {
			message = fmt.Sprintf("%s %s", safeMessages[classification], ve.Detail)
		} else {
			message = safeMessages[classification]
		}
	}

	status := statusForClassification(classification)
	var se *StatusError
	if errors.As(err, &se) {
		status = se.Status
	}

	return &RemoteError{
		Message:        message,
		Classification: classification,
		Status:         status,
		Metadata: SafeMetadata{
			Operation: opCtx.Operation,
			Resource:  opCtx.Resource,
			Timestamp: time.Now().UTC(),
		},
		Suggestion:    suggestions[classification],
		CorrelationID: opCtx.CorrelationID,
	}
}

// NewBreakerOpen builds the fast-failure error returned while a circuit
// breaker is open. Classified unknown (the set is closed) with a dedicated
// safe message; the underlying operation was never invoked.
func NewBreakerOpen(opCtx domain.OperationContext) *RemoteError {
	return &RemoteError{
		Message:        "The operation is temporarily unavailable while the upstream service recovers.",
		Classification: domain.ClassUnknown,
		Status:         503,
		Metadata: SafeMetadata{
			Operation: opCtx.Operation,
			Resource:  opCtx.Resource,
			Timestamp: time.Now().UTC(),
		},
		Suggestion:    "Wait for the recovery cooldown to elapse and retry.",
		CorrelationID: opCtx.CorrelationID,
	}
}

// NewValidation builds a validation-classified RemoteError directly, used
// for preconditions the bridge enforces itself (batch size caps, unknown
// tools). Detail must be bridge-authored text.
func NewValidation(detail string, opCtx domain.OperationContext) *RemoteError {
	return Sanitize(&ValidationError{Detail: detail}, opCtx)
}
