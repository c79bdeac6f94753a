package domain

import (
	"github.com/google/uuid"
)

// OperationContext carries provenance for one logical remote call. It is
// created once per call and threaded through every layer so that errors can
// be attributed without global state. Treat it as immutable after creation.
type OperationContext struct {
	Operation     string `json:"operation"`
	Module        string `json:"module"`
	Resource      string `json:"resource,omitempty"`
	RecordID      string `json:"record_id,omitempty"`
	CorrelationID string `json:"correlation_id"`
	RequestID     string `json:"request_id,omitempty"`
}

// NewOperationContext creates a context with a fresh correlation ID.
func NewOperationContext(operation, module string) OperationContext {
	return OperationContext{
		Operation:     operation,
		Module:        module,
		CorrelationID: uuid.New().String(),
	}
}

// WithResource returns a copy scoped to a resource type and optional record.
func (oc OperationContext) WithResource(resource, recordID string) OperationContext {
	oc.Resource = resource
	oc.RecordID = recordID
	return oc
}

// WithRequestID returns a copy carrying the caller-supplied request ID.
func (oc OperationContext) WithRequestID(requestID string) OperationContext {
	oc.RequestID = requestID
	return oc
}
