package storage

import (
	"context"
	"errors"
	"time"

	"github.com/vietddude/crmbridge/internal/core/domain"
)

var (
	// ErrEntryNotFound is returned when no audit entry matches.
	ErrEntryNotFound = errors.New("audit entry not found")
)

// AuditRepository persists the outcome of every tool invocation. Entries
// carry only sanitized data; raw upstream failures never reach this layer.
type AuditRepository interface {
	// Save records one invocation outcome.
	Save(ctx context.Context, entry *domain.AuditEntry) error

	// GetByCorrelationID retrieves entries sharing a correlation ID, oldest
	// first. Batch sub-calls share their parent's correlation ID.
	GetByCorrelationID(ctx context.Context, correlationID string) ([]*domain.AuditEntry, error)

	// GetRecent retrieves the most recent entries, newest first.
	GetRecent(ctx context.Context, limit int) ([]*domain.AuditEntry, error)

	// CountByClassification aggregates failure counts per classification
	// since the given time.
	CountByClassification(ctx context.Context, since time.Time) (map[string]int, error)

	// DeleteOlderThan removes entries created before the cutoff, returning
	// how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Health checks the store is reachable.
	Health(ctx context.Context) error
}
