package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/crmbridge/internal/core/domain"
)

// AuditRepo implements storage.AuditRepository using PostgreSQL.
type AuditRepo struct {
	db *DB
}

// NewAuditRepo creates a new PostgreSQL audit repository.
func NewAuditRepo(db *DB) *AuditRepo {
	return &AuditRepo{db: db}
}

type auditRow struct {
	ID             string    `db:"id"`
	CorrelationID  string    `db:"correlation_id"`
	RequestID      string    `db:"request_id"`
	Operation      string    `db:"operation"`
	Resource       string    `db:"resource"`
	Outcome        string    `db:"outcome"`
	Classification string    `db:"classification"`
	Status         int       `db:"status"`
	DurationMs     int64     `db:"duration_ms"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r auditRow) toDomain() *domain.AuditEntry {
	return &domain.AuditEntry{
		ID:             r.ID,
		CorrelationID:  r.CorrelationID,
		RequestID:      r.RequestID,
		Operation:      r.Operation,
		Resource:       r.Resource,
		Outcome:        domain.AuditOutcome(r.Outcome),
		Classification: domain.Classification(r.Classification),
		Status:         r.Status,
		DurationMs:     r.DurationMs,
		CreatedAt:      r.CreatedAt,
	}
}

// Save records one invocation outcome.
func (r *AuditRepo) Save(ctx context.Context, entry *domain.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO audit_entries (id, correlation_id, request_id, operation, resource, outcome, classification, status, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.CorrelationID,
		entry.RequestID,
		entry.Operation,
		entry.Resource,
		string(entry.Outcome),
		string(entry.Classification),
		entry.Status,
		entry.DurationMs,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save audit entry: %w", err)
	}
	return nil
}

// GetByCorrelationID retrieves entries sharing a correlation ID, oldest first.
func (r *AuditRepo) GetByCorrelationID(
	ctx context.Context,
	correlationID string,
) ([]*domain.AuditEntry, error) {
	query := `
		SELECT id, correlation_id, request_id, operation, resource, outcome, classification, status, duration_ms, created_at
		FROM audit_entries
		WHERE correlation_id = $1
		ORDER BY created_at ASC
	`

	var rows []auditRow
	if err := r.db.SelectContext(ctx, &rows, query, correlationID); err != nil {
		return nil, fmt.Errorf("failed to get audit entries: %w", err)
	}

	entries := make([]*domain.AuditEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toDomain())
	}
	return entries, nil
}

// GetRecent retrieves the most recent entries, newest first.
func (r *AuditRepo) GetRecent(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, correlation_id, request_id, operation, resource, outcome, classification, status, duration_ms, created_at
		FROM audit_entries
		ORDER BY created_at DESC
		LIMIT $1
	`

	var rows []auditRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent audit entries: %w", err)
	}

	entries := make([]*domain.AuditEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toDomain())
	}
	return entries, nil
}

// CountByClassification aggregates failure counts per classification.
func (r *AuditRepo) CountByClassification(
	ctx context.Context,
	since time.Time,
) (map[string]int, error) {
	query := `
		SELECT classification, COUNT(*) AS count
		FROM audit_entries
		WHERE outcome = 'failure' AND created_at >= $1
		GROUP BY classification
	`

	var rows []struct {
		Classification string `db:"classification"`
		Count          int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, fmt.Errorf("failed to count audit entries: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Classification] = row.Count
	}
	return counts, nil
}

// DeleteOlderThan removes entries created before the cutoff.
func (r *AuditRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM audit_entries WHERE created_at < $1`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit entries: %w", err)
	}
	return result.RowsAffected()
}

// Health checks the store is reachable.
func (r *AuditRepo) Health(ctx context.Context) error {
	return r.db.Health(ctx)
}
