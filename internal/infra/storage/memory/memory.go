// Package memory provides an in-memory audit store for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/crmbridge/internal/core/domain"
)

// AuditStore keeps audit entries in memory. Safe for concurrent use.
type AuditStore struct {
	mu      sync.RWMutex
	entries []*domain.AuditEntry
}

// NewAuditStore creates an empty store.
func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

// Save records one invocation outcome.
func (s *AuditStore) Save(_ context.Context, entry *domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *entry
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	entry.ID = stored.ID
	entry.CreatedAt = stored.CreatedAt

	s.entries = append(s.entries, &stored)
	return nil
}

// GetByCorrelationID retrieves entries sharing a correlation ID, oldest first.
func (s *AuditStore) GetByCorrelationID(
	_ context.Context,
	correlationID string,
) ([]*domain.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.AuditEntry
	for _, e := range s.entries {
		if e.CorrelationID == correlationID {
			copied := *e
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// GetRecent retrieves the most recent entries, newest first.
func (s *AuditStore) GetRecent(_ context.Context, limit int) ([]*domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.AuditEntry, 0, len(s.entries))
	for _, e := range s.entries {
		copied := *e
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountByClassification aggregates failure counts per classification.
func (s *AuditStore) CountByClassification(
	_ context.Context,
	since time.Time,
) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, e := range s.entries {
		if e.Outcome == domain.AuditOutcomeFailure && !e.CreatedAt.Before(since) {
			counts[string(e.Classification)]++
		}
	}
	return counts, nil
}

// DeleteOlderThan removes entries created before the cutoff.
func (s *AuditStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	var removed int64
	for _, e := range s.entries {
		if e.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return removed, nil
}

// Health always succeeds for the in-memory store.
func (s *AuditStore) Health(_ context.Context) error {
	return nil
}
