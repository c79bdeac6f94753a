package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/crmbridge/internal/infra/storage"
)

// Pruner deletes old audit entries based on retention policy.
type Pruner struct {
	retention time.Duration
	audit     storage.AuditRepository
	log       *slog.Logger
}

// NewPruner creates a new Pruner worker. A zero retention disables pruning.
func NewPruner(retention time.Duration, audit storage.AuditRepository, log *slog.Logger) *Pruner {
	return &Pruner{
		retention: retention,
		audit:     audit,
		log:       log,
	}
}

// Start runs the pruner loop until ctx is cancelled.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return // Retention disabled
	}

	// Check interval: 10% of retention period, clamped to [1m, 1h].
	interval := min(p.retention/10, 1*time.Hour)
	interval = max(interval, 1*time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial prune
	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	cutoff := time.Now().Add(-p.retention)

	removed, err := p.audit.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.log.Error("failed to prune audit entries", "error", err)
		return
	}
	if removed > 0 {
		p.log.Info("pruned audit entries", "removed", removed, "cutoff", cutoff)
	}
}
