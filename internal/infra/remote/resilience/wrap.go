// Package resilience layers fault handling around remote operations: the
// operation wrapper that normalizes every failure into a structured remote
// error, the retry executor, and the circuit breaker.
package resilience

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/crmbridge/internal/core/domain"
	"github.com/vietddude/crmbridge/internal/infra/remote/remoteerr"
)

// Func is a remote operation producing T.
type Func[T any] func(ctx context.Context) (T, error)

// Wrap decorates fn so every failure, regardless of origin, is replaced by a
// sanitized RemoteError carrying opCtx. On success the wrapper is
// transparent. All remote calls must pass through here; this is also the
// single place allowed to observe the raw failure, which it records to the
// diagnostics logger before discarding.
func Wrap[T any](fn Func[T], opCtx domain.OperationContext, log *slog.Logger) Func[T] {
	return func(ctx context.Context) (T, error) {
		start := time.Now()
		result, err := fn(ctx)
		duration := time.Since(start)

		if err == nil {
			if log != nil {
				log.Debug("remote call ok",
					"operation", opCtx.Operation,
					"duration", duration)
			}
			return result, nil
		}

		re := remoteerr.Sanitize(err, opCtx)
		if log != nil {
			// The raw error is logged here and nowhere else; it never
			// crosses the caller boundary.
			log.Warn("remote call failed",
				"operation", opCtx.Operation,
				"classification", string(re.Classification),
				"status", re.Status,
				"correlation_id", re.CorrelationID,
				"duration", duration,
				"cause", err.Error())
		}

		var zero T
		return zero, re
	}
}
