// Package batch fans a single logical request out into N independent remote
// calls with per-item isolation and input-order preservation.
package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/vietddude/crmbridge/internal/core/domain"
	"github.com/vietddude/crmbridge/internal/infra/remote/remoteerr"
)

// MaxItems is the resource-protection cap on batch size. Requests above it
// are rejected before any sub-call is issued.
const MaxItems = 100

// DefaultMaxConcurrent bounds how many sub-operations run at once so a
// degraded upstream is not stampeded.
const DefaultMaxConcurrent = 8

// Result is one per-item outcome: either a value or a structured error,
// never both.
type Result[R any] struct {
	OK    bool
	Value R
	Err   *remoteerr.RemoteError
}

// Options tunes batch execution.
type Options struct {
	MaxConcurrent int
}

// Execute maps every input to an independent invocation of op, collecting
// results into an index-addressed slice: results[i] corresponds to inputs[i]
// regardless of completion order. A failure in one invocation never aborts,
// delays or alters any other. The summary is computed once all invocations
// have settled.
//
// op is expected to be wrapped (and optionally retried/circuit-broken); any
// non-structured error it returns is sanitized defensively.
func Execute[T, R any](
	ctx context.Context,
	inputs []T,
	op func(ctx context.Context, item T) (R, error),
	opts Options,
) ([]Result[R], domain.BatchSummary, error) {
	opCtx := domain.NewOperationContext("batch.execute", "batch")

	if len(inputs) > MaxItems {
		re := remoteerr.NewValidation(
			fmt.Sprintf("Batch size %d exceeds the maximum of %d items.", len(inputs), MaxItems),
			opCtx,
		)
		return nil, domain.BatchSummary{}, re
	}

	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}

	results := make([]Result[R], len(inputs))
	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup

	for i, item := range inputs {
		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			value, err := op(ctx, item)
			if err != nil {
				itemCtx := opCtx
				itemCtx.Operation = fmt.Sprintf("batch.item[%d]", i)
				results[i] = Result[R]{Err: remoteerr.Sanitize(err, itemCtx)}
				return
			}
			results[i] = Result[R]{OK: true, Value: value}
		}(i, item)
	}

	wg.Wait()

	summary := domain.BatchSummary{Total: len(inputs)}
	for _, r := range results {
		if r.OK {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	return results, summary, nil
}
