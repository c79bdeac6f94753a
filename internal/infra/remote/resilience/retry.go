package resilience

import (
	"context"
	"math"
	"time"

	"github.com/vietddude/crmbridge/internal/core/domain"
	"github.com/vietddude/crmbridge/internal/infra/remote/remoteerr"
)

// RetryPolicy defines retry behavior. Pure configuration, no mutable state.
type RetryPolicy struct {
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	IsRetryable func(domain.Classification) bool
}

// DefaultRetryPolicy retries rate_limited, server_error and network_error
// failures up to three times with capped exponential backoff.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 3,
	BaseDelay:  500 * time.Millisecond,
	MaxDelay:   30 * time.Second,
}

func (p RetryPolicy) retryable(c domain.Classification) bool {
	if p.IsRetryable != nil {
		return p.IsRetryable(c)
	}
	return c.IsRetryable()
}

// Retry re-invokes fn under the policy. fn is assumed already wrapped, so
// every failure it returns is a RemoteError; anything else is sanitized
// defensively with opCtx. The terminal error after exhausting retries is the
// last RemoteError unchanged — callers see the same shape whether the call
// failed once or MaxRetries+1 times. The backoff delay suspends only this
// logical call.
func Retry[T any](ctx context.Context, fn Func[T], opCtx domain.OperationContext, policy RetryPolicy) (T, error) {
	var zero T

	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		re := remoteerr.Sanitize(err, opCtx)

		if !policy.retryable(re.Classification) || attempt >= policy.MaxRetries {
			return zero, re
		}

		delay := backoff(attempt, policy)
		select {
		case <-ctx.Done():
			return zero, remoteerr.Sanitize(ctx.Err(), opCtx)
		case <-time.After(delay):
		}
	}
}

func backoff(attempt int, policy RetryPolicy) time.Duration {
	delay := float64(policy.BaseDelay) * math.Pow(2, float64(attempt))
	if policy.MaxDelay > 0 && delay > float64(policy.MaxDelay) {
		delay = float64(policy.MaxDelay)
	}
	return time.Duration(delay)
}
