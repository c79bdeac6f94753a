package attio

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/vietddude/crmbridge/internal/core/domain"
	"github.com/vietddude/crmbridge/internal/infra/remote/budget"
	"github.com/vietddude/crmbridge/internal/infra/remote/provider"
	"github.com/vietddude/crmbridge/internal/infra/remote/remoteerr"
	"github.com/vietddude/crmbridge/internal/infra/remote/resilience"
)

// Client is the high-level Attio record client. Every call goes through the
// full resilience chain: budget gate, circuit breaker, operation wrapper,
// retry. Callers only ever see sanitized RemoteErrors.
type Client struct {
	provider provider.Provider
	breaker  *resilience.Breaker
	budget   *budget.Tracker
	retry    resilience.RetryPolicy
	log      *slog.Logger
}

// NewClient assembles a record client from its resilience parts. Any of
// breaker, tracker and log may be nil to disable that layer (tests).
func NewClient(p provider.Provider, breaker *resilience.Breaker, tracker *budget.Tracker, policy resilience.RetryPolicy, log *slog.Logger) *Client {
	return &Client{
		provider: p,
		breaker:  breaker,
		budget:   tracker,
		retry:    policy,
		log:      log,
	}
}

// Breaker exposes the breaker guarding this client, for health reporting and
// administrative reset.
func (c *Client) Breaker() *resilience.Breaker { return c.breaker }

// Budget exposes the quota tracker, for health reporting.
func (c *Client) Budget() *budget.Tracker { return c.budget }

// Provider exposes the underlying transport, for health reporting.
func (c *Client) Provider() provider.Provider { return c.provider }

// envelope is the Attio response wrapper.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// call executes op through the resilience chain and decodes the response
// envelope into T. It is the single path every client operation uses.
func call[T any](ctx context.Context, c *Client, opCtx domain.OperationContext, op provider.Operation) (T, error) {
	var zero T

	if err := c.gate(ctx, opCtx); err != nil {
		return zero, err
	}

	// Every real upstream attempt consumes budget, including attempts that
	// fail and get retried. The breaker's fast failures never reach here.
	invoke := func(ctx context.Context) (json.RawMessage, error) {
		if c.budget != nil {
			c.budget.RecordCall(op.Name, op.Cost)
		}
		return c.provider.Execute(ctx, op)
	}

	fn := resilience.Wrap(func(ctx context.Context) (json.RawMessage, error) {
		if c.breaker != nil {
			return c.breaker.Execute(ctx, opCtx, invoke)
		}
		return invoke(ctx)
	}, opCtx, c.log)

	raw, err := resilience.Retry(ctx, fn, opCtx, c.retry)
	if err != nil {
		return zero, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, remoteerr.Sanitize(remoteerr.NewStatusError(502, "malformed response body"), opCtx)
	}
	data := env.Data
	if data == nil {
		// Some endpoints (e.g. delete) return no envelope.
		data = raw
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, remoteerr.Sanitize(remoteerr.NewStatusError(502, "unexpected response shape"), opCtx)
	}
	return out, nil
}

// gate applies the daily quota before any remote work. Exhausted quota is a
// rate_limited failure without a remote call; near-exhaustion delays the
// call, respecting ctx.
func (c *Client) gate(ctx context.Context, opCtx domain.OperationContext) error {
	if c.budget == nil {
		return nil
	}

	if !c.budget.CanMakeCall() {
		return remoteerr.Sanitize(remoteerr.NewStatusError(429, "daily call quota exhausted"), opCtx)
	}

	if delay := c.budget.GetThrottleDelay(); delay > 0 {
		if c.log != nil {
			c.log.Warn("throttling call near quota",
				"operation", opCtx.Operation,
				"delay", delay)
		}
		select {
		case <-ctx.Done():
			return remoteerr.Sanitize(ctx.Err(), opCtx)
		case <-time.After(delay):
		}
	}
	return nil
}
