package resilience

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/crmbridge/internal/core/domain"
	"github.com/vietddude/crmbridge/internal/infra/remote/remoteerr"
)

var errUpstream = remoteerr.NewStatusError(500, "boom")

func failing(ctx context.Context) (json.RawMessage, error) { return nil, errUpstream }
func succeeding(ctx context.Context) (json.RawMessage, error) {
	return json.RawMessage(`"ok"`), nil
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	opCtx := domain.NewOperationContext("records.query", "records")
	b := NewBreaker("attio", BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour})

	for i := 0; i < 2; i++ {
		if _, err := b.Execute(context.Background(), opCtx, failing); err == nil {
			t.Fatal("expected failure")
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %s, want open after 2 failures", b.State())
	}

	// Third call fails fast without invoking the operation.
	invoked := false
	_, err := b.Execute(context.Background(), opCtx, func(ctx context.Context) (json.RawMessage, error) {
		invoked = true
		return nil, nil
	})
	if err == nil {
		t.Fatal("expected fast failure")
	}
	if invoked {
		t.Error("underlying operation was invoked while breaker open")
	}

	var re *remoteerr.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("fast failure %v is not a RemoteError", err)
	}
	if re.Classification != domain.ClassUnknown {
		t.Errorf("fast failure classification = %s, want unknown", re.Classification)
	}
}

func TestBreaker_SuccessResetsCount(t *testing.T) {
	opCtx := domain.NewOperationContext("records.query", "records")
	b := NewBreaker("attio", BreakerConfig{FailureThreshold: 3, ResetTimeout: time.Hour})

	_, _ = b.Execute(context.Background(), opCtx, failing)
	_, _ = b.Execute(context.Background(), opCtx, failing)
	if _, err := b.Execute(context.Background(), opCtx, succeeding); err != nil {
		t.Fatalf("success call failed: %v", err)
	}

	if b.FailureCount() != 0 {
		t.Errorf("failure count = %d, want 0 after success", b.FailureCount())
	}
	if b.State() != StateClosed {
		t.Errorf("state = %s, want closed", b.State())
	}
}

func TestBreaker_LazyResetAfterCooldown(t *testing.T) {
	opCtx := domain.NewOperationContext("records.query", "records")
	b := NewBreaker("attio", BreakerConfig{FailureThreshold: 1, ResetTimeout: 30 * time.Millisecond})

	_, _ = b.Execute(context.Background(), opCtx, failing)
	if b.State() != StateOpen {
		t.Fatal("breaker should be open")
	}

	time.Sleep(40 * time.Millisecond)

	// First call after cooldown is admitted and, on success, fully closes.
	if _, err := b.Execute(context.Background(), opCtx, succeeding); err != nil {
		t.Fatalf("post-cooldown call failed: %v", err)
	}
	if b.State() != StateClosed || b.FailureCount() != 0 {
		t.Errorf("state = %s count = %d, want closed/0", b.State(), b.FailureCount())
	}
}

func TestBreaker_FailingProbeReopens(t *testing.T) {
	opCtx := domain.NewOperationContext("records.query", "records")
	b := NewBreaker("attio", BreakerConfig{FailureThreshold: 2, ResetTimeout: 30 * time.Millisecond})

	_, _ = b.Execute(context.Background(), opCtx, failing)
	_, _ = b.Execute(context.Background(), opCtx, failing)
	time.Sleep(40 * time.Millisecond)

	// Admitted after cooldown, fails again: breaker re-opens with a fresh
	// cooldown clock.
	_, _ = b.Execute(context.Background(), opCtx, failing)
	if b.State() != StateOpen {
		t.Fatalf("state = %s, want open after failed probe", b.State())
	}

	invoked := false
	_, _ = b.Execute(context.Background(), opCtx, func(ctx context.Context) (json.RawMessage, error) {
		invoked = true
		return nil, nil
	})
	if invoked {
		t.Error("call admitted before fresh cooldown elapsed")
	}
}

func TestBreaker_ExplicitReset(t *testing.T) {
	opCtx := domain.NewOperationContext("records.query", "records")
	b := NewBreaker("attio", BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})

	_, _ = b.Execute(context.Background(), opCtx, failing)
	if b.State() != StateOpen {
		t.Fatal("breaker should be open")
	}

	b.Reset()
	if b.State() != StateClosed || b.FailureCount() != 0 {
		t.Errorf("state = %s count = %d after Reset, want closed/0", b.State(), b.FailureCount())
	}
}

func TestBreaker_ConcurrentCallsAtomic(t *testing.T) {
	opCtx := domain.NewOperationContext("records.query", "records")
	b := NewBreaker("attio", BreakerConfig{FailureThreshold: 50, ResetTimeout: time.Hour})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = b.Execute(context.Background(), opCtx, failing)
			} else {
				_, _ = b.Execute(context.Background(), opCtx, succeeding)
			}
		}(i)
	}
	wg.Wait()

	// No torn state: count is within bounds and state is a valid member.
	if c := b.FailureCount(); c < 0 || c > 100 {
		t.Errorf("failure count out of bounds: %d", c)
	}
	if s := b.State(); s != StateClosed && s != StateOpen {
		t.Errorf("invalid state %d", s)
	}
}

func TestBreaker_TransitionCallback(t *testing.T) {
	opCtx := domain.NewOperationContext("records.query", "records")
	b := NewBreaker("attio", BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})

	var transitions []BreakerState
	b.OnTransition(func(name string, state BreakerState) {
		transitions = append(transitions, state)
	})

	_, _ = b.Execute(context.Background(), opCtx, failing)
	b.Reset()

	if len(transitions) != 2 || transitions[0] != StateOpen || transitions[1] != StateClosed {
		t.Errorf("transitions = %v, want [open closed]", transitions)
	}
}
