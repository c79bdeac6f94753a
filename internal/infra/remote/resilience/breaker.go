package resilience

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/vietddude/crmbridge/internal/core/domain"
	"github.com/vietddude/crmbridge/internal/infra/remote/remoteerr"
)

// BreakerState captures circuit breaker states.
type BreakerState int

const (
	// StateClosed indicates normal operation.
	StateClosed BreakerState = iota
	// StateOpen indicates the breaker is rejecting calls.
	StateOpen
)

func (s BreakerState) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// BreakerConfig controls thresholds for state transitions.
type BreakerConfig struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}

// DefaultBreakerConfig opens after five consecutive failures and re-admits
// calls one minute later.
var DefaultBreakerConfig = BreakerConfig{
	FailureThreshold: 5,
	ResetTimeout:     time.Minute,
}

// Breaker fails fast once an operation family has failed too often,
// recovering lazily: there is no background timer, the elapsed cooldown is
// re-evaluated on the next attempted call. One instance guards one operation
// family; transitions are atomic with respect to concurrent calls.
type Breaker struct {
	mu sync.Mutex

	name            string
	config          BreakerConfig
	state           BreakerState
	failureCount    int
	lastFailureTime time.Time

	onTransition func(name string, state BreakerState)
}

// NewBreaker creates a closed breaker for one operation family.
func NewBreaker(name string, config BreakerConfig) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = DefaultBreakerConfig.FailureThreshold
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = DefaultBreakerConfig.ResetTimeout
	}
	return &Breaker{
		name:   name,
		config: config,
		state:  StateClosed,
	}
}

// OnTransition registers a callback invoked (outside the lock) whenever the
// breaker changes state. Used for metrics.
func (b *Breaker) OnTransition(fn func(name string, state BreakerState)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onTransition = fn
}

// Execute runs fn unless the breaker is open and the cooldown has not
// elapsed, in which case it fails immediately without invoking fn. The fast
// failure is a RemoteError so callers see the standard shape.
func (b *Breaker) Execute(ctx context.Context, opCtx domain.OperationContext, fn func(ctx context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	if err := b.allow(opCtx); err != nil {
		return nil, err
	}

	result, err := fn(ctx)
	if err != nil {
		b.recordFailure()
		return nil, err
	}

	b.recordSuccess()
	return result, nil
}

// State returns the current state, applying the lazy cooldown rule.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && time.Since(b.lastFailureTime) >= b.config.ResetTimeout {
		return StateClosed
	}
	return b.state
}

// FailureCount returns the current consecutive failure count.
func (b *Breaker) FailureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failureCount
}

// Reset forces the breaker closed with zero failures. Administrative
// operation; never called implicitly except via the lazy cooldown rule.
func (b *Breaker) Reset() {
	b.mu.Lock()
	transition := b.state == StateOpen
	b.state = StateClosed
	b.failureCount = 0
	fn := b.onTransition
	b.mu.Unlock()

	if transition && fn != nil {
		fn(b.name, StateClosed)
	}
}

func (b *Breaker) allow(opCtx domain.OperationContext) *remoteerr.RemoteError {
	b.mu.Lock()

	if b.state == StateOpen {
		if time.Since(b.lastFailureTime) >= b.config.ResetTimeout {
			// Lazy reset: cooldown elapsed, admit this call. The count is
			// left one short of the threshold so a failing probe re-opens
			// the breaker and restarts the clock.
			b.state = StateClosed
			b.failureCount = b.config.FailureThreshold - 1
			fn := b.onTransition
			b.mu.Unlock()
			if fn != nil {
				fn(b.name, StateClosed)
			}
			return nil
		}

		b.mu.Unlock()
		return remoteerr.NewBreakerOpen(opCtx)
	}

	b.mu.Unlock()
	return nil
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount = 0
	b.state = StateClosed
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	b.failureCount++
	b.lastFailureTime = time.Now()
	opened := false
	if b.state == StateClosed && b.failureCount >= b.config.FailureThreshold {
		b.state = StateOpen
		opened = true
	}
	fn := b.onTransition
	b.mu.Unlock()

	if opened && fn != nil {
		fn(b.name, StateOpen)
	}
}
