package guarded

import (
	"fmt"
	"sync"
	"time"

	"3tcapital/ms_ecf_core/internal/core/validation"
)

// BreakerState is the state of a Breaker.
type BreakerState int

const (
	BreakerClosed   BreakerState = iota // Normal operation
	BreakerOpen                         // Calls fail fast
	BreakerHalfOpen                     // Probing after cooldown
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return fmt.Sprintf("BreakerState(%d)", int(s))
	}
}

// ErrBreakerOpen is returned while the breaker rejects calls. It matches
// validation.ErrUnavailable.
var ErrBreakerOpen = fmt.Errorf("circuit breaker is open: %w", validation.ErrUnavailable)

// Breaker opens after maxFailures consecutive validator failures and lets
// calls through again after cooldown. Invalid documents are not failures.
type Breaker struct {
	maxFailures      int
	cooldown         time.Duration
	successThreshold int
	now              func() time.Time

	mu              sync.Mutex
	state           BreakerState
	failureCount    int
	successCount    int
	lastStateChange time.Time
}

// NewBreaker creates a closed breaker. Non-positive arguments select 5 failures and 30s.
func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		maxFailures:      maxFailures,
		cooldown:         cooldown,
		successThreshold: 1,
		now:              time.Now,
		state:            BreakerClosed,
	}
}

// Allow reports whether a call may proceed, moving an open breaker to
// half-open once the cooldown has passed.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != BreakerOpen {
		return nil
	}
	if b.now().Sub(b.lastStateChange) < b.cooldown {
		return ErrBreakerOpen
	}
	b.setState(BreakerHalfOpen)
	return nil
}

// Record updates the breaker with the outcome of a call.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failureCount++
		b.successCount = 0
		if b.state == BreakerHalfOpen || b.failureCount >= b.maxFailures {
			b.setState(BreakerOpen)
		}
		return
	}

	b.successCount++
	if b.state == BreakerHalfOpen && b.successCount < b.successThreshold {
		return
	}
	b.failureCount = 0
	if b.state == BreakerHalfOpen {
		b.setState(BreakerClosed)
	}
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset closes the breaker and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount = 0
	b.successCount = 0
	b.setState(BreakerClosed)
}

func (b *Breaker) setState(s BreakerState) {
	b.state = s
	b.successCount = 0
	b.lastStateChange = b.now()
}
