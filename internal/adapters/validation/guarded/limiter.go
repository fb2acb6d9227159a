package guarded

import (
	"context"
	"sync"
)

// Limiter bounds the number of validations running at once.
type Limiter struct {
	semaphore     chan struct{}
	maxConcurrent int
	mu            sync.RWMutex
	activeCount   int
	waitCount     int64
	totalAcquired int64
}

// NewLimiter creates a limiter with maxConcurrent slots. Non-positive values select one slot.
func NewLimiter(maxConcurrent int) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Limiter{
		semaphore:     make(chan struct{}, maxConcurrent),
		maxConcurrent: maxConcurrent,
	}
}

// Acquire blocks until a slot is free or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	l.waitCount++
	l.mu.Unlock()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.activeCount++
		l.totalAcquired++
		l.waitCount--
		l.mu.Unlock()
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		l.waitCount--
		l.mu.Unlock()
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (l *Limiter) Release() {
	<-l.semaphore
	l.mu.Lock()
	l.activeCount--
	l.mu.Unlock()
}

// LimiterStats is a snapshot of limiter usage.
type LimiterStats struct {
	MaxConcurrent int
	ActiveCount   int
	WaitCount     int64
	TotalAcquired int64
	Available     int
}

func (l *Limiter) Stats() LimiterStats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return LimiterStats{
		MaxConcurrent: l.maxConcurrent,
		ActiveCount:   l.activeCount,
		WaitCount:     l.waitCount,
		TotalAcquired: l.totalAcquired,
		Available:     l.maxConcurrent - l.activeCount,
	}
}
