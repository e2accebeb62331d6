package core

// limiter.go bounds how many conversions the HTTP surface runs at once.
//
// Each conversion holds a whole file in memory, decoded, for every candidate
// it tries, so parallel uploads are capped. When all slots are taken a
// request waits up to maxWait, then fails with ErrTooManyConversions.
// WaitForDrain lets shutdown wait for running conversions.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyConversions is returned when no slot frees up within the wait
// timeout. Clients should retry after a short delay.
var ErrTooManyConversions = errors.New("too many concurrent conversions, please try again later")

const (
	// DefaultMaxConcurrent is the default number of parallel conversions.
	DefaultMaxConcurrent = 4

	// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
	DefaultMaxWaitTime = 30 * time.Second
)

// ConversionLimiter is a counting semaphore with drain support.
type ConversionLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewConversionLimiter allows at most maxConcurrent simultaneous conversions.
// Non-positive arguments select the defaults.
func NewConversionLimiter(maxConcurrent int, maxWait time.Duration) *ConversionLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &ConversionLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire waits for a slot. It returns ErrTooManyConversions on timeout or
// ctx's error if ctx ends first. Callers must Release a successful Acquire.
func (l *ConversionLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.semaphore <- struct{}{}:
		l.track(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyConversions
	}
}

// TryAcquire takes a slot if one is free without blocking.
func (l *ConversionLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.track(1)
		return true
	default:
		return false
	}
}

// Release frees a slot taken by Acquire or TryAcquire.
func (l *ConversionLimiter) Release() {
	l.track(-1)
	<-l.semaphore
}

func (l *ConversionLimiter) track(delta int) {
	l.mu.Lock()
	l.active += delta
	l.mu.Unlock()
}

// ActiveCount returns the number of running conversions.
func (l *ConversionLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// WaitForDrain blocks until no conversion is running or ctx is done.
func (l *ConversionLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a snapshot for the health endpoint.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the limiter's current state.
func (l *ConversionLimiter) Status() LimiterStatus {
	active := l.ActiveCount()
	return LimiterStatus{
		Active:        active,
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
	}
}
