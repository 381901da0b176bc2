// Package ratelimit throttles calls to third-party HTTP services: a token
// bucket for request rate, an optional rolling daily quota, and a pause
// window imposed by the remote side (HTTP 429).
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrDailyLimitReached is returned once the daily quota is exhausted.
	ErrDailyLimitReached = errors.New("daily request limit reached")
	// ErrPaused is returned while the remote has asked us to back off.
	ErrPaused = errors.New("requests paused by remote rate limit")
)

// Limiter gates outbound requests. The zero daily limit means unlimited.
type Limiter struct {
	limiter  *rate.Limiter
	maxDaily int64
	nowFunc  func() time.Time

	mu          sync.Mutex
	daily       int64
	resetAt     time.Time
	pausedUntil time.Time
}

// Option configures the Limiter.
type Option func(*Limiter)

// WithDailyLimit caps the number of calls per rolling 24-hour window.
func WithDailyLimit(n int64) Option {
	return func(l *Limiter) {
		l.maxDaily = n
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) Option {
	return func(l *Limiter) {
		l.nowFunc = f
	}
}

// New creates a limiter allowing perSecond requests with the given burst.
func New(perSecond float64, burst int, opts ...Option) *Limiter {
	if burst < 1 {
		burst = 1
	}
	l := &Limiter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.resetAt = l.nowFunc().Add(24 * time.Hour)
	return l
}

// Wait blocks until a request may be made or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.reserveDaily(); err != nil {
		return err
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}

func (l *Limiter) reserveDaily() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	if now.Before(l.pausedUntil) {
		return fmt.Errorf("%w until %s", ErrPaused, l.pausedUntil.Format(time.RFC3339))
	}
	if now.After(l.resetAt) {
		l.daily = 0
		l.resetAt = now.Add(24 * time.Hour)
	}
	if l.maxDaily > 0 && l.daily >= l.maxDaily {
		return fmt.Errorf("%w (%d/%d)", ErrDailyLimitReached, l.daily, l.maxDaily)
	}
	l.daily++
	return nil
}

// PauseFor suspends requests for d from now. A shorter pause never
// shortens an existing one.
func (l *Limiter) PauseFor(d time.Duration) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	until := l.nowFunc().Add(d)
	if until.After(l.pausedUntil) {
		l.pausedUntil = until
	}
	return l.pausedUntil
}

// Paused reports whether a pause window is active.
func (l *Limiter) Paused() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nowFunc().Before(l.pausedUntil)
}

// PausedUntil returns the end of the current pause window, or the zero
// time if none was ever set.
func (l *Limiter) PausedUntil() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pausedUntil
}

// DailyCount returns the calls made in the current window.
func (l *Limiter) DailyCount() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.daily
}

// Remaining returns the calls left in the current window, or -1 when
// there is no daily limit.
func (l *Limiter) Remaining() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.maxDaily <= 0 {
		return -1
	}
	return max(l.maxDaily-l.daily, 0)
}

// ResetAt returns when the daily counter next resets.
func (l *Limiter) ResetAt() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resetAt
}
