package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenLimiter enforces a per-minute token budget. Consumed tokens are
// returned to the budget one minute after they were spent.
type TokenLimiter struct {
	mu        sync.Mutex
	maxTokens int
	used      int
	spent     []spend
}

type spend struct {
	at     time.Time
	tokens int
}

// NewTokenLimiter creates a limiter allowing maxTokensPerMinute tokens
// in any sliding one-minute window.
func NewTokenLimiter(maxTokensPerMinute int) *TokenLimiter {
	return &TokenLimiter{maxTokens: maxTokensPerMinute}
}

// GetRemaining returns the number of tokens still available in the
// current window.
func (l *TokenLimiter) GetRemaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expire(time.Now())
	return l.maxTokens - l.used
}

// Wait blocks until the given number of tokens is available, then
// consumes them. Requests larger than the whole budget are consumed
// immediately once the window is empty.
func (l *TokenLimiter) Wait(ctx context.Context, tokens int) error {
	for {
		l.mu.Lock()
		now := time.Now()
		l.expire(now)
		if l.used+tokens <= l.maxTokens || (l.used == 0 && tokens > l.maxTokens) {
			l.used += tokens
			l.spent = append(l.spent, spend{at: now, tokens: tokens})
			l.mu.Unlock()
			return nil
		}
		wait := l.spent[0].at.Add(time.Minute).Sub(now)
		l.mu.Unlock()

		if wait < 50*time.Millisecond {
			wait = 50 * time.Millisecond
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (l *TokenLimiter) expire(now time.Time) {
	cutoff := now.Add(-time.Minute)
	for len(l.spent) > 0 && l.spent[0].at.Before(cutoff) {
		l.used -= l.spent[0].tokens
		l.spent = l.spent[1:]
	}
	if l.used < 0 {
		l.used = 0
	}
}
