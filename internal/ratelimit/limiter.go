// Package ratelimit throttles public write endpoints with fixed-window
// counters keyed by caller identity.
//
// The default MemoryStore is process-local, so limits are best-effort when
// several instances serve traffic. RedisStore shares counters across
// instances.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// Rule describes a fixed window: at most Limit calls per Window for a key.
type Rule struct {
	Name      string        `json:"name"`
	KeyPrefix string        `json:"key_prefix"`
	Limit     int           `json:"limit"`
	Window    time.Duration `json:"window"`
}

// Validate reports whether the rule can be enforced.
func (r Rule) Validate() error {
	if r.Limit <= 0 {
		return fmt.Errorf("rule %q: limit must be positive", r.Name)
	}
	if r.Window <= 0 {
		return fmt.Errorf("rule %q: window must be positive", r.Name)
	}
	return nil
}

// Bucket is the counter state for one key within the current window.
type Bucket struct {
	Count   int
	ResetAt time.Time
}

// Result describes the outcome of a single Check.
type Result struct {
	Allowed           bool      `json:"allowed"`
	Limit             int       `json:"limit"`
	Remaining         int       `json:"remaining"`
	ResetAt           time.Time `json:"reset_at"`
	RetryAfterSeconds int       `json:"retry_after_seconds"`
}

// Store increments the bucket for key, starting a fresh window of the given
// length when the key has no bucket or its bucket has expired at now.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration, now time.Time) (Bucket, error)
}

// Limiter applies rules against a Store. Each Limiter owns its store, so
// independent instances never share counters.
type Limiter struct {
	Store Store
	Clock func() time.Time
}

// NewLimiter returns a limiter backed by store, or by a fresh MemoryStore when
// store is nil.
func NewLimiter(store Store) *Limiter {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Limiter{Store: store}
}

// Check counts one call for key under rule.
//
// A store failure does not block the caller: the result is allowed and the
// error is returned for logging.
func (l *Limiter) Check(ctx context.Context, rule Rule, key string) (Result, error) {
	now := l.now()
	if err := rule.Validate(); err != nil {
		return openResult(rule, now), err
	}
	if l == nil || l.Store == nil {
		return openResult(rule, now), errors.New("rate limiter store is not initialized")
	}

	bucket, err := l.Store.Increment(ctx, key, rule.Window, now)
	if err != nil {
		return openResult(rule, now), fmt.Errorf("increment %s: %w", key, err)
	}

	return evaluate(rule, bucket, now), nil
}

func evaluate(rule Rule, bucket Bucket, now time.Time) Result {
	allowed := bucket.Count <= rule.Limit
	result := Result{
		Allowed:   allowed,
		Limit:     rule.Limit,
		Remaining: max(0, rule.Limit-bucket.Count),
		ResetAt:   bucket.ResetAt,
	}
	if !allowed {
		result.RetryAfterSeconds = retryAfterSeconds(bucket.ResetAt.Sub(now))
	}
	return result
}

func retryAfterSeconds(until time.Duration) int {
	seconds := int(math.Ceil(until.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}

func openResult(rule Rule, now time.Time) Result {
	return Result{
		Allowed:   true,
		Limit:     rule.Limit,
		Remaining: max(0, rule.Limit),
		ResetAt:   now.Add(rule.Window),
	}
}

func (l *Limiter) now() time.Time {
	if l != nil && l.Clock != nil {
		return l.Clock()
	}
	return time.Now().UTC()
}
