package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/folio/folio/internal/core"
)

type memoryRateStore struct {
	mu    sync.Mutex
	state map[string]core.RateLimitState
	err   error
}

func (m *memoryRateStore) GetRateLimit(ctx context.Context, endpoint string) (*core.RateLimitState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if val, ok := m.state[endpoint]; ok {
		return &val, nil
	}
	return nil, nil
}

func (m *memoryRateStore) UpdateRateLimit(ctx context.Context, endpoint string, state *core.RateLimitState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		m.state = make(map[string]core.RateLimitState)
	}
	m.state[endpoint] = *state
	return nil
}

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

func (c *stepClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestRateLimiterWindow(t *testing.T) {
	store := &memoryRateStore{}
	clock := &stepClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter := &RateLimiter{
		Store: store,
		Limits: map[string]RateLimit{
			GitHubEndpoint: {RequestsPerWindow: 1, WindowDuration: time.Minute},
		},
		Clock: clock.Now,
	}

	allowed, _, err := limiter.Allow(context.Background(), GitHubEndpoint)
	require.NoError(t, err)
	require.True(t, allowed)

	require.NoError(t, limiter.Record(context.Background(), GitHubEndpoint))

	allowed, wait, err := limiter.Allow(context.Background(), GitHubEndpoint)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, time.Minute, wait)

	clock.Advance(20 * time.Second)
	_, wait, err = limiter.Allow(context.Background(), GitHubEndpoint)
	require.NoError(t, err)
	require.Equal(t, 40*time.Second, wait)
}

func TestRateLimiterRecordStartsFreshWindow(t *testing.T) {
	store := &memoryRateStore{}
	clock := &stepClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter := &RateLimiter{
		Store: store,
		Limits: map[string]RateLimit{
			GitHubEndpoint: {RequestsPerWindow: 2, WindowDuration: time.Minute},
		},
		Clock: clock.Now,
	}

	require.NoError(t, limiter.Record(context.Background(), GitHubEndpoint))
	require.NoError(t, limiter.Record(context.Background(), GitHubEndpoint))

	clock.Advance(time.Minute)
	require.NoError(t, limiter.Record(context.Background(), GitHubEndpoint))

	state := store.state[GitHubEndpoint]
	require.Equal(t, 1, state.RequestCount)
	require.Equal(t, clock.now, state.WindowStart)

	allowed, _, err := limiter.Allow(context.Background(), GitHubEndpoint)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestRateLimiterBackoff(t *testing.T) {
	store := &memoryRateStore{}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := &RateLimiter{
		Store: store,
		Clock: func() time.Time { return now },
	}

	require.NoError(t, limiter.Record429(context.Background(), GitHubEndpoint, 30*time.Second))

	allowed, wait, err := limiter.Allow(context.Background(), GitHubEndpoint)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, 30*time.Second, wait)
}

func TestRateLimiter429WithoutHintExhaustsWindow(t *testing.T) {
	store := &memoryRateStore{}
	clock := &stepClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter := &RateLimiter{Store: store, Clock: clock.Now}

	require.NoError(t, limiter.Record(context.Background(), GitHubEndpoint))
	clock.Advance(15 * time.Second)
	require.NoError(t, limiter.Record429(context.Background(), GitHubEndpoint, 0))

	allowed, wait, err := limiter.Allow(context.Background(), GitHubEndpoint)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, 45*time.Second, wait)

	clock.Advance(45 * time.Second)
	allowed, _, err = limiter.Allow(context.Background(), GitHubEndpoint)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestRateLimiterMargin(t *testing.T) {
	limiter := &RateLimiter{
		Store: &memoryRateStore{},
		Limits: map[string]RateLimit{
			GitHubEndpoint: {RequestsPerWindow: 10, WindowDuration: time.Minute},
		},
	}

	limiter.ApplySafetyMargin(0.9)
	require.Equal(t, 9, limiter.Limit(GitHubEndpoint).RequestsPerWindow)

	limiter.ApplySafetyMargin(1.5)
	require.Equal(t, 0.9, limiter.Margin, "out of range margins are ignored")
}

func TestRateLimiterDefaultsAndOverrides(t *testing.T) {
	limiter := &RateLimiter{Store: &memoryRateStore{}}
	require.Equal(t, 50, limiter.Limit(GitHubEndpoint).RequestsPerWindow)
	require.Equal(t, 30, limiter.Limit("example.com").RequestsPerWindow)

	limiter.ApplyOverrides(map[string]int{"github": 20, "uploads.github.com": 5, "": 3, "bad": -1})
	require.Equal(t, 20, limiter.Limit(GitHubEndpoint).RequestsPerWindow)
	require.Equal(t, 5, limiter.Limit("uploads.github.com").RequestsPerWindow)
	require.Equal(t, 30, limiter.Limit("bad").RequestsPerWindow)
	require.Equal(t, 50, DefaultLimits[GitHubEndpoint].RequestsPerWindow, "defaults are not mutated")
}

func TestRateLimiterStoreErrorFailsOpen(t *testing.T) {
	limiter := &RateLimiter{Store: &memoryRateStore{err: errors.New("db down")}}

	allowed, _, err := limiter.Allow(context.Background(), GitHubEndpoint)
	require.Error(t, err)
	require.True(t, allowed)
}

func TestRateLimiterNilIsUnlimited(t *testing.T) {
	var limiter *RateLimiter

	allowed, wait, err := limiter.Allow(context.Background(), GitHubEndpoint)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Zero(t, wait)
	require.NoError(t, limiter.Record(context.Background(), GitHubEndpoint))
	require.NoError(t, limiter.Record429(context.Background(), GitHubEndpoint, time.Second))
}
